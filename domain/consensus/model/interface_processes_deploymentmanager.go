package model

import "github.com/hybridchain/hcd/domain/consensus/model/externalapi"

// DeploymentFlagsProvider computes which soft-fork rules apply to the block
// following a chained header's parent.
type DeploymentFlagsProvider interface {
	FlagsFor(chainedHeader *externalapi.ChainedHeader) (*externalapi.DeploymentFlags, error)
	ComputeBlockVersion(prev *externalapi.ChainedHeader) (int32, error)
}

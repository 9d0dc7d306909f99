package model

import "github.com/hybridchain/hcd/domain/consensus/model/externalapi"

// CheckpointsProvider supplies the hardened checkpoints of a network.
type CheckpointsProvider interface {
	HardenedHash(height uint64) (*externalapi.DomainHash, bool)

	// CheckHardened returns false only when a checkpoint exists at height
	// and its hash differs from hash.
	CheckHardened(height uint64, hash *externalapi.DomainHash) bool
	LastCheckpointHeight() uint64
	StakeModifierAt(height uint64) (*externalapi.DomainHash, bool)
}

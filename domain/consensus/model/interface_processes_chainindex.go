package model

import "github.com/hybridchain/hcd/domain/consensus/model/externalapi"

// ChainIndex gives access to the chained headers known to the node.
type ChainIndex interface {
	GetHeader(blockHash *externalapi.DomainHash) (*externalapi.ChainedHeader, bool)
	Tip() *externalapi.ChainedHeader
}

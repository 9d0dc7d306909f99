package model

import "github.com/hybridchain/hcd/domain/consensus/model/externalapi"

// StakeChain stores one BlockStake record per block on proof-of-stake
// networks.
type StakeChain interface {
	// Get returns the record of blockHash, or nil if none is known.
	Get(blockHash *externalapi.DomainHash) (*externalapi.BlockStake, error)
	Set(blockHash *externalapi.DomainHash, stake *externalapi.BlockStake) error
}

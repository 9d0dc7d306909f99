package model

import (
	"math/big"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
)

// StakeValidator computes and verifies proof-of-stake kernels, stake
// modifiers and proof-of-stake targets
type StakeValidator interface {
	// GetNextTargetRequired returns the compact target of the block
	// following prev.
	GetNextTargetRequired(prev *externalapi.ChainedHeader, proofOfStake bool) (uint32, error)
	CalculateRetarget(firstBlockTime uint32, firstBlockBits uint32, secondBlockTime uint32, targetLimit *big.Int) uint32

	// CheckProofOfStake verifies the coinstake of a block built on prev
	// and returns the kernel hash. transactionTime is the coinstake
	// timestamp, or the block timestamp on networks without one.
	CheckProofOfStake(prev *externalapi.ChainedHeader, prevStake *externalapi.BlockStake,
		coinstake *externalapi.DomainTransaction, stakingCoins *externalapi.UnspentOutputs,
		headerBits uint32, transactionTime uint32) (*externalapi.DomainHash, error)
	CheckStakeKernelHash(headerBits uint32, prevStakeModifier *externalapi.DomainHash, stakingCoins *externalapi.UnspentOutputs,
		prevout *externalapi.DomainOutpoint, transactionTime uint32) (*externalapi.DomainHash, error)
	ComputeStakeModifierV2(prev *externalapi.ChainedHeader, prevStakeModifier *externalapi.DomainHash,
		kernel *externalapi.DomainHash) *externalapi.DomainHash

	// PreviousStakeModifier returns the stake modifier of prev from the
	// stake chain, falling back to a checkpointed value.
	PreviousStakeModifier(prev *externalapi.ChainedHeader) (*externalapi.DomainHash, error)
}

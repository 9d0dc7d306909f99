package coinbasemanager

import (
	"github.com/hybridchain/hcd/domain/consensus/model"
)

// maxHalvings is the number of halvings after which the subsidy is zero.
const maxHalvings = 64

type coinbaseManager struct {
	isProofOfStake         bool
	subsidyHalvingInterval uint64
	baseSubsidy            int64

	premineHeight      uint64
	premineReward      int64
	proofOfWorkReward  int64
	proofOfStakeReward int64
}

// New instantiates a new CoinbaseManager. On proof-of-work networks the
// subsidy halves every subsidyHalvingInterval blocks. On proof-of-stake
// networks rewards are flat, with a one-off premine at premineHeight.
func New(
	isProofOfStake bool,
	subsidyHalvingInterval uint64,
	baseSubsidy int64,
	premineHeight uint64,
	premineReward int64,
	proofOfWorkReward int64,
	proofOfStakeReward int64) model.CoinbaseManager {

	return &coinbaseManager{
		isProofOfStake:         isProofOfStake,
		subsidyHalvingInterval: subsidyHalvingInterval,
		baseSubsidy:            baseSubsidy,
		premineHeight:          premineHeight,
		premineReward:          premineReward,
		proofOfWorkReward:      proofOfWorkReward,
		proofOfStakeReward:     proofOfStakeReward,
	}
}

// ProofOfWorkReward returns the subsidy a proof-of-work block at height may
// claim on top of its fees.
func (c *coinbaseManager) ProofOfWorkReward(height uint64) int64 {
	if c.isProofOfStake {
		if c.isPremine(height) {
			return c.premineReward
		}
		return c.proofOfWorkReward
	}

	if c.subsidyHalvingInterval == 0 {
		return c.baseSubsidy
	}
	halvings := height / c.subsidyHalvingInterval
	if halvings >= maxHalvings {
		return 0
	}
	return c.baseSubsidy >> halvings
}

// ProofOfStakeReward returns the reward a coinstake at height may mint.
func (c *coinbaseManager) ProofOfStakeReward(height uint64) int64 {
	if c.isPremine(height) {
		return c.premineReward
	}
	return c.proofOfStakeReward
}

func (c *coinbaseManager) isPremine(height uint64) bool {
	return c.premineHeight > 0 && c.premineReward > 0 && height == c.premineHeight
}

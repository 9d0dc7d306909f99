package difficultymanager

import (
	"math/big"
	"time"

	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/difficulty"
)

// DifficultyManager provides a method to resolve the
// difficulty value of a block
type difficultyManager struct {
	powLimit                     *big.Int
	powLimitBits                 uint32
	targetTimespan               int64
	targetSpacing                int64
	difficultyAdjustmentInterval uint64
	allowMinDifficultyBlocks     bool
	noRetargeting                bool
}

// New instantiates a new DifficultyManager
func New(powLimit *big.Int,
	targetTimespan time.Duration,
	targetSpacing time.Duration,
	allowMinDifficultyBlocks bool,
	noRetargeting bool) model.DifficultyManager {

	timespanSeconds := int64(targetTimespan / time.Second)
	spacingSeconds := int64(targetSpacing / time.Second)
	return &difficultyManager{
		powLimit:                     powLimit,
		powLimitBits:                 difficulty.BigToCompact(powLimit),
		targetTimespan:               timespanSeconds,
		targetSpacing:                spacingSeconds,
		difficultyAdjustmentInterval: uint64(timespanSeconds / spacingSeconds),
		allowMinDifficultyBlocks:     allowMinDifficultyBlocks,
		noRetargeting:                noRetargeting,
	}
}

// RequiredDifficulty returns the difficulty required for the block following
// prev and timestamped newBlockTime
func (dm *difficultyManager) RequiredDifficulty(prev *externalapi.ChainedHeader, newBlockTime uint32) uint32 {
	// Genesis block.
	if prev == nil {
		return dm.powLimitBits
	}

	// Return the previous block's difficulty requirements if this block
	// is not at a difficulty retarget interval.
	if (prev.Height+1)%dm.difficultyAdjustmentInterval != 0 {
		if dm.allowMinDifficultyBlocks {
			return dm.minDifficultyBits(prev, newBlockTime)
		}
		return prev.Header.Bits
	}

	firstHeight := prev.Height + 1 - dm.difficultyAdjustmentInterval
	first := prev.Ancestor(firstHeight)
	return dm.calculateNextWork(prev, first.Timestamp())
}

// minDifficultyBits implements the testnet rule allowing a minimum difficulty
// block after twice the target spacing. Otherwise the difficulty of the last
// block not mined under that rule applies.
func (dm *difficultyManager) minDifficultyBits(prev *externalapi.ChainedHeader, newBlockTime uint32) uint32 {
	if int64(newBlockTime) > int64(prev.Timestamp())+dm.targetSpacing*2 {
		return dm.powLimitBits
	}

	current := prev
	for current.Previous != nil && current.Height%dm.difficultyAdjustmentInterval != 0 &&
		current.Header.Bits == dm.powLimitBits {

		current = current.Previous
	}
	return current.Header.Bits
}

func (dm *difficultyManager) calculateNextWork(prev *externalapi.ChainedHeader, firstBlockTime uint32) uint32 {
	if dm.noRetargeting {
		return prev.Header.Bits
	}

	// Limit the amount of adjustment that can occur to the previous
	// difficulty.
	actualTimespan := int64(prev.Timestamp()) - int64(firstBlockTime)
	minTimespan := dm.targetTimespan / 4
	maxTimespan := dm.targetTimespan * 4
	if actualTimespan < minTimespan {
		actualTimespan = minTimespan
	} else if actualTimespan > maxTimespan {
		actualTimespan = maxTimespan
	}

	newTarget := difficulty.CompactToBig(prev.Header.Bits)
	newTarget.Mul(newTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(dm.targetTimespan))

	// Limit new value to the proof of work limit.
	if newTarget.Cmp(dm.powLimit) > 0 {
		newTarget.Set(dm.powLimit)
	}
	return difficulty.BigToCompact(newTarget)
}

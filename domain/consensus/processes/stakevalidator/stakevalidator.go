package stakevalidator

import (
	"math/big"
	"time"

	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/difficulty"
	"github.com/hybridchain/hcd/domain/consensus/utils/hashes"
	"github.com/pkg/errors"
)

type stakeValidator struct {
	powLimit              *big.Int
	posLimit              *big.Int
	targetSpacing         int64
	targetTimespan        int64
	powNoRetargeting      bool
	posNoRetargeting      bool
	stakeMinConfirmations uint64

	stakeChain     model.StakeChain
	checkpoints    model.CheckpointsProvider
	scriptVerifier model.ScriptVerifier
}

// New instantiates a new StakeValidator
func New(powLimit *big.Int,
	posLimit *big.Int,
	targetSpacing time.Duration,
	targetTimespan time.Duration,
	powNoRetargeting bool,
	posNoRetargeting bool,
	stakeMinConfirmations uint64,

	stakeChain model.StakeChain,
	checkpoints model.CheckpointsProvider,
	scriptVerifier model.ScriptVerifier) model.StakeValidator {

	return &stakeValidator{
		powLimit:              powLimit,
		posLimit:              posLimit,
		targetSpacing:         int64(targetSpacing / time.Second),
		targetTimespan:        int64(targetTimespan / time.Second),
		powNoRetargeting:      powNoRetargeting,
		posNoRetargeting:      posNoRetargeting,
		stakeMinConfirmations: stakeMinConfirmations,

		stakeChain:     stakeChain,
		checkpoints:    checkpoints,
		scriptVerifier: scriptVerifier,
	}
}

// GetNextTargetRequired returns the compact target of the block following
// prev. Proof-of-work and proof-of-stake blocks retarget independently, each
// from the last two blocks of its own kind.
func (sv *stakeValidator) GetNextTargetRequired(prev *externalapi.ChainedHeader, proofOfStake bool) (uint32, error) {
	// Genesis block.
	if prev == nil {
		return difficulty.BigToCompact(sv.powLimit), nil
	}

	targetLimit := sv.powLimit
	if proofOfStake {
		targetLimit = sv.posLimit
	}

	lastBlock, err := sv.lastBlockOfKind(prev, proofOfStake)
	if err != nil {
		return 0, err
	}
	// First block.
	if lastBlock.Previous == nil {
		return difficulty.BigToCompact(targetLimit), nil
	}

	prevLastBlock, err := sv.lastBlockOfKind(lastBlock.Previous, proofOfStake)
	if err != nil {
		return 0, err
	}
	// Second block.
	if prevLastBlock.Previous == nil {
		return difficulty.BigToCompact(targetLimit), nil
	}

	if (!proofOfStake && sv.powNoRetargeting) || (proofOfStake && sv.posNoRetargeting) {
		return lastBlock.Header.Bits, nil
	}

	return sv.CalculateRetarget(lastBlock.Timestamp(), lastBlock.Header.Bits,
		prevLastBlock.Timestamp(), targetLimit), nil
}

// lastBlockOfKind walks back from start to the most recent block of the
// requested kind, stopping at genesis.
func (sv *stakeValidator) lastBlockOfKind(start *externalapi.ChainedHeader,
	proofOfStake bool) (*externalapi.ChainedHeader, error) {

	current := start
	for {
		stake, err := sv.stakeChain.Get(&current.Hash)
		if err != nil {
			return nil, err
		}
		if stake == nil {
			return nil, errors.Errorf("missing stake record of block %s at height %d",
				current.Hash, current.Height)
		}
		if current.Previous == nil || stake.IsProofOfStake() == proofOfStake {
			return current, nil
		}
		current = current.Previous
	}
}

// CalculateRetarget moves the target towards one block every target
// spacing, based on the spacing between the last two blocks of a kind.
func (sv *stakeValidator) CalculateRetarget(firstBlockTime uint32, firstBlockBits uint32,
	secondBlockTime uint32, targetLimit *big.Int) uint32 {

	actualSpacing := sv.targetSpacing
	if firstBlockTime > secondBlockTime {
		actualSpacing = int64(firstBlockTime - secondBlockTime)
	}
	if actualSpacing > sv.targetSpacing*10 {
		actualSpacing = sv.targetSpacing * 10
	}

	interval := sv.targetTimespan / sv.targetSpacing
	target := difficulty.CompactToBig(firstBlockBits)
	target.Mul(target, big.NewInt((interval-1)*sv.targetSpacing+2*actualSpacing))
	target.Div(target, big.NewInt((interval+1)*sv.targetSpacing))

	if target.Sign() <= 0 || target.Cmp(targetLimit) > 0 {
		target.Set(targetLimit)
	}
	return difficulty.BigToCompact(target)
}

// PreviousStakeModifier returns the stake modifier of prev. Checkpointed
// modifiers stand in for blocks whose stake record is unknown.
func (sv *stakeValidator) PreviousStakeModifier(prev *externalapi.ChainedHeader) (*externalapi.DomainHash, error) {
	stake, err := sv.stakeChain.Get(&prev.Hash)
	if err != nil {
		return nil, err
	}
	if stake != nil {
		return stake.StakeModifierV2.Clone(), nil
	}

	modifier, ok := sv.checkpoints.StakeModifierAt(prev.Height)
	if ok {
		log.Debugf("Using the checkpointed stake modifier of block %s at height %d", prev.Hash, prev.Height)
		return modifier, nil
	}
	return nil, errors.Wrapf(ruleerrors.ErrModifierNotFound, "no stake modifier for block %s at height %d",
		prev.Hash, prev.Height)
}

// ComputeStakeModifierV2 hashes kernel with the previous stake modifier. The
// kernel is the block hash of a proof-of-work block and the staked
// transaction id of a proof-of-stake block.
func (sv *stakeValidator) ComputeStakeModifierV2(prev *externalapi.ChainedHeader,
	prevStakeModifier *externalapi.DomainHash, kernel *externalapi.DomainHash) *externalapi.DomainHash {

	if prev == nil {
		return &externalapi.DomainHash{}
	}
	return hashes.DoubleHash(kernel[:], prevStakeModifier[:])
}

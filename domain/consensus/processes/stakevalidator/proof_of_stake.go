package stakevalidator

import (
	"math/big"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/difficulty"
	"github.com/hybridchain/hcd/domain/consensus/utils/hashes"
	"github.com/hybridchain/hcd/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// CheckProofOfStake verifies the coinstake of a block built on prev: the
// staked output must be signed for by the first coinstake input, be deep
// enough, and its kernel hash must meet the value weighted target.
func (sv *stakeValidator) CheckProofOfStake(prev *externalapi.ChainedHeader, prevStake *externalapi.BlockStake,
	coinstake *externalapi.DomainTransaction, stakingCoins *externalapi.UnspentOutputs,
	headerBits uint32, transactionTime uint32) (*externalapi.DomainHash, error) {

	if !coinstake.IsCoinStake() {
		return nil, errors.Wrapf(ruleerrors.ErrBadStakeBlock, "the second transaction is not a coinstake")
	}

	input := coinstake.Inputs[0]
	if stakingCoins == nil || stakingCoins.TransactionID != input.PreviousOutpoint.TransactionID {
		return nil, errors.Wrapf(ruleerrors.ErrReadTxPrevFailed, "staked transaction %s not found",
			input.PreviousOutpoint.TransactionID)
	}
	stakedOutput := stakingCoins.Output(input.PreviousOutpoint.Index)
	if stakedOutput == nil {
		return nil, errors.Wrapf(ruleerrors.ErrReadTxPrevFailed, "staked output %s is missing or spent",
			input.PreviousOutpoint)
	}

	err := sv.scriptVerifier.Verify(input.SignatureScript, stakedOutput.ScriptPublicKey, input.Witness,
		coinstake, 0, stakedOutput.Value, externalapi.ScriptVerifyNone)
	if err != nil {
		return nil, errors.Wrapf(ruleerrors.ErrCoinstakeVerifySignatureFailed, "staked output %s: %s",
			input.PreviousOutpoint, err)
	}

	if sv.isConfirmedInPrevBlocks(stakingCoins, prev) {
		return nil, errors.Wrapf(ruleerrors.ErrInvalidStakeDepth, "staked output %s at height %d is "+
			"less than %d blocks deep", input.PreviousOutpoint, stakingCoins.Height, sv.stakeMinConfirmations)
	}

	return sv.CheckStakeKernelHash(headerBits, &prevStake.StakeModifierV2, stakingCoins,
		&input.PreviousOutpoint, transactionTime)
}

// isConfirmedInPrevBlocks returns whether the staked coins were confirmed
// within the last StakeMinConfirmations-1 blocks.
func (sv *stakeValidator) isConfirmedInPrevBlocks(stakingCoins *externalapi.UnspentOutputs,
	prev *externalapi.ChainedHeader) bool {

	targetDepth := int64(sv.stakeMinConfirmations) - 1
	actualDepth := int64(prev.Height) - int64(stakingCoins.Height)
	return actualDepth < targetDepth
}

// CheckStakeKernelHash checks that the kernel hash of the staked output is
// below the block target weighted by the staked value, and returns it.
//
// The kernel commits to the previous stake modifier, the staked transaction
// time, the staked outpoint and the coinstake time.
func (sv *stakeValidator) CheckStakeKernelHash(headerBits uint32, prevStakeModifier *externalapi.DomainHash,
	stakingCoins *externalapi.UnspentOutputs, prevout *externalapi.DomainOutpoint,
	transactionTime uint32) (*externalapi.DomainHash, error) {

	if transactionTime < stakingCoins.Time {
		return nil, errors.Wrapf(ruleerrors.ErrStakeTimeViolation, "coinstake time %d is before the "+
			"staked transaction time %d", transactionTime, stakingCoins.Time)
	}

	stakedOutput := stakingCoins.Output(prevout.Index)
	if stakedOutput == nil {
		return nil, errors.Wrapf(ruleerrors.ErrReadTxPrevFailed, "staked output %s is missing or spent", prevout)
	}

	weightedTarget := difficulty.CompactToBig(headerBits)
	weightedTarget.Mul(weightedTarget, big.NewInt(stakedOutput.Value))

	kernelHash, err := stakeKernelHash(prevStakeModifier, stakingCoins.Time, prevout, transactionTime)
	if err != nil {
		return nil, err
	}

	if difficulty.HashToBig(kernelHash).Cmp(weightedTarget) > 0 {
		return nil, errors.Wrapf(ruleerrors.ErrStakeHashInvalidTarget, "kernel hash %s is above the "+
			"target %064x weighted by %d", kernelHash, weightedTarget, stakedOutput.Value)
	}

	log.Tracef("Kernel hash %s of staked output %s meets its weighted target", kernelHash, prevout)
	return kernelHash, nil
}

func stakeKernelHash(prevStakeModifier *externalapi.DomainHash, stakedTime uint32,
	prevout *externalapi.DomainOutpoint, transactionTime uint32) (*externalapi.DomainHash, error) {

	writer := hashes.NewDoubleHashWriter()
	err := serialization.WriteElements(writer, prevStakeModifier, stakedTime,
		&prevout.TransactionID, prevout.Index, transactionTime)
	if err != nil {
		return nil, err
	}
	return writer.Finalize(), nil
}

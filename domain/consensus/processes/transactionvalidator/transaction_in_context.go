package transactionvalidator

import (
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/constants"
	"github.com/pkg/errors"
)

// IsFinalizedTransaction determines whether or not a transaction is finalized.
// blockTime is the lock time cutoff: the block timestamp, or the median time
// past of the previous block once BIP113 is active.
func (v *transactionValidator) IsFinalizedTransaction(tx *externalapi.DomainTransaction, blockHeight uint64,
	blockTime uint32) bool {

	// Lock time of zero means the transaction is finalized.
	lockTime := tx.LockTime
	if lockTime == 0 {
		return true
	}

	// The lock time field of a transaction is either a block height at
	// which the transaction is finalized or a timestamp depending on if the
	// value is before the constants.LockTimeThreshold. When it is under the
	// threshold it is a block height.
	blockTimeOrHeight := uint64(blockTime)
	if lockTime < constants.LockTimeThreshold {
		blockTimeOrHeight = blockHeight
	}
	if uint64(lockTime) < blockTimeOrHeight {
		return true
	}

	// At this point, the transaction's lock time hasn't occurred yet, but
	// the transaction might still be finalized if the sequence number
	// for all transaction inputs is maxed out.
	for _, input := range tx.Inputs {
		if input.Sequence != constants.MaxTxInSequenceNum {
			return false
		}
	}
	return true
}

// sequenceLock is the minimum height and median time past that must be
// reached before a transaction's relative lock times are satisfied. -1 means
// no constraint.
type sequenceLock struct {
	minHeight int64
	minTime   int64
}

// CheckSequenceLocks evaluates the BIP68 relative lock times of tx against the
// block at chainedHeader. prevHeights holds the height of the coins spent by
// each input.
func (v *transactionValidator) CheckSequenceLocks(tx *externalapi.DomainTransaction, prevHeights []uint64,
	chainedHeader *externalapi.ChainedHeader, flags externalapi.LockTimeFlags) bool {

	lock := calcSequenceLock(tx, prevHeights, chainedHeader, flags)

	var medianTimePast int64
	if chainedHeader.Previous != nil {
		medianTimePast = int64(chainedHeader.Previous.PastMedianTime())
	}
	return lock.minHeight < int64(chainedHeader.Height) && lock.minTime < medianTimePast
}

func calcSequenceLock(tx *externalapi.DomainTransaction, prevHeights []uint64,
	chainedHeader *externalapi.ChainedHeader, flags externalapi.LockTimeFlags) sequenceLock {

	lock := sequenceLock{minHeight: -1, minTime: -1}

	// Relative lock times only apply to version 2 transactions, and only
	// once the sequence lock deployment is active.
	enforce := uint32(tx.Version) >= 2 && flags.HasFlag(externalapi.LockTimeVerifySequence)
	if !enforce {
		return lock
	}

	for i, input := range tx.Inputs {
		sequence := input.Sequence
		if sequence&constants.SequenceLockTimeDisabled != 0 {
			continue
		}

		coinHeight := int64(prevHeights[i])
		relativeLock := int64(sequence & constants.SequenceLockTimeMask)
		if sequence&constants.SequenceLockTimeIsSeconds != 0 {
			// Time based locks count from the median time past of the
			// block before the one that included the spent output.
			ancestorHeight := coinHeight - 1
			if ancestorHeight < 0 {
				ancestorHeight = 0
			}
			ancestor := chainedHeader.Ancestor(uint64(ancestorHeight))
			coinTime := int64(ancestor.PastMedianTime())
			minTime := coinTime + relativeLock<<constants.SequenceLockTimeGranularity - 1
			if minTime > lock.minTime {
				lock.minTime = minTime
			}
			continue
		}

		minHeight := coinHeight + relativeLock - 1
		if minHeight > lock.minHeight {
			lock.minHeight = minHeight
		}
	}
	return lock
}

// CheckInputAmounts checks that the spent outputs cover the transaction
// outputs and returns the fee.
func (v *transactionValidator) CheckInputAmounts(tx *externalapi.DomainTransaction,
	spentOutputs []*externalapi.DomainTransactionOutput) (fee int64, err error) {

	var totalIn int64
	for i, output := range spentOutputs {
		if !v.moneyRange(output.Value) {
			return 0, errors.Wrapf(ruleerrors.ErrBadTransactionInputValueOutOfRange,
				"input %d has value %d which is out of range", i, output.Value)
		}
		totalIn += output.Value
		if !v.moneyRange(totalIn) {
			return 0, errors.Wrapf(ruleerrors.ErrBadTransactionInputValueOutOfRange,
				"total input value %d is out of range", totalIn)
		}
	}

	totalOut := tx.TotalOut()
	if totalIn < totalOut {
		return 0, errors.Wrapf(ruleerrors.ErrBadTransactionInBelowOut, "total value of all transaction "+
			"inputs is %d which is less than the amount spent of %d", totalIn, totalOut)
	}

	fee = totalIn - totalOut
	if !v.moneyRange(fee) {
		return 0, errors.Wrapf(ruleerrors.ErrBadTransactionFeeOutOfRange, "fee %d is out of range", fee)
	}
	return fee, nil
}

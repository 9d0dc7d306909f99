package transactionvalidator

import (
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// ValidateTransactionInIsolation validates the parts of a transaction that
// don't depend on the chain or the unspent output set
func (v *transactionValidator) ValidateTransactionInIsolation(tx *externalapi.DomainTransaction) error {
	err := v.checkTransactionInputCount(tx)
	if err != nil {
		return err
	}
	err = v.checkTransactionOutputCount(tx)
	if err != nil {
		return err
	}
	err = v.checkTransactionSize(tx)
	if err != nil {
		return err
	}
	err = v.checkTransactionAmountRanges(tx)
	if err != nil {
		return err
	}
	err = v.checkDuplicateTransactionInputs(tx)
	if err != nil {
		return err
	}
	err = v.checkCoinbaseOrPrevouts(tx)
	if err != nil {
		return err
	}
	return v.checkEmptyOutputs(tx)
}

func (v *transactionValidator) checkTransactionInputCount(tx *externalapi.DomainTransaction) error {
	if len(tx.Inputs) == 0 {
		return errors.Wrapf(ruleerrors.ErrBadTransactionNoInput, "transaction has no inputs")
	}
	return nil
}

func (v *transactionValidator) checkTransactionOutputCount(tx *externalapi.DomainTransaction) error {
	if len(tx.Outputs) == 0 {
		return errors.Wrapf(ruleerrors.ErrBadTransactionNoOutput, "transaction has no outputs")
	}
	return nil
}

// checkTransactionSize doesn't take the witness into account, as it hasn't
// been checked for malleability yet.
func (v *transactionValidator) checkTransactionSize(tx *externalapi.DomainTransaction) error {
	size := serialization.TransactionSerializeSize(tx, false)
	if uint64(size) > v.maxBlockBaseSize {
		return errors.Wrapf(ruleerrors.ErrBadTransactionOversize, "serialized transaction is too big - "+
			"got %d, max %d", size, v.maxBlockBaseSize)
	}
	return nil
}

func (v *transactionValidator) checkTransactionAmountRanges(tx *externalapi.DomainTransaction) error {
	// Ensure the transaction amounts are in range. Each transaction
	// output must not be negative or more than the max allowed per
	// transaction. Also, the total of all outputs must abide by the same
	// restrictions.
	var totalOut int64
	for _, output := range tx.Outputs {
		if output.Value < 0 {
			return errors.Wrapf(ruleerrors.ErrBadTransactionNegativeOutput, "transaction output has "+
				"negative value of %d", output.Value)
		}
		if output.Value > v.maxMoney {
			return errors.Wrapf(ruleerrors.ErrBadTransactionTooLargeOutput, "transaction output value of %d is "+
				"higher than max allowed value of %d", output.Value, v.maxMoney)
		}

		// Two's complement int64 overflow guarantees that any overflow
		// is detected and reported.
		newTotalOut := totalOut + output.Value
		if newTotalOut < totalOut || !v.moneyRange(newTotalOut) {
			return errors.Wrapf(ruleerrors.ErrBadTransactionTooLargeTotalOutput, "total value of all transaction "+
				"outputs exceeds max allowed value of %d", v.maxMoney)
		}
		totalOut = newTotalOut
	}
	return nil
}

func (v *transactionValidator) checkDuplicateTransactionInputs(tx *externalapi.DomainTransaction) error {
	existingTxOut := make(map[externalapi.DomainOutpoint]struct{}, len(tx.Inputs))
	for _, input := range tx.Inputs {
		if _, exists := existingTxOut[input.PreviousOutpoint]; exists {
			return errors.Wrapf(ruleerrors.ErrBadTransactionDuplicateInputs, "transaction "+
				"contains duplicate inputs of %s", input.PreviousOutpoint)
		}
		existingTxOut[input.PreviousOutpoint] = struct{}{}
	}
	return nil
}

func (v *transactionValidator) checkCoinbaseOrPrevouts(tx *externalapi.DomainTransaction) error {
	if tx.IsCoinBase() {
		scriptLen := len(tx.Inputs[0].SignatureScript)
		if scriptLen < v.minCoinbaseScriptLen || scriptLen > v.maxCoinbaseScriptLen {
			return errors.Wrapf(ruleerrors.ErrBadCoinbaseSize, "coinbase transaction script length "+
				"of %d is out of range (min: %d, max: %d)",
				scriptLen, v.minCoinbaseScriptLen, v.maxCoinbaseScriptLen)
		}
		return nil
	}

	// Previous transaction outputs referenced by the inputs to this
	// transaction must not be null.
	for _, input := range tx.Inputs {
		if input.PreviousOutpoint.IsNull() {
			return errors.Wrapf(ruleerrors.ErrBadTransactionNullPrevout, "transaction "+
				"input refers to previous output that is null")
		}
	}
	return nil
}

func (v *transactionValidator) checkEmptyOutputs(tx *externalapi.DomainTransaction) error {
	if !v.rejectEmptyOutputs || tx.IsCoinBase() || tx.IsCoinStake() {
		return nil
	}
	for i, output := range tx.Outputs {
		if output.IsEmpty() {
			return errors.Wrapf(ruleerrors.ErrBadTransactionEmptyOutput, "output %d is empty", i)
		}
	}
	return nil
}

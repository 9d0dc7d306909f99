package transactionhelper

import (
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/constants"
)

// NewTransaction returns a new transaction of the current version. On networks
// whose transactions carry a timestamp it is set to timestamp.
func NewTransaction(inputs []*externalapi.DomainTransactionInput, outputs []*externalapi.DomainTransactionOutput,
	hasTimestamp bool, timestamp uint32) *externalapi.DomainTransaction {

	tx := &externalapi.DomainTransaction{
		Version:  constants.TransactionVersion,
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: 0,
	}
	if hasTimestamp {
		tx.HasTimestamp = true
		tx.Timestamp = timestamp
	}
	return tx
}

// NewCoinbaseInput returns the single input of a coinbase transaction.
func NewCoinbaseInput(signatureScript []byte) *externalapi.DomainTransactionInput {
	return &externalapi.DomainTransactionInput{
		PreviousOutpoint: externalapi.DomainOutpoint{
			TransactionID: externalapi.ZeroHash,
			Index:         externalapi.MaxPrevOutIndex,
		},
		SignatureScript: signatureScript,
		Sequence:        constants.MaxTxInSequenceNum,
	}
}

// NewSpendInput returns an input spending outpoint with a final sequence.
func NewSpendInput(outpoint *externalapi.DomainOutpoint, signatureScript []byte) *externalapi.DomainTransactionInput {
	return &externalapi.DomainTransactionInput{
		PreviousOutpoint: *outpoint,
		SignatureScript:  signatureScript,
		Sequence:         constants.MaxTxInSequenceNum,
	}
}

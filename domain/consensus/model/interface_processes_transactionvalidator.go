package model

import "github.com/hybridchain/hcd/domain/consensus/model/externalapi"

// TransactionValidator exposes a set of validation classes, after which
// it's possible to determine whether a transaction is valid
type TransactionValidator interface {
	ValidateTransactionInIsolation(tx *externalapi.DomainTransaction) error
	IsFinalizedTransaction(tx *externalapi.DomainTransaction, blockHeight uint64, blockTime uint32) bool
	CheckSequenceLocks(tx *externalapi.DomainTransaction, prevHeights []uint64,
		chainedHeader *externalapi.ChainedHeader, flags externalapi.LockTimeFlags) bool
	CheckInputAmounts(tx *externalapi.DomainTransaction, spentOutputs []*externalapi.DomainTransactionOutput) (fee int64, err error)
}

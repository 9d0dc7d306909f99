package consensushashing

import (
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/hashes"
	"github.com/hybridchain/hcd/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// TransactionID returns the transaction id: the hash of its serialization
// without witness data.
func TransactionID(tx *externalapi.DomainTransaction) *externalapi.DomainHash {
	return transactionHash(tx, false)
}

// TransactionWitnessHash returns the hash of the full serialization,
// including witness data. It equals the transaction id when the transaction
// has no witness.
func TransactionWitnessHash(tx *externalapi.DomainTransaction) *externalapi.DomainHash {
	return transactionHash(tx, true)
}

// TransactionIDs returns the ids of all transactions in order.
func TransactionIDs(txs []*externalapi.DomainTransaction) []*externalapi.DomainHash {
	ids := make([]*externalapi.DomainHash, len(txs))
	for i, tx := range txs {
		ids[i] = TransactionID(tx)
	}
	return ids
}

func transactionHash(tx *externalapi.DomainTransaction, withWitness bool) *externalapi.DomainHash {
	writer := hashes.NewDoubleHashWriter()
	err := serialization.SerializeTransaction(writer, tx, withWitness)
	if err != nil {
		// this writer never return errors (no allocations or possible failures) so errors can only come from validity checks,
		// and we assume we never construct malformed transactions.
		panic(errors.Wrap(err, "TransactionID() failed. this should never fail for structurally-valid transactions"))
	}
	return writer.Finalize()
}

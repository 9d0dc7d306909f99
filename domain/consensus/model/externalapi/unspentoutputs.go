package externalapi

import "github.com/pkg/errors"

// UnspentOutputs is the projection of one transaction's outputs that are
// still spendable. A nil entry in Outputs is a spent output.
type UnspentOutputs struct {
	TransactionID DomainHash
	Height        uint64

	// Time is the transaction timestamp on networks whose transactions
	// carry one, and the creating block's timestamp otherwise.
	Time        uint32
	IsCoinBase  bool
	IsCoinStake bool
	Outputs     []*DomainTransactionOutput
}

// NewUnspentOutputs creates the projection of a freshly confirmed transaction.
func NewUnspentOutputs(txID *DomainHash, tx *DomainTransaction, height uint64, blockTime uint32) *UnspentOutputs {
	outputs := make([]*DomainTransactionOutput, len(tx.Outputs))
	for i, output := range tx.Outputs {
		outputs[i] = output.Clone()
	}
	time := blockTime
	if tx.HasTimestamp {
		time = tx.Timestamp
	}
	return &UnspentOutputs{
		TransactionID: *txID,
		Height:        height,
		Time:          time,
		IsCoinBase:    tx.IsCoinBase(),
		IsCoinStake:   tx.IsCoinStake(),
		Outputs:       outputs,
	}
}

// Clone returns a deep copy.
func (uo *UnspentOutputs) Clone() *UnspentOutputs {
	outputs := make([]*DomainTransactionOutput, len(uo.Outputs))
	for i, output := range uo.Outputs {
		if output != nil {
			outputs[i] = output.Clone()
		}
	}
	clone := *uo
	clone.Outputs = outputs
	return &clone
}

// Output returns the unspent output at index, or nil if it doesn't exist or
// was spent.
func (uo *UnspentOutputs) Output(index uint32) *DomainTransactionOutput {
	if uint64(index) >= uint64(len(uo.Outputs)) {
		return nil
	}
	return uo.Outputs[index]
}

// IsAvailable returns whether the output at index is unspent.
func (uo *UnspentOutputs) IsAvailable(index uint32) bool {
	return uo.Output(index) != nil
}

// Spend marks the output at index as spent and returns it. Spending a missing
// or already spent output fails.
func (uo *UnspentOutputs) Spend(index uint32) (*DomainTransactionOutput, error) {
	output := uo.Output(index)
	if output == nil {
		return nil, errors.Errorf("output %d of %s is missing or already spent", index, uo.TransactionID)
	}
	uo.Outputs[index] = nil
	return output, nil
}

// UnspentCount returns the number of outputs not yet spent.
func (uo *UnspentOutputs) UnspentCount() int {
	count := 0
	for _, output := range uo.Outputs {
		if output != nil {
			count++
		}
	}
	return count
}

// IsPrunable returns whether every output is spent.
func (uo *UnspentOutputs) IsPrunable() bool {
	return uo.UnspentCount() == 0
}

package externalapi

import (
	"fmt"
	"math"
)

// MaxPrevOutIndex is the previous output index used by the coinbase input.
const MaxPrevOutIndex uint32 = math.MaxUint32

// DomainTransaction represents a transaction inside a block.
type DomainTransaction struct {
	Version int32

	// Timestamp is only meaningful when HasTimestamp is set. Legacy
	// proof-of-stake networks carry a time field on every transaction.
	Timestamp    uint32
	HasTimestamp bool

	Inputs   []*DomainTransactionInput
	Outputs  []*DomainTransactionOutput
	LockTime uint32
}

// Clone returns a deep copy of the transaction.
func (tx *DomainTransaction) Clone() *DomainTransaction {
	inputsClone := make([]*DomainTransactionInput, len(tx.Inputs))
	for i, input := range tx.Inputs {
		inputsClone[i] = input.Clone()
	}
	outputsClone := make([]*DomainTransactionOutput, len(tx.Outputs))
	for i, output := range tx.Outputs {
		outputsClone[i] = output.Clone()
	}
	return &DomainTransaction{
		Version:      tx.Version,
		Timestamp:    tx.Timestamp,
		HasTimestamp: tx.HasTimestamp,
		Inputs:       inputsClone,
		Outputs:      outputsClone,
		LockTime:     tx.LockTime,
	}
}

// IsCoinBase determines whether or not a transaction is a coinbase. A coinbase
// has exactly one input whose previous outpoint has a zero transaction id and
// the maximum index.
func (tx *DomainTransaction) IsCoinBase() bool {
	if len(tx.Inputs) != 1 {
		return false
	}
	prevOut := tx.Inputs[0].PreviousOutpoint
	return prevOut.Index == MaxPrevOutIndex && prevOut.TransactionID == ZeroHash
}

// IsCoinStake determines whether or not a transaction is a coinstake. A
// coinstake spends at least one real output and its first output is empty.
func (tx *DomainTransaction) IsCoinStake() bool {
	if len(tx.Inputs) == 0 || tx.Inputs[0].PreviousOutpoint.IsNull() {
		return false
	}
	return len(tx.Outputs) >= 2 && tx.Outputs[0].IsEmpty()
}

// HasWitness returns whether any input carries witness data.
func (tx *DomainTransaction) HasWitness() bool {
	for _, input := range tx.Inputs {
		if len(input.Witness) > 0 {
			return true
		}
	}
	return false
}

// TotalOut returns the sum of all output values. The caller is responsible for
// range checking the individual values beforehand.
func (tx *DomainTransaction) TotalOut() int64 {
	var total int64
	for _, output := range tx.Outputs {
		total += output.Value
	}
	return total
}

// DomainTransactionInput represents a transaction input.
type DomainTransactionInput struct {
	PreviousOutpoint DomainOutpoint
	SignatureScript  []byte
	Sequence         uint32
	Witness          [][]byte
}

// Clone returns a deep copy of the input.
func (input *DomainTransactionInput) Clone() *DomainTransactionInput {
	signatureScriptClone := make([]byte, len(input.SignatureScript))
	copy(signatureScriptClone, input.SignatureScript)

	var witnessClone [][]byte
	if input.Witness != nil {
		witnessClone = make([][]byte, len(input.Witness))
		for i, item := range input.Witness {
			witnessClone[i] = append([]byte(nil), item...)
		}
	}

	return &DomainTransactionInput{
		PreviousOutpoint: input.PreviousOutpoint,
		SignatureScript:  signatureScriptClone,
		Sequence:         input.Sequence,
		Witness:          witnessClone,
	}
}

// DomainOutpoint represents a transaction output location.
type DomainOutpoint struct {
	TransactionID DomainHash
	Index         uint32
}

// NewDomainOutpoint instantiates a new DomainOutpoint with the given id and index
func NewDomainOutpoint(id *DomainHash, index uint32) *DomainOutpoint {
	return &DomainOutpoint{
		TransactionID: *id,
		Index:         index,
	}
}

// IsNull returns whether the outpoint is the one used by coinbase inputs.
func (op *DomainOutpoint) IsNull() bool {
	return op.Index == MaxPrevOutIndex && op.TransactionID == ZeroHash
}

// String stringifies an outpoint.
func (op DomainOutpoint) String() string {
	return fmt.Sprintf("(%s: %d)", op.TransactionID, op.Index)
}

// DomainTransactionOutput represents a transaction output.
type DomainTransactionOutput struct {
	Value           int64
	ScriptPublicKey []byte
}

// Clone returns a deep copy of the output.
func (output *DomainTransactionOutput) Clone() *DomainTransactionOutput {
	scriptPublicKeyClone := make([]byte, len(output.ScriptPublicKey))
	copy(scriptPublicKeyClone, output.ScriptPublicKey)
	return &DomainTransactionOutput{
		Value:           output.Value,
		ScriptPublicKey: scriptPublicKeyClone,
	}
}

// IsEmpty returns whether the output has no value and no script. Coinstake
// transactions mark themselves with an empty first output.
func (output *DomainTransactionOutput) IsEmpty() bool {
	return output.Value == 0 && len(output.ScriptPublicKey) == 0
}

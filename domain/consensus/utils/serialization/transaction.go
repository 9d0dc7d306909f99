package serialization

import (
	"io"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

const (
	witnessMarker = 0x00
	witnessFlag   = 0x01

	// minTxInputSize is the smallest serialized input: outpoint, empty script
	// and sequence.
	minTxInputSize = 32 + 4 + 1 + 4

	// minTxOutputSize is the smallest serialized output: value and empty
	// script.
	minTxOutputSize = 8 + 1

	maxWitnessItemsPerInput = 500000
	maxWitnessItemSize      = 11000
)

// Options describe network specific parts of the wire format.
type Options struct {
	// TransactionsHaveTimestamp is set on networks whose transactions carry
	// a timestamp after the version.
	TransactionsHaveTimestamp bool

	// BlocksHaveSignature is set on networks whose blocks carry a block
	// signature after the transactions.
	BlocksHaveSignature bool
}

// SerializeTransaction writes tx in wire format. The witness encoding is
// used when withWitness is set and the transaction has witness data.
func SerializeTransaction(w io.Writer, tx *externalapi.DomainTransaction, withWitness bool) error {
	if err := WriteElement(w, tx.Version); err != nil {
		return err
	}
	if tx.HasTimestamp {
		if err := WriteElement(w, tx.Timestamp); err != nil {
			return err
		}
	}

	doWitness := withWitness && tx.HasWitness()
	if doWitness {
		if err := WriteElements(w, uint8(witnessMarker), uint8(witnessFlag)); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(tx.Inputs))); err != nil {
		return err
	}
	for _, input := range tx.Inputs {
		err := WriteElements(w, input.PreviousOutpoint.TransactionID, input.PreviousOutpoint.Index)
		if err != nil {
			return err
		}
		if err := WriteVarBytes(w, input.SignatureScript); err != nil {
			return err
		}
		if err := WriteElement(w, input.Sequence); err != nil {
			return err
		}
	}

	if err := WriteVarInt(w, uint64(len(tx.Outputs))); err != nil {
		return err
	}
	for _, output := range tx.Outputs {
		if err := WriteElement(w, output.Value); err != nil {
			return err
		}
		if err := WriteVarBytes(w, output.ScriptPublicKey); err != nil {
			return err
		}
	}

	if doWitness {
		for _, input := range tx.Inputs {
			if err := WriteVarInt(w, uint64(len(input.Witness))); err != nil {
				return err
			}
			for _, item := range input.Witness {
				if err := WriteVarBytes(w, item); err != nil {
					return err
				}
			}
		}
	}

	return WriteElement(w, tx.LockTime)
}

// DeserializeTransaction reads a transaction in wire format, with or without
// witness encoding.
func DeserializeTransaction(r io.Reader, options *Options) (*externalapi.DomainTransaction, error) {
	tx := &externalapi.DomainTransaction{}
	if err := ReadElement(r, &tx.Version); err != nil {
		return nil, err
	}
	if options.TransactionsHaveTimestamp {
		if err := ReadElement(r, &tx.Timestamp); err != nil {
			return nil, err
		}
		tx.HasTimestamp = true
	}

	inputCount, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	// A zero input count followed by the witness flag introduces the witness
	// encoding.
	hasWitness := false
	if inputCount == witnessMarker {
		var flag uint8
		if err := ReadElement(r, &flag); err != nil {
			return nil, err
		}
		if flag != witnessFlag {
			return nil, errors.Wrapf(errMalformed, "witness tx but flag byte is %x", flag)
		}
		hasWitness = true
		inputCount, err = ReadVarInt(r)
		if err != nil {
			return nil, err
		}
	}

	if inputCount > MaxVarBytesLength/minTxInputSize {
		return nil, errors.Wrapf(errMalformed, "too many inputs to fit into max message size "+
			"[count %d]", inputCount)
	}
	tx.Inputs = make([]*externalapi.DomainTransactionInput, inputCount)
	for i := range tx.Inputs {
		input := &externalapi.DomainTransactionInput{}
		err := ReadElements(r, &input.PreviousOutpoint.TransactionID, &input.PreviousOutpoint.Index)
		if err != nil {
			return nil, err
		}
		input.SignatureScript, err = ReadVarBytes(r, MaxVarBytesLength, "signature script")
		if err != nil {
			return nil, err
		}
		if err := ReadElement(r, &input.Sequence); err != nil {
			return nil, err
		}
		tx.Inputs[i] = input
	}

	outputCount, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if outputCount > MaxVarBytesLength/minTxOutputSize {
		return nil, errors.Wrapf(errMalformed, "too many outputs to fit into max message size "+
			"[count %d]", outputCount)
	}
	tx.Outputs = make([]*externalapi.DomainTransactionOutput, outputCount)
	for i := range tx.Outputs {
		output := &externalapi.DomainTransactionOutput{}
		if err := ReadElement(r, &output.Value); err != nil {
			return nil, err
		}
		output.ScriptPublicKey, err = ReadVarBytes(r, MaxVarBytesLength, "script public key")
		if err != nil {
			return nil, err
		}
		tx.Outputs[i] = output
	}

	if hasWitness {
		for _, input := range tx.Inputs {
			itemCount, err := ReadVarInt(r)
			if err != nil {
				return nil, err
			}
			if itemCount > maxWitnessItemsPerInput {
				return nil, errors.Wrapf(errMalformed, "too many witness items to fit into max message size "+
					"[count %d, max %d]", itemCount, maxWitnessItemsPerInput)
			}
			input.Witness = make([][]byte, itemCount)
			for j := range input.Witness {
				input.Witness[j], err = ReadVarBytes(r, maxWitnessItemSize, "script witness item")
				if err != nil {
					return nil, err
				}
			}
		}
	}

	if err := ReadElement(r, &tx.LockTime); err != nil {
		return nil, err
	}
	return tx, nil
}

// TransactionSerializeSize returns the number of bytes SerializeTransaction
// writes for tx.
func TransactionSerializeSize(tx *externalapi.DomainTransaction, withWitness bool) int {
	size := 4 + 4 // version and lock time
	if tx.HasTimestamp {
		size += 4
	}
	doWitness := withWitness && tx.HasWitness()
	if doWitness {
		size += 2
	}

	size += VarIntSerializeSize(uint64(len(tx.Inputs)))
	for _, input := range tx.Inputs {
		size += 32 + 4 + 4 + VarBytesSerializeSize(input.SignatureScript)
	}
	size += VarIntSerializeSize(uint64(len(tx.Outputs)))
	for _, output := range tx.Outputs {
		size += 8 + VarBytesSerializeSize(output.ScriptPublicKey)
	}

	if doWitness {
		for _, input := range tx.Inputs {
			size += VarIntSerializeSize(uint64(len(input.Witness)))
			for _, item := range input.Witness {
				size += VarBytesSerializeSize(item)
			}
		}
	}
	return size
}

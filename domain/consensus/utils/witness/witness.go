// Package witness creates and validates the segregated witness commitment a
// block's coinbase makes to the witness data of its transactions.
package witness

import (
	"bytes"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/hashes"
	"github.com/hybridchain/hcd/domain/consensus/utils/merkle"
	"github.com/hybridchain/hcd/domain/consensus/utils/txscript"
	"github.com/pkg/errors"
)

// NonceSize is the size of the witness reserved value carried by the coinbase.
const NonceSize = externalapi.DomainHashSize

// FindCommitment returns the witness commitment of block. When inCoinbaseScript
// is set the commitment is searched in the coinbase input script, otherwise
// the last coinbase output carrying one wins.
func FindCommitment(block *externalapi.DomainBlock, inCoinbaseScript bool) ([]byte, bool) {
	if len(block.Transactions) == 0 {
		return nil, false
	}
	coinbase := block.Transactions[0]

	if inCoinbaseScript {
		if len(coinbase.Inputs) == 0 {
			return nil, false
		}
		return txscript.FindWitnessCommitmentInScript(coinbase.Inputs[0].SignatureScript)
	}

	for i := len(coinbase.Outputs) - 1; i >= 0; i-- {
		commitment, ok := txscript.ExtractWitnessCommitment(coinbase.Outputs[i].ScriptPublicKey)
		if ok {
			return commitment, true
		}
	}
	return nil, false
}

// ComputeCommitment returns dSHA256(witnessRoot || nonce) for block.
func ComputeCommitment(block *externalapi.DomainBlock, nonce []byte) *externalapi.DomainHash {
	witnessRoot, _ := merkle.BlockWitnessMerkleRoot(block)
	return hashes.DoubleHash(witnessRoot[:], nonce)
}

// Validate checks the witness data of block. With the witness deployment
// inactive, or without a commitment, no transaction may carry witness data.
func Validate(block *externalapi.DomainBlock, witnessActive bool, inCoinbaseScript bool) error {
	if witnessActive {
		commitment, found := FindCommitment(block, inCoinbaseScript)
		if found {
			coinbaseWitness := block.Transactions[0].Inputs[0].Witness
			if len(coinbaseWitness) != 1 || len(coinbaseWitness[0]) != NonceSize {
				return errors.Wrapf(ruleerrors.ErrBadWitnessNonceSize,
					"the coinbase witness must be a single %d byte item, got %d items", NonceSize, len(coinbaseWitness))
			}

			expected := ComputeCommitment(block, coinbaseWitness[0])
			if !bytes.Equal(expected[:], commitment) {
				return errors.Wrapf(ruleerrors.ErrBadWitnessMerkleMatch,
					"witness commitment %x doesn't match the computed %x", commitment, expected[:])
			}
			return nil
		}
	}

	for _, tx := range block.Transactions {
		if tx.HasWitness() {
			return errors.Wrapf(ruleerrors.ErrUnexpectedWitness, "block has no witness commitment")
		}
	}
	return nil
}

// CreateCommitment sets nonce as the coinbase witness and adds the matching
// commitment to the coinbase, either as a zero value output or appended to the
// coinbase input script. The caller must recompute the header merkle root
// afterwards.
func CreateCommitment(block *externalapi.DomainBlock, nonce []byte, inCoinbaseScript bool) ([]byte, error) {
	if len(block.Transactions) == 0 || !block.Transactions[0].IsCoinBase() {
		return nil, errors.New("block has no coinbase to commit in")
	}
	if len(nonce) != NonceSize {
		return nil, errors.Errorf("witness nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}

	coinbase := block.Transactions[0]
	coinbase.Inputs[0].Witness = [][]byte{append([]byte(nil), nonce...)}

	commitment := ComputeCommitment(block, nonce)
	script := txscript.WitnessCommitmentScript(commitment[:])
	if inCoinbaseScript {
		coinbase.Inputs[0].SignatureScript = append(coinbase.Inputs[0].SignatureScript, script...)
	} else {
		coinbase.Outputs = append(coinbase.Outputs, &externalapi.DomainTransactionOutput{
			Value:           0,
			ScriptPublicKey: script,
		})
	}
	return script, nil
}

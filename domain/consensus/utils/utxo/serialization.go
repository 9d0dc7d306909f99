package utxo

import (
	"bytes"
	"io"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

const (
	flagCoinBase  = 1 << 0
	flagCoinStake = 1 << 1
)

// SerializeUnspentOutputs returns the storage representation of coins. Spent
// outputs keep their position so output indexes stay stable.
func SerializeUnspentOutputs(coins *externalapi.UnspentOutputs) ([]byte, error) {
	w := &bytes.Buffer{}

	err := serialization.WriteElements(w, coins.Height, coins.Time, coinFlags(coins.IsCoinBase, coins.IsCoinStake))
	if err != nil {
		return nil, err
	}

	err = serialization.WriteVarInt(w, uint64(len(coins.Outputs)))
	if err != nil {
		return nil, err
	}
	for _, output := range coins.Outputs {
		if output == nil {
			err = serialization.WriteElement(w, uint8(0))
			if err != nil {
				return nil, err
			}
			continue
		}
		err = serialization.WriteElements(w, uint8(1), output.Value)
		if err != nil {
			return nil, err
		}
		err = serialization.WriteVarBytes(w, output.ScriptPublicKey)
		if err != nil {
			return nil, err
		}
	}

	return w.Bytes(), nil
}

// DeserializeUnspentOutputs parses the output of SerializeUnspentOutputs.
func DeserializeUnspentOutputs(txID *externalapi.DomainHash, coinsBytes []byte) (*externalapi.UnspentOutputs, error) {
	r := bytes.NewReader(coinsBytes)

	coins := &externalapi.UnspentOutputs{TransactionID: *txID}
	var flags uint8
	err := serialization.ReadElements(r, &coins.Height, &coins.Time, &flags)
	if err != nil {
		return nil, err
	}
	coins.IsCoinBase = flags&flagCoinBase != 0
	coins.IsCoinStake = flags&flagCoinStake != 0

	count, err := serialization.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > uint64(len(coinsBytes)) {
		return nil, errors.Errorf("output count %d exceeds the serialized size", count)
	}

	coins.Outputs = make([]*externalapi.DomainTransactionOutput, count)
	for i := range coins.Outputs {
		var present uint8
		err = serialization.ReadElement(r, &present)
		if err != nil {
			return nil, err
		}
		if present == 0 {
			continue
		}
		output := &externalapi.DomainTransactionOutput{}
		err = serialization.ReadElement(r, &output.Value)
		if err != nil {
			return nil, err
		}
		output.ScriptPublicKey, err = serialization.ReadVarBytes(r, serialization.MaxVarBytesLength, "script public key")
		if err != nil {
			return nil, err
		}
		coins.Outputs[i] = output
	}

	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after unspent outputs of %s", r.Len(), txID)
	}
	return coins, nil
}

// SerializeCoin returns the multiset element of a single unspent output.
func SerializeCoin(outpoint *externalapi.DomainOutpoint, output *externalapi.DomainTransactionOutput,
	height uint64, isCoinBase, isCoinStake bool) []byte {

	w := &bytes.Buffer{}
	// Writes to a bytes.Buffer never fail.
	_ = serializeOutpoint(w, outpoint)
	_ = serialization.WriteElements(w, height, coinFlags(isCoinBase, isCoinStake), output.Value)
	_ = serialization.WriteVarBytes(w, output.ScriptPublicKey)
	return w.Bytes()
}

func serializeOutpoint(w io.Writer, outpoint *externalapi.DomainOutpoint) error {
	return serialization.WriteElements(w, outpoint.TransactionID, outpoint.Index)
}

func coinFlags(isCoinBase, isCoinStake bool) uint8 {
	var flags uint8
	if isCoinBase {
		flags |= flagCoinBase
	}
	if isCoinStake {
		flags |= flagCoinStake
	}
	return flags
}

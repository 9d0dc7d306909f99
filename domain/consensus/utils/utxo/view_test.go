package utxo

import (
	"context"
	"testing"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeCoinStore struct {
	coins   map[externalapi.DomainHash]*externalapi.UnspentOutputs
	fetches int
	err     error
}

func (s *fakeCoinStore) FetchCoins(_ context.Context, txIDs []*externalapi.DomainHash) ([]*externalapi.UnspentOutputs, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.fetches++
	result := make([]*externalapi.UnspentOutputs, len(txIDs))
	for i, txID := range txIDs {
		if coins, ok := s.coins[*txID]; ok {
			result[i] = coins.Clone()
		}
	}
	return result, nil
}

func (s *fakeCoinStore) TipHash(context.Context) (*externalapi.DomainHash, error) {
	return &externalapi.ZeroHash, nil
}

func (s *fakeCoinStore) ApplyDelta(context.Context, *externalapi.UTXODelta) error {
	return nil
}

func testTransaction(values ...int64) *externalapi.DomainTransaction {
	tx := &externalapi.DomainTransaction{
		Version: 1,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{TransactionID: externalapi.DomainHash{9}, Index: 0},
		}},
	}
	for _, value := range values {
		tx.Outputs = append(tx.Outputs, &externalapi.DomainTransactionOutput{Value: value, ScriptPublicKey: []byte{0x51}})
	}
	return tx
}

func TestViewSpendAndDelta(t *testing.T) {
	existingID := externalapi.DomainHash{1}
	store := &fakeCoinStore{coins: map[externalapi.DomainHash]*externalapi.UnspentOutputs{
		existingID: externalapi.NewUnspentOutputs(&existingID, testTransaction(10, 20), 5, 1000),
	}}
	view := NewView(store)
	ctx := context.Background()

	unknownID := externalapi.DomainHash{2}
	require.NoError(t, view.LoadCoins(ctx, []*externalapi.DomainHash{&existingID, &unknownID, &existingID}))
	require.Equal(t, 1, store.fetches)
	require.NoError(t, view.LoadCoins(ctx, []*externalapi.DomainHash{&existingID}))
	require.Equal(t, 1, store.fetches, "loaded coins should not be fetched again")

	require.True(t, view.HaveCoins(&existingID))
	require.False(t, view.HaveCoins(&unknownID))

	outpoint := externalapi.NewDomainOutpoint(&existingID, 1)
	coins, output := view.Output(outpoint)
	require.NotNil(t, coins)
	require.Equal(t, int64(20), output.Value)

	spent, err := view.Spend(outpoint)
	require.NoError(t, err)
	require.Equal(t, uint64(5), spent.Height)
	require.Equal(t, int64(20), spent.Output.Value)

	_, err = view.Spend(outpoint)
	require.Error(t, err, "double spend must fail")
	_, err = view.Spend(externalapi.NewDomainOutpoint(&unknownID, 0))
	require.Error(t, err, "spending an unknown transaction must fail")

	newTx := testTransaction(7)
	newID := externalapi.DomainHash{3}
	view.AddTransaction(&newID, newTx, 6, 2000)

	delta := view.Delta(&externalapi.DomainHash{0xaa}, &externalapi.DomainHash{0xbb}, 6)
	require.Equal(t, uint64(6), delta.Height)
	require.Len(t, delta.Spent, 1)
	require.Len(t, delta.Updated, 2)
	require.Equal(t, existingID, delta.Updated[0].TransactionID)
	require.Nil(t, delta.Updated[0].Outputs[1])
	require.NotNil(t, delta.Updated[0].Outputs[0])
	require.Equal(t, newID, delta.Updated[1].TransactionID)
	require.Equal(t, uint32(2000), delta.Updated[1].Time)

	// The store's copy must not be affected by the view.
	require.NotNil(t, store.coins[existingID].Outputs[1])
}

func TestViewStorageError(t *testing.T) {
	storageErr := errors.New("disk on fire")
	view := NewView(&fakeCoinStore{err: storageErr})
	err := view.LoadCoins(context.Background(), []*externalapi.DomainHash{{1}})
	require.ErrorIs(t, err, storageErr)
}

func TestUnspentOutputsSerialization(t *testing.T) {
	txID := externalapi.DomainHash{4}
	tx := testTransaction(1, 2, 3)
	tx.HasTimestamp = true
	tx.Timestamp = 1234
	coins := externalapi.NewUnspentOutputs(&txID, tx, 77, 999)
	coins.IsCoinStake = true
	_, err := coins.Spend(1)
	require.NoError(t, err)

	serialized, err := SerializeUnspentOutputs(coins)
	require.NoError(t, err)
	deserialized, err := DeserializeUnspentOutputs(&txID, serialized)
	require.NoError(t, err)
	require.Equal(t, coins, deserialized)

	_, err = DeserializeUnspentOutputs(&txID, append(serialized, 0))
	require.Error(t, err, "trailing bytes must be rejected")
	_, err = DeserializeUnspentOutputs(&txID, serialized[:len(serialized)-1])
	require.Error(t, err, "truncated data must be rejected")
}

func TestSerializeCoinDistinguishesOutpoints(t *testing.T) {
	output := &externalapi.DomainTransactionOutput{Value: 5, ScriptPublicKey: []byte{0x51}}
	first := SerializeCoin(externalapi.NewDomainOutpoint(&externalapi.DomainHash{1}, 0), output, 1, true, false)
	second := SerializeCoin(externalapi.NewDomainOutpoint(&externalapi.DomainHash{1}, 1), output, 1, true, false)
	require.NotEqual(t, first, second)
}

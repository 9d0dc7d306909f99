package coinstore_test

import (
	"context"
	"testing"

	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/hybridchain/hcd/domain/consensus/datastructures/coinstore"
	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hcd/domain/consensus/utils/multiset"
	"github.com/hybridchain/hcd/domain/consensus/utils/testutils"
	"github.com/hybridchain/hcd/domain/consensus/utils/utxo"
	"github.com/hybridchain/hcd/infrastructure/db/database/ldb"
	"github.com/stretchr/testify/require"
)

// committingStore is a coin store that exposes its set commitment.
type committingStore interface {
	model.CoinStore
	Commitment() *externalapi.DomainHash
}

var genesisHash = chaincfg.PowRegtestParams.GenesisHash

func openLevelDBStore(t *testing.T, path string) (*coinstore.Store, func()) {
	db, err := ldb.NewLevelDB(path, 8)
	require.NoError(t, err)
	store, err := coinstore.New(db, genesisHash)
	require.NoError(t, err)
	return store, func() { require.NoError(t, db.Close()) }
}

func forAllStores(t *testing.T, testFunc func(t *testing.T, store committingStore)) {
	t.Run("leveldb", func(t *testing.T) {
		store, teardown := openLevelDBStore(t, t.TempDir())
		defer teardown()
		testFunc(t, store)
	})
	t.Run("memory", func(t *testing.T) {
		testFunc(t, coinstore.NewMemoryStore(genesisHash))
	})
}

// chainBuilder produces deltas of consecutive blocks over a store.
type chainBuilder struct {
	t      *testing.T
	store  model.CoinStore
	params *chaincfg.Params
	tip    externalapi.DomainHash
	height uint64
}

func newChainBuilder(t *testing.T, store model.CoinStore) *chainBuilder {
	return &chainBuilder{t: t, store: store, params: &chaincfg.PowRegtestParams, tip: *genesisHash}
}

// connect applies a block holding txs and returns its delta.
func (b *chainBuilder) connect(txs ...*externalapi.DomainTransaction) *externalapi.UTXODelta {
	delta := b.delta(txs...)
	require.NoError(b.t, b.store.ApplyDelta(context.Background(), delta))
	b.tip = delta.NewTip
	b.height = delta.Height
	return delta
}

func (b *chainBuilder) delta(txs ...*externalapi.DomainTransaction) *externalapi.UTXODelta {
	ctx := context.Background()
	height := b.height + 1
	view := utxo.NewView(b.store)

	var ids []*externalapi.DomainHash
	for _, tx := range txs {
		for _, input := range tx.Inputs {
			if !tx.IsCoinBase() {
				ids = append(ids, &input.PreviousOutpoint.TransactionID)
			}
		}
	}
	require.NoError(b.t, view.LoadCoins(ctx, ids))

	for _, tx := range txs {
		if !tx.IsCoinBase() {
			for _, input := range tx.Inputs {
				_, err := view.Spend(&input.PreviousOutpoint)
				require.NoError(b.t, err)
			}
		}
		view.AddTransaction(consensushashing.TransactionID(tx), tx, height, uint32(height)*600)
	}
	newTip := externalapi.DomainHash{byte(height), 0xbb}
	return view.Delta(&b.tip, &newTip, height)
}

func (b *chainBuilder) coinbase(values ...int64) *externalapi.DomainTransaction {
	outputs := make([]*externalapi.DomainTransactionOutput, len(values))
	for i, value := range values {
		outputs[i] = testutils.OpTrueOutput(value)
	}
	return testutils.Coinbase(b.params, b.height+1, 0, 0, outputs...)
}

func fetchOne(t *testing.T, store model.CoinStore, txID *externalapi.DomainHash) *externalapi.UnspentOutputs {
	coins, err := store.FetchCoins(context.Background(), []*externalapi.DomainHash{txID})
	require.NoError(t, err)
	require.Len(t, coins, 1)
	return coins[0]
}

// expectedCommitment recomputes the multiset of every listed transaction's
// unspent outputs from scratch.
func expectedCommitment(t *testing.T, store model.CoinStore, txIDs ...*externalapi.DomainHash) *externalapi.DomainHash {
	ms := multiset.New()
	coins, err := store.FetchCoins(context.Background(), txIDs)
	require.NoError(t, err)
	for _, entry := range coins {
		if entry == nil {
			continue
		}
		for i, output := range entry.Outputs {
			if output == nil {
				continue
			}
			outpoint := externalapi.DomainOutpoint{TransactionID: entry.TransactionID, Index: uint32(i)}
			ms.Add(utxo.SerializeCoin(&outpoint, output, entry.Height, entry.IsCoinBase, entry.IsCoinStake))
		}
	}
	return ms.Hash()
}

func TestApplyDelta(t *testing.T) {
	forAllStores(t, func(t *testing.T, store committingStore) {
		ctx := context.Background()
		builder := newChainBuilder(t, store)
		emptyCommitment := store.Commitment()

		tip, err := store.TipHash(ctx)
		require.NoError(t, err)
		require.Equal(t, *genesisHash, *tip)

		coinbase := builder.coinbase(10, 20)
		coinbaseID := consensushashing.TransactionID(coinbase)
		builder.connect(coinbase)

		coins := fetchOne(t, store, coinbaseID)
		require.NotNil(t, coins)
		require.True(t, coins.IsCoinBase)
		require.Equal(t, uint64(1), coins.Height)
		require.Equal(t, int64(20), coins.Output(1).Value)
		require.Equal(t, expectedCommitment(t, store, coinbaseID), store.Commitment())
		require.NotEqual(t, emptyCommitment, store.Commitment())

		// Spend the first output and create a new transaction in the same
		// block as a transaction spending it.
		spend := testutils.Spend(builder.params, 9, 0, &externalapi.DomainOutpoint{TransactionID: *coinbaseID, Index: 0})
		spendID := consensushashing.TransactionID(spend)
		chained := testutils.Spend(builder.params, 8, 0, &externalapi.DomainOutpoint{TransactionID: *spendID, Index: 0})
		chainedID := consensushashing.TransactionID(chained)
		secondCoinbase := builder.coinbase(1)
		secondCoinbaseID := consensushashing.TransactionID(secondCoinbase)
		builder.connect(secondCoinbase, spend, chained)

		coins = fetchOne(t, store, coinbaseID)
		require.NotNil(t, coins)
		require.Nil(t, coins.Output(0))
		require.NotNil(t, coins.Output(1))
		require.Nil(t, fetchOne(t, store, spendID), "a transaction spent in its own block is not stored")
		require.NotNil(t, fetchOne(t, store, chainedID))
		require.Equal(t,
			expectedCommitment(t, store, coinbaseID, spendID, chainedID, secondCoinbaseID),
			store.Commitment())

		// Spending the last output deletes the transaction.
		builder.connect(builder.coinbase(1),
			testutils.Spend(builder.params, 19, 0, &externalapi.DomainOutpoint{TransactionID: *coinbaseID, Index: 1}))
		require.Nil(t, fetchOne(t, store, coinbaseID))

		tip, err = store.TipHash(ctx)
		require.NoError(t, err)
		require.Equal(t, builder.tip, *tip)
	})
}

func TestApplyDeltaOnWrongTip(t *testing.T) {
	forAllStores(t, func(t *testing.T, store committingStore) {
		builder := newChainBuilder(t, store)
		delta := builder.delta(builder.coinbase(1))
		delta.OldTip = externalapi.DomainHash{0xee}

		err := store.ApplyDelta(context.Background(), delta)
		require.Error(t, err)

		tip, err := store.TipHash(context.Background())
		require.NoError(t, err)
		require.Equal(t, *genesisHash, *tip)
	})
}

func TestStoresAgreeOnCommitment(t *testing.T) {
	levelDBStore, teardown := openLevelDBStore(t, t.TempDir())
	defer teardown()
	memoryStore := coinstore.NewMemoryStore(genesisHash)

	levelDBBuilder := newChainBuilder(t, levelDBStore)
	memoryBuilder := newChainBuilder(t, memoryStore)
	for i := int64(1); i <= 5; i++ {
		levelDBBuilder.connect(levelDBBuilder.coinbase(i, i*2))
		memoryBuilder.connect(memoryBuilder.coinbase(i, i*2))
	}
	require.Equal(t, memoryStore.Commitment(), levelDBStore.Commitment())
	require.Equal(t, 5, memoryStore.Len())
}

func TestStoreReopen(t *testing.T) {
	path := t.TempDir()
	store, teardown := openLevelDBStore(t, path)
	builder := newChainBuilder(t, store)
	coinbase := builder.coinbase(7)
	builder.connect(coinbase)
	commitment := store.Commitment()
	teardown()

	reopened, teardown := openLevelDBStore(t, path)
	defer teardown()
	tip, err := reopened.TipHash(context.Background())
	require.NoError(t, err)
	require.Equal(t, builder.tip, *tip)
	require.Equal(t, commitment, reopened.Commitment())
	require.NotNil(t, fetchOne(t, reopened, consensushashing.TransactionID(coinbase)))
}

func TestFetchCoinsHonorsCancellation(t *testing.T) {
	store, teardown := openLevelDBStore(t, t.TempDir())
	defer teardown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.FetchCoins(ctx, []*externalapi.DomainHash{genesisHash})
	require.ErrorIs(t, err, context.Canceled)
}

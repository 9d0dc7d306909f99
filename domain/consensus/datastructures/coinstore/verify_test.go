package coinstore_test

import (
	"context"
	"testing"

	"github.com/hybridchain/hcd/domain/consensus/datastructures/coinstore"
	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hcd/domain/consensus/utils/testutils"
	"github.com/hybridchain/hcd/domain/consensus/utils/utxo"
	"github.com/hybridchain/hcd/infrastructure/db/database"
	"github.com/hybridchain/hcd/infrastructure/db/database/ldb"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	forAllStores(t, func(t *testing.T, store committingStore) {
		ctx := context.Background()
		verifier := store.(model.CoinSetVerifier)

		stats, err := verifier.Verify(ctx)
		require.NoError(t, err)
		require.Equal(t, *genesisHash, stats.Tip)
		require.Zero(t, stats.Transactions)
		require.Equal(t, *store.Commitment(), stats.Commitment)

		builder := newChainBuilder(t, store)
		coinbase := builder.coinbase(10, 20)
		coinbaseID := consensushashing.TransactionID(coinbase)
		builder.connect(coinbase)
		builder.connect(builder.coinbase(5),
			testutils.Spend(builder.params, 9, 0, &externalapi.DomainOutpoint{TransactionID: *coinbaseID, Index: 0}))

		stats, err = verifier.Verify(ctx)
		require.NoError(t, err)
		require.Equal(t, builder.tip, stats.Tip)
		require.Equal(t, uint64(3), stats.Transactions)
		require.Equal(t, uint64(3), stats.Outputs)
		require.Equal(t, int64(20+5+9), stats.TotalValue)
		require.Equal(t, *store.Commitment(), stats.Commitment)
	})
}

func TestVerifyDetectsTamperedEntries(t *testing.T) {
	coinsBucket := database.MakeBucket([]byte("coins"))

	tests := []struct {
		name   string
		tamper func(t *testing.T, db database.Database, txID *externalapi.DomainHash)
		target error
	}{
		{
			name: "changed value",
			tamper: func(t *testing.T, db database.Database, txID *externalapi.DomainHash) {
				key := coinsBucket.Key(txID.ByteSlice())
				coinsBytes, err := db.Get(key)
				require.NoError(t, err)
				coins, err := utxo.DeserializeUnspentOutputs(txID, coinsBytes)
				require.NoError(t, err)
				coins.Outputs[0].Value++
				coinsBytes, err = utxo.SerializeUnspentOutputs(coins)
				require.NoError(t, err)
				require.NoError(t, db.Put(key, coinsBytes))
			},
			target: coinstore.ErrCommitmentMismatch,
		},
		{
			name: "deleted entry",
			tamper: func(t *testing.T, db database.Database, txID *externalapi.DomainHash) {
				require.NoError(t, db.Delete(coinsBucket.Key(txID.ByteSlice())))
			},
			target: coinstore.ErrCommitmentMismatch,
		},
		{
			name: "undecodable entry",
			tamper: func(t *testing.T, db database.Database, txID *externalapi.DomainHash) {
				require.NoError(t, db.Put(coinsBucket.Key(txID.ByteSlice()), []byte{0xff}))
			},
		},
		{
			name: "short key",
			tamper: func(t *testing.T, db database.Database, _ *externalapi.DomainHash) {
				require.NoError(t, db.Put(coinsBucket.Key([]byte{0x01, 0x02}), []byte{0x00}))
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			db, err := ldb.NewLevelDB(t.TempDir(), 8)
			require.NoError(t, err)
			defer func() { require.NoError(t, db.Close()) }()
			store, err := coinstore.New(db, genesisHash)
			require.NoError(t, err)

			builder := newChainBuilder(t, store)
			coinbase := builder.coinbase(10)
			builder.connect(coinbase)
			builder.connect(builder.coinbase(3))

			test.tamper(t, db, consensushashing.TransactionID(coinbase))
			_, err = store.Verify(context.Background())
			require.Error(t, err)
			if test.target != nil {
				require.ErrorIs(t, err, test.target)
			}
		})
	}
}

func TestVerifyFlushesCachedStore(t *testing.T) {
	ctx := context.Background()
	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()
	backing, err := coinstore.New(db, genesisHash)
	require.NoError(t, err)
	cached, err := coinstore.NewCachedCoinStore(ctx, backing, 16, 1000, 0)
	require.NoError(t, err)

	builder := newChainBuilder(t, cached)
	builder.connect(builder.coinbase(1, 2))
	require.Equal(t, 1, cached.PendingDeltas())

	stats, err := cached.Verify(ctx)
	require.NoError(t, err)
	require.Zero(t, cached.PendingDeltas())
	require.Equal(t, builder.tip, stats.Tip)
	require.Equal(t, uint64(2), stats.Outputs)
	require.Equal(t, *backing.Commitment(), stats.Commitment)

	memoryCached, err := coinstore.NewCachedCoinStore(ctx, verifierlessStore{coinstore.NewMemoryStore(genesisHash)},
		16, 1000, 0)
	require.NoError(t, err)
	_, err = memoryCached.Verify(ctx)
	require.Error(t, err)
}

// verifierlessStore hides the Verify method of the store it wraps.
type verifierlessStore struct {
	model.CoinStore
}

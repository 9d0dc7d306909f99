package database_test

import (
	"fmt"
	"testing"

	"github.com/hybridchain/hcd/infrastructure/db/database"
	"github.com/hybridchain/hcd/infrastructure/db/database/ldb"
	"github.com/stretchr/testify/require"
)

// databaseOpener opens an empty database of one implementation. The database
// is closed when the test ends.
type databaseOpener struct {
	name string
	open func(t *testing.T) database.Database
}

var databaseOpeners = []databaseOpener{
	{name: "leveldb", open: openLevelDB},
}

func openLevelDB(t *testing.T) database.Database {
	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	return db
}

// forAllDatabases runs testFunc as a subtest against every implementation.
func forAllDatabases(t *testing.T, testFunc func(t *testing.T, db database.Database)) {
	for _, opener := range databaseOpeners {
		opener := opener
		t.Run(opener.name, func(t *testing.T) {
			testFunc(t, opener.open(t))
		})
	}
}

type keyValuePair struct {
	key   *database.Key
	value []byte
}

// putCoinEntries writes count entries into the coins bucket, keyed like coin
// store records.
func putCoinEntries(t *testing.T, db database.DataAccessor, count int) []keyValuePair {
	bucket := database.MakeBucket([]byte("coins"))
	entries := make([]keyValuePair, count)
	for i := range entries {
		entries[i] = keyValuePair{
			key:   bucket.Key([]byte(fmt.Sprintf("tx%d", i))),
			value: []byte(fmt.Sprintf("outputs of tx%d", i)),
		}
		require.NoError(t, db.Put(entries[i].key, entries[i].value))
	}
	return entries
}

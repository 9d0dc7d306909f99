package coinstore

import (
	"context"
	"sync"

	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/multiset"
	"github.com/hybridchain/hcd/domain/consensus/utils/utxo"
	"github.com/hybridchain/hcd/infrastructure/db/database"
	"github.com/pkg/errors"
)

var (
	coinsBucket = database.MakeBucket([]byte("coins"))
	tipKey      = database.MakeBucket(nil).Key([]byte("coins-tip"))
	multisetKey = database.MakeBucket(nil).Key([]byte("coins-multiset"))
)

// Store is the unspent output set persisted in a database. Every delta is
// written in a single database transaction together with the new tip and
// the multiset commitment of the set.
type Store struct {
	db database.Database

	mu       sync.RWMutex
	tip      *externalapi.DomainHash
	multiset model.Multiset
}

// New opens the coin store kept in db. An empty database is initialized with
// an empty set synced to genesisHash.
func New(db database.Database, genesisHash *externalapi.DomainHash) (*Store, error) {
	store := &Store{db: db}

	tipBytes, err := db.Get(tipKey)
	if database.IsNotFoundError(err) {
		log.Infof("Initializing an empty coin store at %s", genesisHash)
		store.tip = genesisHash.Clone()
		store.multiset = multiset.New()
		err = store.writeState(db)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	if err != nil {
		return nil, err
	}

	store.tip, err = externalapi.NewDomainHashFromByteSlice(tipBytes)
	if err != nil {
		return nil, errors.Wrap(err, "corrupt coin store tip")
	}
	multisetBytes, err := db.Get(multisetKey)
	if err != nil {
		return nil, err
	}
	store.multiset, err = multiset.FromBytes(multisetBytes)
	if err != nil {
		return nil, errors.Wrap(err, "corrupt coin store multiset")
	}
	log.Debugf("Opened the coin store at tip %s", store.tip)
	return store, nil
}

// FetchCoins returns the unspent outputs of txIDs. Unknown transactions are
// nil entries.
func (s *Store) FetchCoins(ctx context.Context, txIDs []*externalapi.DomainHash) ([]*externalapi.UnspentOutputs, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	coins := make([]*externalapi.UnspentOutputs, len(txIDs))
	for i, txID := range txIDs {
		coinsBytes, err := s.db.Get(coinsBucket.Key(txID.ByteSlice()))
		if database.IsNotFoundError(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		coins[i], err = utxo.DeserializeUnspentOutputs(txID, coinsBytes)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt coins of %s", txID)
		}
	}
	return coins, nil
}

// TipHash returns the hash of the block the store is synced to.
func (s *Store) TipHash(ctx context.Context) (*externalapi.DomainHash, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tip.Clone(), nil
}

// Commitment returns the multiset hash of the unspent output set.
func (s *Store) Commitment() *externalapi.DomainHash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.multiset.Hash()
}

// ApplyDelta writes delta. The store tip must equal delta.OldTip.
func (s *Store) ApplyDelta(ctx context.Context, delta *externalapi.UTXODelta) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tip.Equal(&delta.OldTip) {
		return errors.Errorf("coin store is at %s but the delta connects %s on top of %s",
			s.tip, delta.NewTip, delta.OldTip)
	}

	dbTx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		// Rolling back a committed transaction is a no-op.
		_ = dbTx.RollbackUnlessClosed()
	}()

	for _, coins := range delta.Updated {
		key := coinsBucket.Key(coins.TransactionID.ByteSlice())
		if coins.IsPrunable() {
			err = dbTx.Delete(key)
			if err != nil {
				return err
			}
			continue
		}
		coinsBytes, err := utxo.SerializeUnspentOutputs(coins)
		if err != nil {
			return err
		}
		err = dbTx.Put(key, coinsBytes)
		if err != nil {
			return err
		}
	}

	newMultiset := s.multiset.Clone()
	applyDeltaToMultiset(newMultiset, delta)
	err = dbTx.Put(tipKey, delta.NewTip.ByteSlice())
	if err != nil {
		return err
	}
	err = dbTx.Put(multisetKey, newMultiset.Serialize())
	if err != nil {
		return err
	}
	err = dbTx.Commit()
	if err != nil {
		return err
	}

	s.tip = delta.NewTip.Clone()
	s.multiset = newMultiset
	log.Tracef("Coin store moved to %s at height %d (%d spent, %d updated)",
		s.tip, delta.Height, len(delta.Spent), len(delta.Updated))
	return nil
}

func (s *Store) writeState(dataAccessor database.DataAccessor) error {
	err := dataAccessor.Put(tipKey, s.tip.ByteSlice())
	if err != nil {
		return err
	}
	return dataAccessor.Put(multisetKey, s.multiset.Serialize())
}

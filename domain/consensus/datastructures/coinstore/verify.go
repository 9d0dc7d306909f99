package coinstore

import (
	"context"

	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/multiset"
	"github.com/hybridchain/hcd/domain/consensus/utils/utxo"
	"github.com/hybridchain/hcd/infrastructure/db/database"
	"github.com/pkg/errors"
)

// ErrCommitmentMismatch is returned by Verify when the multiset rebuilt from
// the stored entries differs from the stored commitment.
var ErrCommitmentMismatch = errors.New("coin set doesn't match its commitment")

// verifyCancelCheckInterval is the number of entries scanned between
// context checks.
const verifyCancelCheckInterval = 1 << 12

// coinSetScan accumulates the stats and the multiset of a scanned coin set.
type coinSetScan struct {
	multiset model.Multiset
	stats    externalapi.CoinSetStats
}

func newCoinSetScan() *coinSetScan {
	return &coinSetScan{multiset: multiset.New()}
}

func (s *coinSetScan) add(ctx context.Context, coins *externalapi.UnspentOutputs) error {
	if s.stats.Transactions%verifyCancelCheckInterval == 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	if coins.IsPrunable() {
		return errors.Errorf("stored coins of %s hold no unspent outputs", coins.TransactionID)
	}

	s.stats.Transactions++
	for _, output := range coins.Outputs {
		if output == nil {
			continue
		}
		s.stats.Outputs++
		s.stats.TotalValue += output.Value
	}
	addCoinsToMultiset(s.multiset, coins)
	return nil
}

func (s *coinSetScan) finish(tip *externalapi.DomainHash, committed model.Multiset) (*externalapi.CoinSetStats, error) {
	s.stats.Tip = *tip
	s.stats.Commitment = *s.multiset.Hash()
	stats := s.stats

	expected := committed.Hash()
	if !expected.Equal(&stats.Commitment) {
		return &stats, errors.Wrapf(ErrCommitmentMismatch, "stored commitment is %s, entries hash to %s",
			expected, stats.Commitment)
	}
	return &stats, nil
}

// Verify walks every coin entry in the database, checks that it decodes and
// that the entries hash to the stored multiset commitment. Deltas are held
// off until the scan is done.
func (s *Store) Verify(ctx context.Context) (*externalapi.CoinSetStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cursor, err := s.db.Cursor(coinsBucket)
	if err != nil {
		return nil, err
	}
	scan, err := scanCoinsBucket(ctx, cursor)
	closeErr := cursor.Close()
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, closeErr
	}

	stats, err := scan.finish(s.tip, s.multiset)
	if err != nil {
		return stats, err
	}
	log.Debugf("Verified the coin store: %s", stats)
	return stats, nil
}

func scanCoinsBucket(ctx context.Context, cursor database.Cursor) (*coinSetScan, error) {
	scan := newCoinSetScan()
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		txID, err := externalapi.NewDomainHashFromByteSlice(key.Suffix())
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt coin key %s", key)
		}
		coinsBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		coins, err := utxo.DeserializeUnspentOutputs(txID, coinsBytes)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt coins of %s", txID)
		}
		err = scan.add(ctx, coins)
		if err != nil {
			return nil, err
		}
	}
	return scan, nil
}

// Verify checks the in-memory entries against the multiset commitment.
func (s *MemoryStore) Verify(ctx context.Context) (*externalapi.CoinSetStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scan := newCoinSetScan()
	for _, coins := range s.coins {
		err := scan.add(ctx, coins)
		if err != nil {
			return nil, err
		}
	}
	return scan.finish(s.tip, s.multiset)
}

// Verify flushes the pending deltas and verifies the backing store.
func (s *CachedCoinStore) Verify(ctx context.Context) (*externalapi.CoinSetStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	verifier, ok := s.backing.(model.CoinSetVerifier)
	if !ok {
		return nil, errors.Errorf("the backing coin store %T can't be verified", s.backing)
	}
	err := s.flush(ctx)
	if err != nil {
		return nil, err
	}
	return verifier.Verify(ctx)
}

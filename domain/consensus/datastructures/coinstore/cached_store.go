package coinstore

import (
	"context"
	"sync"
	"time"

	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/utxolrucache"
	"github.com/pkg/errors"
)

// CachedCoinStore is a write-back cache in front of another coin store.
// Deltas are kept in memory and written to the backing store in order once
// the number of dirty entries reaches maxDirty, or flushInterval has passed
// since the last flush.
type CachedCoinStore struct {
	backing model.CoinStore

	mu      sync.Mutex
	clean   *utxolrucache.LRUCache
	dirty   map[externalapi.DomainHash]*externalapi.UnspentOutputs
	pending []*externalapi.UTXODelta
	tip     *externalapi.DomainHash

	maxDirty      int
	flushInterval time.Duration
	lastFlush     time.Time
}

// NewCachedCoinStore wraps backing. A zero flushInterval disables the time
// based flush.
func NewCachedCoinStore(ctx context.Context, backing model.CoinStore, cacheSize, maxDirty int,
	flushInterval time.Duration) (*CachedCoinStore, error) {

	initPrometheusMetrics()

	tip, err := backing.TipHash(ctx)
	if err != nil {
		return nil, err
	}
	return &CachedCoinStore{
		backing:       backing,
		clean:         utxolrucache.New(cacheSize),
		dirty:         make(map[externalapi.DomainHash]*externalapi.UnspentOutputs),
		tip:           tip,
		maxDirty:      maxDirty,
		flushInterval: flushInterval,
		lastFlush:     time.Now(),
	}, nil
}

// FetchCoins returns the unspent outputs of txIDs, reading through to the
// backing store for entries that aren't cached.
func (s *CachedCoinStore) FetchCoins(ctx context.Context, txIDs []*externalapi.DomainHash) ([]*externalapi.UnspentOutputs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	coins := make([]*externalapi.UnspentOutputs, len(txIDs))
	var missingIDs []*externalapi.DomainHash
	var missingIndexes []int
	for i, txID := range txIDs {
		entry, ok := s.dirty[*txID]
		if !ok {
			entry, ok = s.clean.Get(txID)
		}
		if !ok {
			missingIDs = append(missingIDs, txID)
			missingIndexes = append(missingIndexes, i)
			continue
		}
		if entry != nil {
			coins[i] = entry.Clone()
		}
	}
	prometheusCacheHits.Add(float64(len(txIDs) - len(missingIDs)))
	if len(missingIDs) == 0 {
		return coins, nil
	}
	prometheusCacheMisses.Add(float64(len(missingIDs)))

	fetched, err := s.backing.FetchCoins(ctx, missingIDs)
	if err != nil {
		return nil, err
	}
	if len(fetched) != len(missingIDs) {
		return nil, errors.Errorf("backing store returned %d entries for %d transactions",
			len(fetched), len(missingIDs))
	}
	for i, entry := range fetched {
		s.clean.Add(missingIDs[i], entry)
		if entry != nil {
			coins[missingIndexes[i]] = entry.Clone()
		}
	}
	return coins, nil
}

// TipHash returns the hash of the last block applied to the cache.
func (s *CachedCoinStore) TipHash(_ context.Context) (*externalapi.DomainHash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tip.Clone(), nil
}

// ApplyDelta records delta in the cache and flushes when a threshold is
// reached.
func (s *CachedCoinStore) ApplyDelta(ctx context.Context, delta *externalapi.UTXODelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tip.Equal(&delta.OldTip) {
		return errors.Errorf("coin cache is at %s but the delta connects %s on top of %s",
			s.tip, delta.NewTip, delta.OldTip)
	}

	for _, coins := range delta.Updated {
		s.clean.Remove(&coins.TransactionID)
		if coins.IsPrunable() {
			s.dirty[coins.TransactionID] = nil
			continue
		}
		s.dirty[coins.TransactionID] = coins.Clone()
	}
	s.pending = append(s.pending, delta)
	s.tip = delta.NewTip.Clone()
	prometheusPendingDeltas.Set(float64(len(s.pending)))

	if len(s.dirty) >= s.maxDirty ||
		(s.flushInterval > 0 && time.Since(s.lastFlush) >= s.flushInterval) {
		return s.flush(ctx)
	}
	return nil
}

// Flush writes every pending delta to the backing store.
func (s *CachedCoinStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flush(ctx)
}

// PendingDeltas returns the number of deltas not yet written to the backing
// store.
func (s *CachedCoinStore) PendingDeltas() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *CachedCoinStore) flush(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	start := time.Now()

	for len(s.pending) > 0 {
		err := s.backing.ApplyDelta(ctx, s.pending[0])
		if err != nil {
			prometheusPendingDeltas.Set(float64(len(s.pending)))
			return err
		}
		s.pending[0] = nil
		s.pending = s.pending[1:]
	}
	s.pending = nil

	for txID, entry := range s.dirty {
		txID := txID
		s.clean.Add(&txID, entry)
	}
	s.dirty = make(map[externalapi.DomainHash]*externalapi.UnspentOutputs)
	s.lastFlush = time.Now()

	elapsed := time.Since(start)
	prometheusFlushDuration.Observe(elapsed.Seconds())
	prometheusPendingDeltas.Set(0)
	log.Debugf("Flushed the coin cache to %s in %s", s.tip, elapsed)
	return nil
}

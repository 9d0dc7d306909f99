package coinstore

import (
	"context"
	"sync"

	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/multiset"
	"github.com/pkg/errors"
)

// MemoryStore is an unspent output set kept in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	coins    map[externalapi.DomainHash]*externalapi.UnspentOutputs
	tip      *externalapi.DomainHash
	multiset model.Multiset
}

// NewMemoryStore returns an empty set synced to genesisHash.
func NewMemoryStore(genesisHash *externalapi.DomainHash) *MemoryStore {
	return &MemoryStore{
		coins:    make(map[externalapi.DomainHash]*externalapi.UnspentOutputs),
		tip:      genesisHash.Clone(),
		multiset: multiset.New(),
	}
}

// FetchCoins returns copies of the unspent outputs of txIDs.
func (s *MemoryStore) FetchCoins(_ context.Context, txIDs []*externalapi.DomainHash) ([]*externalapi.UnspentOutputs, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	coins := make([]*externalapi.UnspentOutputs, len(txIDs))
	for i, txID := range txIDs {
		if entry, ok := s.coins[*txID]; ok {
			coins[i] = entry.Clone()
		}
	}
	return coins, nil
}

// TipHash returns the hash of the block the store is synced to.
func (s *MemoryStore) TipHash(_ context.Context) (*externalapi.DomainHash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tip.Clone(), nil
}

// Commitment returns the multiset hash of the unspent output set.
func (s *MemoryStore) Commitment() *externalapi.DomainHash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.multiset.Hash()
}

// Len returns the number of transactions with unspent outputs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.coins)
}

// ApplyDelta writes delta. The store tip must equal delta.OldTip.
func (s *MemoryStore) ApplyDelta(_ context.Context, delta *externalapi.UTXODelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tip.Equal(&delta.OldTip) {
		return errors.Errorf("coin store is at %s but the delta connects %s on top of %s",
			s.tip, delta.NewTip, delta.OldTip)
	}
	for _, coins := range delta.Updated {
		if coins.IsPrunable() {
			delete(s.coins, coins.TransactionID)
			continue
		}
		s.coins[coins.TransactionID] = coins.Clone()
	}
	applyDeltaToMultiset(s.multiset, delta)
	s.tip = delta.NewTip.Clone()
	return nil
}

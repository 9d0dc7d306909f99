package stakechainstore

import (
	"bytes"
	"sync"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/serialization"
	"github.com/hybridchain/hcd/infrastructure/db/database"
	"github.com/pkg/errors"
)

var stakeBucket = database.MakeBucket([]byte("block-stakes"))

const defaultCacheSize = 1000

// StakeChainStore persists one BlockStake record per block.
type StakeChainStore struct {
	dataAccessor database.DataAccessor

	mu        sync.Mutex
	cache     map[externalapi.DomainHash]*externalapi.BlockStake
	cacheSize int
}

// New returns a store over dataAccessor. The genesis block gets a
// proof-of-work record with a zero stake modifier when none exists.
func New(dataAccessor database.DataAccessor, genesisHash *externalapi.DomainHash) (*StakeChainStore, error) {
	store := &StakeChainStore{
		dataAccessor: dataAccessor,
		cache:        make(map[externalapi.DomainHash]*externalapi.BlockStake),
		cacheSize:    defaultCacheSize,
	}

	genesisStake, err := store.Get(genesisHash)
	if err != nil {
		return nil, err
	}
	if genesisStake == nil {
		genesisStake = &externalapi.BlockStake{HashProof: *genesisHash}
		genesisStake.SetStakeEntropyBit(genesisHash)
		err = store.Set(genesisHash, genesisStake)
		if err != nil {
			return nil, err
		}
	}
	return store, nil
}

// Get returns the record of blockHash, or nil if none is known.
func (s *StakeChainStore) Get(blockHash *externalapi.DomainHash) (*externalapi.BlockStake, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stake, ok := s.cache[*blockHash]; ok {
		return stake.Clone(), nil
	}

	stakeBytes, err := s.dataAccessor.Get(stakeBucket.Key(blockHash.ByteSlice()))
	if database.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	stake, err := deserializeBlockStake(stakeBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt stake record of %s", blockHash)
	}
	s.addToCache(blockHash, stake)
	return stake.Clone(), nil
}

// Set stores the record of blockHash.
func (s *StakeChainStore) Set(blockHash *externalapi.DomainHash, stake *externalapi.BlockStake) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(blockHash, stake)
}

func (s *StakeChainStore) putLocked(blockHash *externalapi.DomainHash, stake *externalapi.BlockStake) error {
	stakeBytes, err := serializeBlockStake(stake)
	if err != nil {
		return err
	}
	err = s.dataAccessor.Put(stakeBucket.Key(blockHash.ByteSlice()), stakeBytes)
	if err != nil {
		return err
	}
	s.addToCache(blockHash, stake.Clone())
	return nil
}

func (s *StakeChainStore) addToCache(blockHash *externalapi.DomainHash, stake *externalapi.BlockStake) {
	if len(s.cache) >= s.cacheSize {
		for key := range s.cache {
			delete(s.cache, key)
			break
		}
	}
	s.cache[*blockHash] = stake
}

func serializeBlockStake(stake *externalapi.BlockStake) ([]byte, error) {
	w := &bytes.Buffer{}
	err := serialization.WriteElements(w, uint32(stake.Flags), stake.HashProof, stake.StakeModifierV2,
		stake.StakeTime, stake.PrevoutStake.TransactionID, stake.PrevoutStake.Index)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func deserializeBlockStake(stakeBytes []byte) (*externalapi.BlockStake, error) {
	r := bytes.NewReader(stakeBytes)
	stake := &externalapi.BlockStake{}
	var flags uint32
	err := serialization.ReadElements(r, &flags, &stake.HashProof, &stake.StakeModifierV2,
		&stake.StakeTime, &stake.PrevoutStake.TransactionID, &stake.PrevoutStake.Index)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after a stake record", r.Len())
	}
	stake.Flags = externalapi.BlockStakeFlag(flags)
	return stake, nil
}

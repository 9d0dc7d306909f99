package utxolrucache

import (
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
)

// LRUCache is a bounded cache of per-transaction unspent outputs indexed by
// transaction id. When full, an arbitrary entry is evicted.
type LRUCache struct {
	cache    map[externalapi.DomainHash]*externalapi.UnspentOutputs
	capacity int
}

// New creates a new LRUCache
func New(capacity int) *LRUCache {
	return &LRUCache{
		cache:    make(map[externalapi.DomainHash]*externalapi.UnspentOutputs, capacity+1),
		capacity: capacity,
	}
}

// Add adds an entry to the LRUCache. A nil value records that the
// transaction has no unspent outputs.
func (c *LRUCache) Add(key *externalapi.DomainHash, value *externalapi.UnspentOutputs) {
	c.cache[*key] = value

	if len(c.cache) > c.capacity {
		c.evictRandom(key)
	}
}

// Get returns the entry for the given key, or (nil, false) otherwise
func (c *LRUCache) Get(key *externalapi.DomainHash) (*externalapi.UnspentOutputs, bool) {
	value, ok := c.cache[*key]
	if !ok {
		return nil, false
	}
	return value, true
}

// Has returns whether the LRUCache contains the given key
func (c *LRUCache) Has(key *externalapi.DomainHash) bool {
	_, ok := c.cache[*key]
	return ok
}

// Remove removes the entry for the the given key. Does nothing if
// the entry does not exist
func (c *LRUCache) Remove(key *externalapi.DomainHash) {
	delete(c.cache, *key)
}

// Len returns the number of cached entries
func (c *LRUCache) Len() int {
	return len(c.cache)
}

// Clear clears the cache
func (c *LRUCache) Clear() {
	for key := range c.cache {
		delete(c.cache, key)
	}
}

func (c *LRUCache) evictRandom(keep *externalapi.DomainHash) {
	for key := range c.cache {
		if key == *keep {
			continue
		}
		c.Remove(&key)
		return
	}
}

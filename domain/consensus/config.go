package consensus

import (
	"time"

	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
)

// Config is a descriptor for a consensus engine
type Config struct {
	chaincfg.Params

	// DisableCheckpoints turns off checkpoint enforcement and the
	// validation skip below the last checkpoint.
	DisableCheckpoints bool

	// AssumeValid overrides the network's assume-valid block when set.
	AssumeValid *externalapi.DomainHash

	// ScriptThreads bounds the number of concurrent script checks. Zero
	// uses one per CPU.
	ScriptThreads int

	// CoinCacheSize is the number of clean coin entries kept in memory.
	// Zero disables the coin cache.
	CoinCacheSize int

	// CoinCacheMaxDirty is the number of modified coin entries after which
	// the cache is flushed to the database.
	CoinCacheMaxDirty int

	// CoinCacheFlushInterval is the longest time modified coin entries stay
	// in memory. Zero disables the time based flush.
	CoinCacheFlushInterval time.Duration

	// ScriptVerifier evaluates input scripts. Nil selects
	// txscript.AnyoneCanSpendVerifier.
	ScriptVerifier model.ScriptVerifier

	// ChainIndex resolves the assume-valid block. Nil disables
	// assume-valid.
	ChainIndex model.ChainIndex

	// TimeSource provides the network adjusted time. Nil uses the local
	// clock.
	TimeSource model.TimeSource
}

// NewConfig returns the default configuration for params.
func NewConfig(params *chaincfg.Params) *Config {
	return &Config{
		Params:                 *params,
		CoinCacheSize:          100000,
		CoinCacheMaxDirty:      50000,
		CoinCacheFlushInterval: time.Minute,
	}
}

func (c *Config) assumeValid() *externalapi.DomainHash {
	if c.AssumeValid != nil {
		return c.AssumeValid
	}
	return c.Params.AssumeValid
}

type localClock struct{}

func (localClock) AdjustedTime() time.Time {
	return time.Now()
}

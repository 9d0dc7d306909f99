package model

import (
	"context"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
)

// CoinStore is the persistent unspent output set the engine validates
// against.
type CoinStore interface {
	// FetchCoins returns the unspent outputs of the given transactions in
	// the same order. Unknown or fully spent transactions are nil entries.
	FetchCoins(ctx context.Context, txIDs []*externalapi.DomainHash) ([]*externalapi.UnspentOutputs, error)

	// TipHash returns the hash of the block the store is synced to.
	TipHash(ctx context.Context) (*externalapi.DomainHash, error)

	// ApplyDelta writes a connected block's changes. The store tip must
	// equal delta.OldTip.
	ApplyDelta(ctx context.Context, delta *externalapi.UTXODelta) error
}

// CoinSetVerifier is a coin store that can rescan its entries and check them
// against its multiset commitment.
type CoinSetVerifier interface {
	Verify(ctx context.Context) (*externalapi.CoinSetStats, error)
}

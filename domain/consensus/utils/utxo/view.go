package utxo

import (
	"context"

	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// View is an in-memory overlay of the coin store that a single block is
// applied to. Coins are loaded on demand and every change is kept in memory
// until Delta is called. A View must not be shared between blocks.
type View struct {
	store   model.CoinStore
	entries map[externalapi.DomainHash]*viewEntry

	// touched keeps the order in which entries were first modified so the
	// resulting delta is deterministic.
	touched []*viewEntry
	spent   []*externalapi.SpentOutput
}

type viewEntry struct {
	txID    externalapi.DomainHash
	coins   *externalapi.UnspentOutputs
	touched bool
}

// NewView returns an empty view over store.
func NewView(store model.CoinStore) *View {
	return &View{
		store:   store,
		entries: make(map[externalapi.DomainHash]*viewEntry),
	}
}

// LoadCoins fetches from the store the coins of every transaction that isn't
// already in the view. Errors returned here are storage failures.
func (v *View) LoadCoins(ctx context.Context, txIDs []*externalapi.DomainHash) error {
	missing := make([]*externalapi.DomainHash, 0, len(txIDs))
	seen := make(map[externalapi.DomainHash]struct{}, len(txIDs))
	for _, txID := range txIDs {
		if _, ok := v.entries[*txID]; ok {
			continue
		}
		if _, ok := seen[*txID]; ok {
			continue
		}
		seen[*txID] = struct{}{}
		missing = append(missing, txID)
	}
	if len(missing) == 0 {
		return nil
	}

	coins, err := v.store.FetchCoins(ctx, missing)
	if err != nil {
		return err
	}
	if len(coins) != len(missing) {
		return errors.Errorf("coin store returned %d entries for %d transactions", len(coins), len(missing))
	}
	for i, txID := range missing {
		entry := &viewEntry{txID: *txID}
		if coins[i] != nil {
			entry.coins = coins[i].Clone()
		}
		v.entries[*txID] = entry
	}
	return nil
}

// AccessCoins returns the coins of txID, or nil if the transaction is unknown
// to the view. The returned value must not be modified.
func (v *View) AccessCoins(txID *externalapi.DomainHash) *externalapi.UnspentOutputs {
	entry, ok := v.entries[*txID]
	if !ok {
		return nil
	}
	return entry.coins
}

// HaveCoins returns whether txID has at least one unspent output.
func (v *View) HaveCoins(txID *externalapi.DomainHash) bool {
	coins := v.AccessCoins(txID)
	return coins != nil && !coins.IsPrunable()
}

// Output returns the unspent output referenced by outpoint along with the
// coins holding it. The output is nil if it is missing or spent.
func (v *View) Output(outpoint *externalapi.DomainOutpoint) (*externalapi.UnspentOutputs, *externalapi.DomainTransactionOutput) {
	coins := v.AccessCoins(&outpoint.TransactionID)
	if coins == nil {
		return nil, nil
	}
	return coins, coins.Output(outpoint.Index)
}

// Spend marks the output referenced by outpoint as spent and returns what it
// was.
func (v *View) Spend(outpoint *externalapi.DomainOutpoint) (*externalapi.SpentOutput, error) {
	entry, ok := v.entries[outpoint.TransactionID]
	if !ok || entry.coins == nil {
		return nil, errors.Errorf("cannot spend %s: transaction isn't in the view", outpoint)
	}
	output, err := entry.coins.Spend(outpoint.Index)
	if err != nil {
		return nil, err
	}
	v.touch(entry)

	spent := &externalapi.SpentOutput{
		Outpoint:    *outpoint,
		Output:      output,
		Height:      entry.coins.Height,
		Time:        entry.coins.Time,
		IsCoinBase:  entry.coins.IsCoinBase,
		IsCoinStake: entry.coins.IsCoinStake,
	}
	v.spent = append(v.spent, spent)
	return spent, nil
}

// AddTransaction inserts the outputs of tx, confirmed at height in a block
// with the given timestamp. An existing entry with the same id is
// overwritten.
func (v *View) AddTransaction(txID *externalapi.DomainHash, tx *externalapi.DomainTransaction,
	height uint64, blockTime uint32) {

	entry, ok := v.entries[*txID]
	if !ok {
		entry = &viewEntry{txID: *txID}
		v.entries[*txID] = entry
	}
	entry.coins = externalapi.NewUnspentOutputs(txID, tx, height, blockTime)
	v.touch(entry)
}

// Delta returns the changes applied to the view as a delta moving the coin
// store from oldTip to newTip.
func (v *View) Delta(oldTip, newTip *externalapi.DomainHash, height uint64) *externalapi.UTXODelta {
	updated := make([]*externalapi.UnspentOutputs, 0, len(v.touched))
	for _, entry := range v.touched {
		updated = append(updated, entry.coins.Clone())
	}
	spent := make([]*externalapi.SpentOutput, len(v.spent))
	copy(spent, v.spent)

	return &externalapi.UTXODelta{
		OldTip:  *oldTip,
		NewTip:  *newTip,
		Height:  height,
		Spent:   spent,
		Updated: updated,
	}
}

func (v *View) touch(entry *viewEntry) {
	if entry.touched {
		return
	}
	entry.touched = true
	v.touched = append(v.touched, entry)
}

package coinstore

import (
	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/utxo"
)

// applyDeltaToMultiset adds the outputs a block created and removes the ones
// it spent. Outputs created and spent by the same block appear in neither.
func applyDeltaToMultiset(ms model.Multiset, delta *externalapi.UTXODelta) {
	for _, spent := range delta.Spent {
		if spent.Height == delta.Height {
			continue
		}
		ms.Remove(utxo.SerializeCoin(&spent.Outpoint, spent.Output, spent.Height,
			spent.IsCoinBase, spent.IsCoinStake))
	}

	for _, coins := range delta.Updated {
		if coins.Height != delta.Height {
			continue
		}
		addCoinsToMultiset(ms, coins)
	}
}

// addCoinsToMultiset adds every unspent output of coins.
func addCoinsToMultiset(ms model.Multiset, coins *externalapi.UnspentOutputs) {
	for i, output := range coins.Outputs {
		if output == nil {
			continue
		}
		outpoint := externalapi.DomainOutpoint{TransactionID: coins.TransactionID, Index: uint32(i)}
		ms.Add(utxo.SerializeCoin(&outpoint, output, coins.Height, coins.IsCoinBase, coins.IsCoinStake))
	}
}

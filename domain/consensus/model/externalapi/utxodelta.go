package externalapi

// SpentOutput is an output consumed by a block, kept for undo.
type SpentOutput struct {
	Outpoint    DomainOutpoint
	Output      *DomainTransactionOutput
	Height      uint64
	Time        uint32
	IsCoinBase  bool
	IsCoinStake bool
}

// UTXODelta is the change a single connected block makes to the coin store.
type UTXODelta struct {
	OldTip DomainHash
	NewTip DomainHash
	Height uint64

	Spent []*SpentOutput

	// Updated holds the post-block state of every touched transaction.
	// Prunable entries are deletions.
	Updated []*UnspentOutputs

	// Stake is the stake record of the new tip on proof-of-stake
	// networks, stored when the delta is committed.
	Stake *BlockStake
}

package blockrules

import (
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/consensushashing"
	"github.com/pkg/errors"
)

// BlockIntegrityRule checks that a block matches the chained header it is
// validated under.
type BlockIntegrityRule struct{}

// NewBlockIntegrityRule creates a BlockIntegrityRule.
func NewBlockIntegrityRule() *BlockIntegrityRule {
	return &BlockIntegrityRule{}
}

// Name implements ruleengine.Rule.
func (r *BlockIntegrityRule) Name() string { return "BlockIntegrityRule" }

// CheckIntegrity implements ruleengine.IntegrityRule.
func (r *BlockIntegrityRule) CheckIntegrity(vc *ruleengine.ValidationContext) error {
	block := vc.Block
	if len(block.Transactions) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoTransactions, "block does not contain "+
			"any transactions")
	}

	blockHash := consensushashing.BlockHash(block)
	if *blockHash != vc.ChainedHeader.Hash {
		return errors.Wrapf(ruleerrors.ErrBadBlockHash, "block hashes to %s but its chained header "+
			"is %s", blockHash, vc.ChainedHeader.Hash)
	}

	prev := vc.ChainedHeader.Previous
	if prev == nil || block.Header.PrevBlockHash != prev.Hash {
		return errors.Wrapf(ruleerrors.ErrInvalidPrevTip, "block %s doesn't build on its chained "+
			"header's previous block", blockHash)
	}
	return nil
}

package blockrules

import (
	"math/big"

	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/difficulty"
	"github.com/pkg/errors"
)

// CheckDifficultyPowRule checks that the header hash meets the target its
// bits claim, and that the target is within the network limit.
type CheckDifficultyPowRule struct {
	powLimit *big.Int
}

// NewCheckDifficultyPowRule creates a CheckDifficultyPowRule.
func NewCheckDifficultyPowRule(powLimit *big.Int) *CheckDifficultyPowRule {
	return &CheckDifficultyPowRule{powLimit: powLimit}
}

// Name implements ruleengine.Rule.
func (r *CheckDifficultyPowRule) Name() string { return "CheckDifficultyPowRule" }

// ValidateHeader implements ruleengine.HeaderRule.
func (r *CheckDifficultyPowRule) ValidateHeader(vc *ruleengine.ValidationContext) error {
	return CheckProofOfWork(vc.Header(), &vc.ChainedHeader.Hash, r.powLimit)
}

// CheckProofOfWork checks that hash, the hash of header, is at or below the
// target encoded in the header bits.
func CheckProofOfWork(header *externalapi.DomainBlockHeader, hash *externalapi.DomainHash, powLimit *big.Int) error {
	target, ok := difficulty.CheckTargetRange(header.Bits, powLimit)
	if !ok {
		return errors.Wrapf(ruleerrors.ErrBadDiffBits, "block target difficulty of %064x is "+
			"out of range [1, %064x]", difficulty.CompactToBig(header.Bits), powLimit)
	}

	if difficulty.HashToBig(hash).Cmp(target) > 0 {
		return errors.Wrapf(ruleerrors.ErrHighHash, "block hash of %s is higher than "+
			"expected max of %064x", hash, target)
	}
	return nil
}

// BlockHeaderPowContextualRule checks the header bits against the work the
// chain requires after the previous block.
type BlockHeaderPowContextualRule struct {
	difficultyManager model.DifficultyManager
}

// NewBlockHeaderPowContextualRule creates a BlockHeaderPowContextualRule.
func NewBlockHeaderPowContextualRule(difficultyManager model.DifficultyManager) *BlockHeaderPowContextualRule {
	return &BlockHeaderPowContextualRule{difficultyManager: difficultyManager}
}

// Name implements ruleengine.Rule.
func (r *BlockHeaderPowContextualRule) Name() string { return "BlockHeaderPowContextualRule" }

// ValidateHeader implements ruleengine.HeaderRule.
func (r *BlockHeaderPowContextualRule) ValidateHeader(vc *ruleengine.ValidationContext) error {
	expectedBits := r.difficultyManager.RequiredDifficulty(vc.ChainedHeader.Previous, vc.Header().Timestamp)
	vc.NextWorkRequired = expectedBits
	if vc.Header().Bits != expectedBits {
		return errors.Wrapf(ruleerrors.ErrBadDiffBits, "block difficulty of %08x is not the "+
			"expected value of %08x", vc.Header().Bits, expectedBits)
	}
	return nil
}

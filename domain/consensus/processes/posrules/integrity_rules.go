package posrules

import (
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/blocksignature"
	"github.com/pkg/errors"
)

// PosBlockSignatureRepresentationRule checks that proof-of-stake blocks carry
// a canonical signature and proof-of-work blocks none.
type PosBlockSignatureRepresentationRule struct{}

// NewPosBlockSignatureRepresentationRule creates a PosBlockSignatureRepresentationRule.
func NewPosBlockSignatureRepresentationRule() *PosBlockSignatureRepresentationRule {
	return &PosBlockSignatureRepresentationRule{}
}

// Name implements ruleengine.Rule.
func (r *PosBlockSignatureRepresentationRule) Name() string {
	return "PosBlockSignatureRepresentationRule"
}

// CheckIntegrity implements ruleengine.IntegrityRule.
func (r *PosBlockSignatureRepresentationRule) CheckIntegrity(vc *ruleengine.ValidationContext) error {
	if !vc.IsProofOfStakeBlock() {
		if len(vc.Block.Signature) != 0 {
			return errors.Wrapf(ruleerrors.ErrBadBlockSignature, "proof-of-work block %s carries a "+
				"signature", vc.ChainedHeader.Hash)
		}
		return nil
	}

	if !blocksignature.IsCanonicalSignature(vc.Block.Signature) {
		return errors.Wrapf(ruleerrors.ErrBadBlockSignatureRepresentation, "block %s signature is not "+
			"canonical", vc.ChainedHeader.Hash)
	}
	return nil
}

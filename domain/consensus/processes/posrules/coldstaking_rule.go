package posrules

import (
	"bytes"

	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/txscript"
	"github.com/pkg/errors"
)

// ColdStakingRule checks that a coinstake staking cold staking coins pays
// everything back to the same cold staking script.
type ColdStakingRule struct{}

// NewColdStakingRule creates a ColdStakingRule.
func NewColdStakingRule() *ColdStakingRule {
	return &ColdStakingRule{}
}

// Name implements ruleengine.Rule.
func (r *ColdStakingRule) Name() string { return "ColdStakingRule" }

// ValidateFull implements ruleengine.FullRule.
func (r *ColdStakingRule) ValidateFull(vc *ruleengine.ValidationContext) error {
	if !vc.Flags.ColdStaking || !vc.IsProofOfStakeBlock() {
		return nil
	}

	prevOutputs := vc.Stake.CoinstakePrevOutputs
	isColdStake := false
	for _, output := range prevOutputs {
		if txscript.IsColdStakingScript(output.ScriptPublicKey) {
			isColdStake = true
			break
		}
	}
	if !isColdStake {
		return nil
	}

	script := prevOutputs[0].ScriptPublicKey
	for i, output := range prevOutputs[1:] {
		if !bytes.Equal(output.ScriptPublicKey, script) {
			return errors.Wrapf(ruleerrors.ErrBadColdstakeInputs, "coinstake input %d spends a different "+
				"script than input 0", i+1)
		}
	}

	coinstake := vc.Block.Transactions[1]
	for i, output := range coinstake.Outputs {
		// Output 0 is the coinstake marker.
		if i == 0 {
			continue
		}
		if output.Value == 0 && txscript.IsNullData(output.ScriptPublicKey) {
			continue
		}
		if !bytes.Equal(output.ScriptPublicKey, script) {
			return errors.Wrapf(ruleerrors.ErrBadColdstakeOutputs, "coinstake output %d doesn't pay "+
				"to the cold staking script", i)
		}
	}

	if vc.Stake.CoinstakeValueIn > coinstake.TotalOut() {
		return errors.Wrapf(ruleerrors.ErrBadColdstakeAmount, "cold staking coinstake spends %d but "+
			"pays %d", vc.Stake.CoinstakeValueIn, coinstake.TotalOut())
	}
	return nil
}

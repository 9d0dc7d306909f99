package posrules

import (
	"bytes"
	"math/big"

	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/processes/blockrules"
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/blocksignature"
	"github.com/hybridchain/hcd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hcd/domain/consensus/utils/hashes"
	"github.com/hybridchain/hcd/domain/consensus/utils/txscript"
	"github.com/pkg/errors"
)

// CheckPosTransactionRule validates every transaction of the block in
// isolation with a validator that rejects empty outputs outside coinbases and
// coinstakes.
type CheckPosTransactionRule struct {
	transactionValidator model.TransactionValidator
}

// NewCheckPosTransactionRule creates a CheckPosTransactionRule.
func NewCheckPosTransactionRule(transactionValidator model.TransactionValidator) *CheckPosTransactionRule {
	return &CheckPosTransactionRule{transactionValidator: transactionValidator}
}

// Name implements ruleengine.Rule.
func (r *CheckPosTransactionRule) Name() string { return "CheckPosTransactionRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *CheckPosTransactionRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	return blockrules.CheckTransactionsInIsolation(r.transactionValidator, vc.Block)
}

// PosTimeMaskRule enforces the end of proof-of-work and the timestamp rules
// of proof-of-stake networks. Every block, whatever its kind, must be newer
// than its predecessor.
type PosTimeMaskRule struct {
	lastPOWBlock              uint64
	stakeTimestampMask        uint32
	transactionsHaveTimestamp bool
}

// NewPosTimeMaskRule creates a PosTimeMaskRule.
func NewPosTimeMaskRule(lastPOWBlock uint64, stakeTimestampMask uint32, transactionsHaveTimestamp bool) *PosTimeMaskRule {
	return &PosTimeMaskRule{
		lastPOWBlock:              lastPOWBlock,
		stakeTimestampMask:        stakeTimestampMask,
		transactionsHaveTimestamp: transactionsHaveTimestamp,
	}
}

// Name implements ruleengine.Rule.
func (r *PosTimeMaskRule) Name() string { return "PosTimeMaskRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *PosTimeMaskRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	header := vc.Header()
	if header.Timestamp <= vc.ChainedHeader.Previous.Timestamp() {
		return errors.Wrapf(ruleerrors.ErrBlockTimestampTooEarly, "block timestamp %d is not after the "+
			"previous block timestamp %d", header.Timestamp, vc.ChainedHeader.Previous.Timestamp())
	}

	if !vc.IsProofOfStakeBlock() {
		if vc.ChainedHeader.Height > r.lastPOWBlock {
			return errors.Wrapf(ruleerrors.ErrProofOfWorkTooHigh, "proof-of-work block at height %d "+
				"is after the last proof-of-work block %d", vc.ChainedHeader.Height, r.lastPOWBlock)
		}
		return nil
	}

	if header.Timestamp&r.stakeTimestampMask != 0 {
		return errors.Wrapf(ruleerrors.ErrStakeTimeViolation, "block timestamp %d is not masked by %x",
			header.Timestamp, r.stakeTimestampMask)
	}

	coinstake := vc.Block.Transactions[1]
	if r.transactionsHaveTimestamp && coinstake.Timestamp != header.Timestamp {
		return errors.Wrapf(ruleerrors.ErrStakeTimeViolation, "coinstake timestamp %d differs from the "+
			"block timestamp %d", coinstake.Timestamp, header.Timestamp)
	}
	return nil
}

// CheckDifficultyHybridRule checks the header bits against the target of the
// block's kind, and the proof of work of proof-of-work blocks.
type CheckDifficultyHybridRule struct {
	stakeValidator model.StakeValidator
	powLimit       *big.Int
}

// NewCheckDifficultyHybridRule creates a CheckDifficultyHybridRule.
func NewCheckDifficultyHybridRule(stakeValidator model.StakeValidator, powLimit *big.Int) *CheckDifficultyHybridRule {
	return &CheckDifficultyHybridRule{stakeValidator: stakeValidator, powLimit: powLimit}
}

// Name implements ruleengine.Rule.
func (r *CheckDifficultyHybridRule) Name() string { return "CheckDifficultyHybridRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *CheckDifficultyHybridRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	isProofOfStake := vc.IsProofOfStakeBlock()
	if !isProofOfStake {
		err := blockrules.CheckProofOfWork(vc.Header(), &vc.ChainedHeader.Hash, r.powLimit)
		if err != nil {
			return err
		}
	}

	expectedBits, err := r.stakeValidator.GetNextTargetRequired(vc.ChainedHeader.Previous, isProofOfStake)
	if err != nil {
		return err
	}
	vc.NextWorkRequired = expectedBits
	if vc.Header().Bits != expectedBits {
		return errors.Wrapf(ruleerrors.ErrBadDiffBits, "block difficulty of %08x is not the "+
			"expected value of %08x", vc.Header().Bits, expectedBits)
	}
	return nil
}

// PosCoinstakeRule checks the layout of proof-of-stake blocks and that no
// transaction is timestamped after its block.
type PosCoinstakeRule struct {
	transactionsHaveTimestamp bool
}

// NewPosCoinstakeRule creates a PosCoinstakeRule.
func NewPosCoinstakeRule(transactionsHaveTimestamp bool) *PosCoinstakeRule {
	return &PosCoinstakeRule{transactionsHaveTimestamp: transactionsHaveTimestamp}
}

// Name implements ruleengine.Rule.
func (r *PosCoinstakeRule) Name() string { return "PosCoinstakeRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *PosCoinstakeRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	transactions := vc.Block.Transactions

	if vc.IsProofOfStakeBlock() {
		coinbase := transactions[0]
		if len(coinbase.Outputs) != 1 || !coinbase.Outputs[0].IsEmpty() {
			return errors.Wrapf(ruleerrors.ErrBadStakeBlock, "coinbase of proof-of-stake block %s "+
				"must have a single empty output", vc.ChainedHeader.Hash)
		}
	}

	for i, tx := range transactions {
		if i != 1 && tx.IsCoinStake() {
			return errors.Wrapf(ruleerrors.ErrBadMultipleCoinstake, "coinstake at index %d", i)
		}
	}

	if r.transactionsHaveTimestamp {
		for _, tx := range transactions {
			if vc.Header().Timestamp < tx.Timestamp {
				return errors.Wrapf(ruleerrors.ErrBlockTimeBeforeTrx, "transaction %s timestamp %d is "+
					"after the block timestamp %d", consensushashing.TransactionID(tx), tx.Timestamp,
					vc.Header().Timestamp)
			}
		}
	}
	return nil
}

// PosBlockSignatureRule verifies the signature of proof-of-stake blocks with
// the key the coinstake pays to or discloses.
type PosBlockSignatureRule struct{}

// NewPosBlockSignatureRule creates a PosBlockSignatureRule.
func NewPosBlockSignatureRule() *PosBlockSignatureRule {
	return &PosBlockSignatureRule{}
}

// Name implements ruleengine.Rule.
func (r *PosBlockSignatureRule) Name() string { return "PosBlockSignatureRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *PosBlockSignatureRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	if !vc.IsProofOfStakeBlock() {
		return nil
	}

	publicKey, ok := SigningKey(vc.Block.Transactions[1])
	if !ok {
		return errors.Wrapf(ruleerrors.ErrBadBlockSignature, "coinstake of block %s doesn't identify "+
			"a signing key", vc.ChainedHeader.Hash)
	}
	if !blocksignature.Verify(publicKey, &vc.ChainedHeader.Hash, vc.Block.Signature) {
		return errors.Wrapf(ruleerrors.ErrBadBlockSignature, "block %s signature doesn't verify",
			vc.ChainedHeader.Hash)
	}
	return nil
}

// SigningKey returns the key a proof-of-stake block must be signed with:
// the key of a pay-to-pubkey second coinstake output, or the key that
// output discloses in an OP_RETURN when a later output pays to its hash
// directly or as the hot key of a cold staking script.
func SigningKey(coinstake *externalapi.DomainTransaction) ([]byte, bool) {
	marker := coinstake.Outputs[1].ScriptPublicKey
	if publicKey, ok := txscript.ExtractPubKey(marker); ok {
		return publicKey, true
	}

	pushes, err := txscript.NullDataPushes(marker)
	if err != nil || len(pushes) != 1 {
		return nil, false
	}
	publicKey := pushes[0]
	keyHash := hashes.Hash160(publicKey)
	for _, output := range coinstake.Outputs[2:] {
		if hotKeyHash, _, ok := txscript.ExtractColdStakingKeyHashes(output.ScriptPublicKey); ok &&
			bytes.Equal(hotKeyHash, keyHash) {
			return publicKey, true
		}
		if pubKeyHash, ok := txscript.ExtractPubKeyHash(output.ScriptPublicKey); ok &&
			bytes.Equal(pubKeyHash, keyHash) {
			return publicKey, true
		}
	}
	return nil, false
}

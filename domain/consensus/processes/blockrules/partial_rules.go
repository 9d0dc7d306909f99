package blockrules

import (
	"bytes"

	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hcd/domain/consensus/utils/merkle"
	"github.com/hybridchain/hcd/domain/consensus/utils/serialization"
	"github.com/hybridchain/hcd/domain/consensus/utils/txscript"
	"github.com/hybridchain/hcd/domain/consensus/utils/witness"
	"github.com/pkg/errors"
)

// EnsureCoinbaseRule checks that the first transaction, and only it, is a
// coinbase.
type EnsureCoinbaseRule struct{}

// NewEnsureCoinbaseRule creates an EnsureCoinbaseRule.
func NewEnsureCoinbaseRule() *EnsureCoinbaseRule {
	return &EnsureCoinbaseRule{}
}

// Name implements ruleengine.Rule.
func (r *EnsureCoinbaseRule) Name() string { return "EnsureCoinbaseRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *EnsureCoinbaseRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	transactions := vc.Block.Transactions
	if !transactions[0].IsCoinBase() {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseMissing, "first transaction in "+
			"block is not a coinbase")
	}
	for i, tx := range transactions[1:] {
		if tx.IsCoinBase() {
			return errors.Wrapf(ruleerrors.ErrBadMultipleCoinbase, "block contains second coinbase at "+
				"index %d", i+1)
		}
	}
	return nil
}

// CheckPowTransactionRule validates every transaction of the block in
// isolation.
type CheckPowTransactionRule struct {
	transactionValidator model.TransactionValidator
}

// NewCheckPowTransactionRule creates a CheckPowTransactionRule.
func NewCheckPowTransactionRule(transactionValidator model.TransactionValidator) *CheckPowTransactionRule {
	return &CheckPowTransactionRule{transactionValidator: transactionValidator}
}

// Name implements ruleengine.Rule.
func (r *CheckPowTransactionRule) Name() string { return "CheckPowTransactionRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *CheckPowTransactionRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	return CheckTransactionsInIsolation(r.transactionValidator, vc.Block)
}

// CheckTransactionsInIsolation runs ValidateTransactionInIsolation on every
// transaction of block.
func CheckTransactionsInIsolation(transactionValidator model.TransactionValidator,
	block *externalapi.DomainBlock) error {

	for _, tx := range block.Transactions {
		err := transactionValidator.ValidateTransactionInIsolation(tx)
		if err != nil {
			return errors.Wrapf(err, "transaction %s failed isolation "+
				"check", consensushashing.TransactionID(tx))
		}
	}
	return nil
}

// BlockMerkleRootRule checks the header merkle root, and rejects blocks
// whose transaction list was mutated without changing it.
type BlockMerkleRootRule struct{}

// NewBlockMerkleRootRule creates a BlockMerkleRootRule.
func NewBlockMerkleRootRule() *BlockMerkleRootRule {
	return &BlockMerkleRootRule{}
}

// Name implements ruleengine.Rule.
func (r *BlockMerkleRootRule) Name() string { return "BlockMerkleRootRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *BlockMerkleRootRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	root, mutated := merkle.BlockMerkleRoot(vc.Block)
	if *root != vc.Header().MerkleRoot {
		return errors.Wrapf(ruleerrors.ErrBadMerkleRoot, "block merkle root is invalid - block "+
			"header indicates %s, but calculated value is %s", vc.Header().MerkleRoot, root)
	}
	if mutated {
		return errors.Wrapf(ruleerrors.ErrBadTransactionDuplicate, "block %s has a mutated "+
			"transaction list", vc.ChainedHeader.Hash)
	}
	return nil
}

// TransactionDuplicateRule rejects blocks holding the same transaction twice.
type TransactionDuplicateRule struct{}

// NewTransactionDuplicateRule creates a TransactionDuplicateRule.
func NewTransactionDuplicateRule() *TransactionDuplicateRule {
	return &TransactionDuplicateRule{}
}

// Name implements ruleengine.Rule.
func (r *TransactionDuplicateRule) Name() string { return "TransactionDuplicateRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *TransactionDuplicateRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	existingTxIDs := make(map[externalapi.DomainHash]struct{}, len(vc.Block.Transactions))
	for _, tx := range vc.Block.Transactions {
		id := consensushashing.TransactionID(tx)
		if _, exists := existingTxIDs[*id]; exists {
			return errors.Wrapf(ruleerrors.ErrBadTransactionDuplicate, "block contains duplicate "+
				"transaction %s", id)
		}
		existingTxIDs[*id] = struct{}{}
	}
	return nil
}

// TransactionLocktimeActivationRule checks that every transaction is final
// at the block's height and lock time cutoff.
type TransactionLocktimeActivationRule struct {
	transactionValidator model.TransactionValidator
}

// NewTransactionLocktimeActivationRule creates a TransactionLocktimeActivationRule.
func NewTransactionLocktimeActivationRule(transactionValidator model.TransactionValidator) *TransactionLocktimeActivationRule {
	return &TransactionLocktimeActivationRule{transactionValidator: transactionValidator}
}

// Name implements ruleengine.Rule.
func (r *TransactionLocktimeActivationRule) Name() string { return "TransactionLocktimeActivationRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *TransactionLocktimeActivationRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	lockTimeCutoff := vc.Header().Timestamp
	if vc.Flags.LockTimeFlags.HasFlag(externalapi.LockTimeMedianTimePast) {
		lockTimeCutoff = vc.ChainedHeader.Previous.PastMedianTime()
	}

	for _, tx := range vc.Block.Transactions {
		if !r.transactionValidator.IsFinalizedTransaction(tx, vc.ChainedHeader.Height, lockTimeCutoff) {
			return errors.Wrapf(ruleerrors.ErrBadTransactionNonFinal, "block contains unfinalized "+
				"transaction %s", consensushashing.TransactionID(tx))
		}
	}
	return nil
}

// CoinbaseHeightRule checks that the coinbase script starts with the block
// height once BIP34 is enforced.
type CoinbaseHeightRule struct{}

// NewCoinbaseHeightRule creates a CoinbaseHeightRule.
func NewCoinbaseHeightRule() *CoinbaseHeightRule {
	return &CoinbaseHeightRule{}
}

// Name implements ruleengine.Rule.
func (r *CoinbaseHeightRule) Name() string { return "CoinbaseHeightRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *CoinbaseHeightRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	if !vc.Flags.EnforceBIP34 {
		return nil
	}

	expectedPrefix := txscript.CoinbaseHeightPrefix(vc.ChainedHeader.Height)
	coinbaseScript := vc.Block.Transactions[0].Inputs[0].SignatureScript
	if !bytes.HasPrefix(coinbaseScript, expectedPrefix) {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseHeight, "coinbase script doesn't start with "+
			"the serialized block height %d", vc.ChainedHeader.Height)
	}
	return nil
}

// WitnessCommitmentsRule validates the witness commitment of the block.
type WitnessCommitmentsRule struct {
	inCoinbaseScript bool
}

// NewWitnessCommitmentsRule creates a WitnessCommitmentsRule. inCoinbaseScript
// selects where the commitment is looked for.
func NewWitnessCommitmentsRule(inCoinbaseScript bool) *WitnessCommitmentsRule {
	return &WitnessCommitmentsRule{inCoinbaseScript: inCoinbaseScript}
}

// Name implements ruleengine.Rule.
func (r *WitnessCommitmentsRule) Name() string { return "WitnessCommitmentsRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *WitnessCommitmentsRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	return witness.Validate(vc.Block, vc.Flags.Witness, r.inCoinbaseScript)
}

// BlockSizeRule bounds the block's transaction count, size and weight.
type BlockSizeRule struct {
	maxBlockWeight         uint64
	maxBlockBaseSize       uint64
	maxBlockSerializedSize uint64
	witnessScaleFactor     int
	serializationOptions   *serialization.Options
}

// NewBlockSizeRule creates a BlockSizeRule.
func NewBlockSizeRule(maxBlockWeight, maxBlockBaseSize, maxBlockSerializedSize uint64, witnessScaleFactor int,
	serializationOptions *serialization.Options) *BlockSizeRule {

	return &BlockSizeRule{
		maxBlockWeight:         maxBlockWeight,
		maxBlockBaseSize:       maxBlockBaseSize,
		maxBlockSerializedSize: maxBlockSerializedSize,
		witnessScaleFactor:     witnessScaleFactor,
		serializationOptions:   serializationOptions,
	}
}

// Name implements ruleengine.Rule.
func (r *BlockSizeRule) Name() string { return "BlockSizeRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *BlockSizeRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	block := vc.Block
	weight := uint64(serialization.BlockWeight(block, r.witnessScaleFactor, r.serializationOptions))
	if weight > r.maxBlockWeight {
		return errors.Wrapf(ruleerrors.ErrBadBlockWeight, "block weight %d exceeds the maximum %d",
			weight, r.maxBlockWeight)
	}

	txCount := uint64(len(block.Transactions))
	if txCount > r.maxBlockBaseSize {
		return errors.Wrapf(ruleerrors.ErrBadBlockLength, "block contains too many transactions: %d",
			txCount)
	}

	baseSize := uint64(serialization.BlockSerializeSize(block, false, r.serializationOptions))
	if baseSize > r.maxBlockBaseSize {
		return errors.Wrapf(ruleerrors.ErrBadBlockLength, "block base size %d exceeds the maximum %d",
			baseSize, r.maxBlockBaseSize)
	}

	totalSize := uint64(serialization.BlockSerializeSize(block, true, r.serializationOptions))
	if totalSize > r.maxBlockSerializedSize {
		return errors.Wrapf(ruleerrors.ErrBadBlockLength, "block size %d exceeds the maximum %d",
			totalSize, r.maxBlockSerializedSize)
	}
	return nil
}

// CheckSigOpsRule bounds the legacy signature operations of the block,
// before any output is known.
type CheckSigOpsRule struct {
	maxBlockSigopsCost int64
	witnessScaleFactor int
}

// NewCheckSigOpsRule creates a CheckSigOpsRule.
func NewCheckSigOpsRule(maxBlockSigopsCost int64, witnessScaleFactor int) *CheckSigOpsRule {
	return &CheckSigOpsRule{maxBlockSigopsCost: maxBlockSigopsCost, witnessScaleFactor: witnessScaleFactor}
}

// Name implements ruleengine.Rule.
func (r *CheckSigOpsRule) Name() string { return "CheckSigOpsRule" }

// ValidatePartial implements ruleengine.PartialRule.
func (r *CheckSigOpsRule) ValidatePartial(vc *ruleengine.ValidationContext) error {
	var sigOps int64
	for _, tx := range vc.Block.Transactions {
		sigOps += int64(txscript.GetLegacySigOpCount(tx))
	}
	cost := sigOps * int64(r.witnessScaleFactor)
	if cost > r.maxBlockSigopsCost {
		return errors.Wrapf(ruleerrors.ErrBadBlockSigOps, "block legacy signature operation cost %d "+
			"exceeds the maximum %d", cost, r.maxBlockSigopsCost)
	}
	return nil
}

package blockrules

import (
	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/processes/scriptchecker"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hcd/domain/consensus/utils/txscript"
	"github.com/hybridchain/hcd/infrastructure/logger"
	"github.com/pkg/errors"
)

// LoadCoinviewRule fetches into the view the coins the block spends or could
// overwrite. Its failures are storage failures.
type LoadCoinviewRule struct{}

// NewLoadCoinviewRule creates a LoadCoinviewRule.
func NewLoadCoinviewRule() *LoadCoinviewRule {
	return &LoadCoinviewRule{}
}

// Name implements ruleengine.Rule.
func (r *LoadCoinviewRule) Name() string { return "LoadCoinviewRule" }

// ValidateFull implements ruleengine.FullRule.
func (r *LoadCoinviewRule) ValidateFull(vc *ruleengine.ValidationContext) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "LoadCoinviewRule")
	defer onEnd()

	var txIDs []*externalapi.DomainHash
	for _, tx := range vc.Block.Transactions {
		txIDs = append(txIDs, consensushashing.TransactionID(tx))
		if tx.IsCoinBase() {
			continue
		}
		for _, input := range tx.Inputs {
			txID := input.PreviousOutpoint.TransactionID
			txIDs = append(txIDs, &txID)
		}
	}
	return vc.View.LoadCoins(vc.Context(), txIDs)
}

// TransactionDuplicationRule rejects transactions that would overwrite an
// unspent transaction with the same id (BIP30).
type TransactionDuplicationRule struct{}

// NewTransactionDuplicationRule creates a TransactionDuplicationRule.
func NewTransactionDuplicationRule() *TransactionDuplicationRule {
	return &TransactionDuplicationRule{}
}

// Name implements ruleengine.Rule.
func (r *TransactionDuplicationRule) Name() string { return "TransactionDuplicationRule" }

// ValidateFull implements ruleengine.FullRule.
func (r *TransactionDuplicationRule) ValidateFull(vc *ruleengine.ValidationContext) error {
	if vc.SkipValidation || !vc.Flags.EnforceBIP30 {
		return nil
	}
	for _, tx := range vc.Block.Transactions {
		txID := consensushashing.TransactionID(tx)
		if vc.View.HaveCoins(txID) {
			return errors.Wrapf(ruleerrors.ErrBadTransactionBIP30, "transaction %s overwrites an "+
				"unspent transaction", txID)
		}
	}
	return nil
}

// CoinviewRule applies the block's transactions to the view, checking inputs,
// sequence locks, signature operation cost, maturity, fees and scripts on
// the way.
type CoinviewRule struct {
	strategy             CoinviewStrategy
	transactionValidator model.TransactionValidator
	scriptChecker        *scriptchecker.ScriptChecker
	maxBlockSigopsCost   int64
	witnessScaleFactor   int
	maxMoney             int64
}

// NewCoinviewRule creates a CoinviewRule.
func NewCoinviewRule(strategy CoinviewStrategy, transactionValidator model.TransactionValidator,
	scriptChecker *scriptchecker.ScriptChecker, maxBlockSigopsCost int64, witnessScaleFactor int,
	maxMoney int64) *CoinviewRule {

	return &CoinviewRule{
		strategy:             strategy,
		transactionValidator: transactionValidator,
		scriptChecker:        scriptChecker,
		maxBlockSigopsCost:   maxBlockSigopsCost,
		witnessScaleFactor:   witnessScaleFactor,
		maxMoney:             maxMoney,
	}
}

// Name implements ruleengine.Rule.
func (r *CoinviewRule) Name() string { return "CoinviewRule" }

// ValidateFull implements ruleengine.FullRule.
func (r *CoinviewRule) ValidateFull(vc *ruleengine.ValidationContext) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "CoinviewRule")
	defer onEnd()

	err := r.strategy.PrepareBlock(vc)
	if err != nil {
		return err
	}

	var batch *scriptchecker.Batch
	if !vc.SkipValidation {
		batch = r.scriptChecker.NewBatch()
		// Checks still running after an early return only read copies.
		defer func() { _ = batch.Wait() }()
	}

	var sigOpsCost int64
	for _, tx := range vc.Block.Transactions {
		txID := consensushashing.TransactionID(tx)

		spentCoins, err := r.spentCoins(vc, tx)
		if err != nil {
			return err
		}

		if !vc.SkipValidation {
			sigOpsCost, err = r.checkTransaction(vc, batch, tx, txID, spentCoins, sigOpsCost)
			if err != nil {
				return err
			}
		}

		err = r.strategy.RecordTransaction(vc, tx)
		if err != nil {
			return err
		}

		err = r.updateView(vc, tx, txID)
		if err != nil {
			return err
		}
	}

	if vc.SkipValidation {
		return nil
	}

	err = r.strategy.CheckBlockReward(vc)
	if err != nil {
		return err
	}
	return batch.Wait()
}

// spentCoins returns the coins holding each input of tx, in input order. It
// is nil for the coinbase.
func (r *CoinviewRule) spentCoins(vc *ruleengine.ValidationContext,
	tx *externalapi.DomainTransaction) ([]*externalapi.UnspentOutputs, error) {

	if tx.IsCoinBase() {
		return nil, nil
	}

	spentCoins := make([]*externalapi.UnspentOutputs, len(tx.Inputs))
	var missingOutpoints []*externalapi.DomainOutpoint
	for i, input := range tx.Inputs {
		coins, output := vc.View.Output(&input.PreviousOutpoint)
		if output == nil {
			outpoint := input.PreviousOutpoint
			missingOutpoints = append(missingOutpoints, &outpoint)
			continue
		}
		spentCoins[i] = coins
	}
	if len(missingOutpoints) > 0 {
		return nil, ruleerrors.NewErrMissingTxOut(missingOutpoints)
	}
	return spentCoins, nil
}

func (r *CoinviewRule) checkTransaction(vc *ruleengine.ValidationContext, batch *scriptchecker.Batch,
	tx *externalapi.DomainTransaction, txID *externalapi.DomainHash,
	spentCoins []*externalapi.UnspentOutputs, sigOpsCost int64) (int64, error) {

	height := vc.ChainedHeader.Height
	isProtocol := r.strategy.IsProtocolTransaction(tx)

	if !isProtocol {
		prevHeights := make([]uint64, len(spentCoins))
		for i, coins := range spentCoins {
			prevHeights[i] = coins.Height
		}
		if !r.transactionValidator.CheckSequenceLocks(tx, prevHeights, vc.ChainedHeader, vc.Flags.LockTimeFlags) {
			return 0, errors.Wrapf(ruleerrors.ErrBadTransactionNonFinal, "transaction %s has "+
				"unsatisfied relative lock times", txID)
		}
	}

	sigOpsCost += txscript.GetTransactionSigOpCost(tx, func(input *externalapi.DomainTransactionInput) *externalapi.DomainTransactionOutput {
		_, output := vc.View.Output(&input.PreviousOutpoint)
		return output
	}, vc.Flags.ScriptFlags, r.witnessScaleFactor)
	if sigOpsCost > r.maxBlockSigopsCost {
		return 0, errors.Wrapf(ruleerrors.ErrBadBlockSigOps, "block signature operation cost %d "+
			"exceeds the maximum %d at transaction %s", sigOpsCost, r.maxBlockSigopsCost, txID)
	}

	if tx.IsCoinBase() {
		return sigOpsCost, nil
	}

	spentOutputs := make([]*externalapi.DomainTransactionOutput, len(tx.Inputs))
	for i, input := range tx.Inputs {
		err := r.strategy.CheckMaturity(spentCoins[i], height)
		if err != nil {
			return 0, err
		}
		spentOutputs[i] = spentCoins[i].Output(input.PreviousOutpoint.Index)
	}

	if !isProtocol {
		fee, err := r.transactionValidator.CheckInputAmounts(tx, spentOutputs)
		if err != nil {
			return 0, errors.Wrapf(err, "transaction %s", txID)
		}
		vc.Fees += fee
		if vc.Fees < 0 || vc.Fees > r.maxMoney {
			return 0, errors.Wrapf(ruleerrors.ErrBadTransactionFeeOutOfRange, "accumulated fees %d "+
				"are out of range", vc.Fees)
		}
	}

	for i := range tx.Inputs {
		batch.Add(tx, txID, i, spentOutputs[i], vc.Flags.ScriptFlags)
	}
	return sigOpsCost, nil
}

func (r *CoinviewRule) updateView(vc *ruleengine.ValidationContext, tx *externalapi.DomainTransaction,
	txID *externalapi.DomainHash) error {

	if !tx.IsCoinBase() {
		for _, input := range tx.Inputs {
			_, err := vc.View.Spend(&input.PreviousOutpoint)
			if err != nil {
				return err
			}
		}
	}
	vc.View.AddTransaction(txID, tx, vc.ChainedHeader.Height, vc.Header().Timestamp)
	return nil
}

// SaveCoinviewRule turns the view into the delta the block applies to the
// coin store, on top of the previous block.
type SaveCoinviewRule struct{}

// NewSaveCoinviewRule creates a SaveCoinviewRule.
func NewSaveCoinviewRule() *SaveCoinviewRule {
	return &SaveCoinviewRule{}
}

// Name implements ruleengine.Rule.
func (r *SaveCoinviewRule) Name() string { return "SaveCoinviewRule" }

// ValidateFull implements ruleengine.FullRule.
func (r *SaveCoinviewRule) ValidateFull(vc *ruleengine.ValidationContext) error {
	vc.Delta = vc.View.Delta(&vc.ChainedHeader.Previous.Hash, &vc.ChainedHeader.Hash, vc.ChainedHeader.Height)
	log.Debugf("Block %s spends %d outputs and updates %d transactions", vc.ChainedHeader.Hash,
		len(vc.Delta.Spent), len(vc.Delta.Updated))
	return nil
}

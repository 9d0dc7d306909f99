package blockrules

import (
	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// CoinviewStrategy holds the network specific parts of CoinviewRule.
type CoinviewStrategy interface {
	// IsProtocolTransaction returns whether tx is created by the block's
	// producer, and so skips sequence lock and fee accounting.
	IsProtocolTransaction(tx *externalapi.DomainTransaction) bool

	// CheckMaturity checks that coins may be spent at spendHeight.
	CheckMaturity(coins *externalapi.UnspentOutputs, spendHeight uint64) error

	// PrepareBlock runs before any transaction is applied to the view.
	PrepareBlock(vc *ruleengine.ValidationContext) error

	// RecordTransaction runs before the inputs of tx are spent.
	RecordTransaction(vc *ruleengine.ValidationContext, tx *externalapi.DomainTransaction) error

	// CheckBlockReward checks what the block pays its producer once every
	// transaction was applied.
	CheckBlockReward(vc *ruleengine.ValidationContext) error
}

// PowCoinviewStrategy is the CoinviewStrategy of proof-of-work networks.
type PowCoinviewStrategy struct {
	coinbaseManager  model.CoinbaseManager
	coinbaseMaturity uint64
}

// NewPowCoinviewStrategy creates a PowCoinviewStrategy.
func NewPowCoinviewStrategy(coinbaseManager model.CoinbaseManager, coinbaseMaturity uint64) *PowCoinviewStrategy {
	return &PowCoinviewStrategy{coinbaseManager: coinbaseManager, coinbaseMaturity: coinbaseMaturity}
}

// IsProtocolTransaction implements CoinviewStrategy.
func (s *PowCoinviewStrategy) IsProtocolTransaction(tx *externalapi.DomainTransaction) bool {
	return tx.IsCoinBase()
}

// CheckMaturity implements CoinviewStrategy.
func (s *PowCoinviewStrategy) CheckMaturity(coins *externalapi.UnspentOutputs, spendHeight uint64) error {
	return CheckCoinbaseMaturity(coins, spendHeight, s.coinbaseMaturity)
}

// PrepareBlock implements CoinviewStrategy.
func (s *PowCoinviewStrategy) PrepareBlock(*ruleengine.ValidationContext) error {
	return nil
}

// RecordTransaction implements CoinviewStrategy.
func (s *PowCoinviewStrategy) RecordTransaction(*ruleengine.ValidationContext, *externalapi.DomainTransaction) error {
	return nil
}

// CheckBlockReward implements CoinviewStrategy.
func (s *PowCoinviewStrategy) CheckBlockReward(vc *ruleengine.ValidationContext) error {
	return CheckCoinbaseReward(vc, s.coinbaseManager.ProofOfWorkReward(vc.ChainedHeader.Height))
}

// CheckCoinbaseMaturity rejects spends of coinbase outputs fewer than maturity
// blocks after they were confirmed.
func CheckCoinbaseMaturity(coins *externalapi.UnspentOutputs, spendHeight uint64, maturity uint64) error {
	if !coins.IsCoinBase {
		return nil
	}
	if spendHeight-coins.Height < maturity {
		return errors.Wrapf(ruleerrors.ErrBadTransactionPrematureCoinbaseSpending, "tried to spend "+
			"coinbase transaction %s from height %d at height %d before required maturity of %d blocks",
			coins.TransactionID, coins.Height, spendHeight, maturity)
	}
	return nil
}

// CheckCoinbaseReward checks that the coinbase pays at most the block fees
// plus subsidy.
func CheckCoinbaseReward(vc *ruleengine.ValidationContext, subsidy int64) error {
	coinbaseOut := vc.Block.Transactions[0].TotalOut()
	if coinbaseOut > vc.Fees+subsidy {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseAmount, "coinbase transaction for block pays %d "+
			"which is more than expected value of %d", coinbaseOut, vc.Fees+subsidy)
	}
	return nil
}

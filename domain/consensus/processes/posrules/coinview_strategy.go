package posrules

import (
	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/processes/blockrules"
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
)

// PosCoinviewStrategy is the blockrules.CoinviewStrategy of proof-of-stake
// networks. It checks the stake kernel and computes the block's stake record
// before the block is applied.
type PosCoinviewStrategy struct {
	coinbaseManager   model.CoinbaseManager
	stakeValidator    model.StakeValidator
	stakeChain        model.StakeChain
	coinbaseMaturity  uint64
	coinstakeMaturity uint64
	maxMoney          int64
}

// NewPosCoinviewStrategy creates a PosCoinviewStrategy.
func NewPosCoinviewStrategy(coinbaseManager model.CoinbaseManager, stakeValidator model.StakeValidator,
	stakeChain model.StakeChain, coinbaseMaturity, coinstakeMaturity uint64, maxMoney int64) *PosCoinviewStrategy {

	return &PosCoinviewStrategy{
		coinbaseManager:   coinbaseManager,
		stakeValidator:    stakeValidator,
		stakeChain:        stakeChain,
		coinbaseMaturity:  coinbaseMaturity,
		coinstakeMaturity: coinstakeMaturity,
		maxMoney:          maxMoney,
	}
}

// IsProtocolTransaction implements blockrules.CoinviewStrategy.
func (s *PosCoinviewStrategy) IsProtocolTransaction(tx *externalapi.DomainTransaction) bool {
	return tx.IsCoinBase() || tx.IsCoinStake()
}

// CheckMaturity implements blockrules.CoinviewStrategy.
func (s *PosCoinviewStrategy) CheckMaturity(coins *externalapi.UnspentOutputs, spendHeight uint64) error {
	err := blockrules.CheckCoinbaseMaturity(coins, spendHeight, s.coinbaseMaturity)
	if err != nil {
		return err
	}

	if coins.IsCoinStake && spendHeight-coins.Height < s.coinstakeMaturity {
		return errors.Wrapf(ruleerrors.ErrBadTransactionPrematureCoinstakeSpending, "tried to spend "+
			"coinstake transaction %s from height %d at height %d before required maturity of %d blocks",
			coins.TransactionID, coins.Height, spendHeight, s.coinstakeMaturity)
	}
	return nil
}

// TransactionTime returns the time the stake kernel of coinstake commits to.
func TransactionTime(coinstake *externalapi.DomainTransaction, header *externalapi.DomainBlockHeader) uint32 {
	if coinstake.HasTimestamp {
		return coinstake.Timestamp
	}
	return header.Timestamp
}

// PrepareBlock implements blockrules.CoinviewStrategy. It fills the block's
// stake record, checking the proof of stake unless validation is skipped.
func (s *PosCoinviewStrategy) PrepareBlock(vc *ruleengine.ValidationContext) error {
	prev := vc.ChainedHeader.Previous
	blockHash := &vc.ChainedHeader.Hash
	blockStake := vc.Stake.BlockStake

	prevStakeModifier, err := s.stakeValidator.PreviousStakeModifier(prev)
	if err != nil {
		return err
	}

	var kernel *externalapi.DomainHash
	if vc.IsProofOfStakeBlock() {
		coinstake := vc.Block.Transactions[1]
		prevout := coinstake.Inputs[0].PreviousOutpoint
		transactionTime := TransactionTime(coinstake, vc.Header())

		if !vc.SkipValidation {
			prevStake, err := s.stakeChain.Get(&prev.Hash)
			if err != nil {
				return err
			}
			if prevStake == nil {
				return errors.Wrapf(ruleerrors.ErrPrevStakeNull, "no stake record for block %s", prev.Hash)
			}

			stakingCoins := vc.View.AccessCoins(&prevout.TransactionID)
			hashProof, err := s.stakeValidator.CheckProofOfStake(prev, prevStake, coinstake, stakingCoins,
				vc.Header().Bits, transactionTime)
			if err != nil {
				return err
			}
			vc.Stake.KernelHash = hashProof
			blockStake.HashProof = *hashProof
		}

		blockStake.Flags |= externalapi.BlockStakeFlagProofOfStake
		blockStake.StakeTime = transactionTime
		blockStake.PrevoutStake = prevout
		kernel = &prevout.TransactionID
	} else {
		blockStake.HashProof = *blockHash
		kernel = blockHash
	}

	blockStake.SetStakeEntropyBit(blockHash)
	blockStake.StakeModifierV2 = *s.stakeValidator.ComputeStakeModifierV2(prev, prevStakeModifier, kernel)
	return nil
}

// RecordTransaction implements blockrules.CoinviewStrategy. It captures the
// outputs the coinstake spends while they are still in the view.
func (s *PosCoinviewStrategy) RecordTransaction(vc *ruleengine.ValidationContext,
	tx *externalapi.DomainTransaction) error {

	if !vc.IsProofOfStakeBlock() || tx != vc.Block.Transactions[1] {
		return nil
	}

	var valueIn int64
	prevOutputs := make([]*externalapi.DomainTransactionOutput, len(tx.Inputs))
	for i, input := range tx.Inputs {
		_, output := vc.View.Output(&input.PreviousOutpoint)
		if output == nil {
			return ruleerrors.NewErrMissingTxOut([]*externalapi.DomainOutpoint{&input.PreviousOutpoint})
		}
		if output.Value < 0 || output.Value > s.maxMoney-valueIn {
			return errors.Wrapf(ruleerrors.ErrBadTransactionInputValueOutOfRange, "coinstake inputs "+
				"are out of range")
		}
		valueIn += output.Value
		prevOutputs[i] = output.Clone()
	}

	vc.Stake.CoinstakeValueIn = valueIn
	vc.Stake.CoinstakePrevOutputs = prevOutputs
	return nil
}

// CheckBlockReward implements blockrules.CoinviewStrategy.
func (s *PosCoinviewStrategy) CheckBlockReward(vc *ruleengine.ValidationContext) error {
	height := vc.ChainedHeader.Height
	if !vc.IsProofOfStakeBlock() {
		return blockrules.CheckCoinbaseReward(vc, s.coinbaseManager.ProofOfWorkReward(height))
	}

	stakeReward := vc.Block.Transactions[1].TotalOut() - vc.Stake.CoinstakeValueIn
	allowed := vc.Fees + s.coinbaseManager.ProofOfStakeReward(height)
	if stakeReward > allowed {
		return errors.Wrapf(ruleerrors.ErrBadCoinstakeAmount, "coinstake rewards %d which is more "+
			"than the allowed %d", stakeReward, allowed)
	}
	return nil
}

package blockrules_test

import (
	"testing"

	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/processes/blockrules"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hcd/domain/consensus/utils/testutils"
	"github.com/hybridchain/hcd/domain/consensus/utils/txscript"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const coin = 100000000

func TestConnectSpendingBlock(t *testing.T) {
	h := newPowHarness(t, powRegtestParams(), 10, ruleSetOptions{})
	funding := h.store.fund(fundingTransaction(h.params, 10*coin, 1), 3)

	spend := testutils.Spend(h.params, 9*coin, 0, funding)
	coinbase := h.coinbase(h.subsidy + coin)
	vc := h.connect(h.nextBlock(coinbase, spend))

	require.Equal(t, int64(coin), vc.Fees)
	require.Len(t, vc.Delta.Spent, 1)
	require.Equal(t, *funding, vc.Delta.Spent[0].Outpoint)
	require.Equal(t, vc.ChainedHeader.Hash, h.store.tip)

	require.NotContains(t, h.store.coins, funding.TransactionID)
	require.Contains(t, h.store.coins, *consensushashing.TransactionID(spend))
	coinbaseCoins := h.store.coins[*consensushashing.TransactionID(coinbase)]
	require.NotNil(t, coinbaseCoins)
	require.True(t, coinbaseCoins.IsCoinBase)
	require.Equal(t, vc.ChainedHeader.Height, coinbaseCoins.Height)

	// Spending the same output again must fail.
	coinbase = h.coinbase(h.subsidy)
	_, err := h.validate(h.nextBlock(coinbase, testutils.Spend(h.params, 8*coin, 0, funding)))
	require.True(t, errors.Is(err, ruleerrors.ErrBadTransactionMissingInput), "unexpected error: %+v", err)
	missing := ruleerrors.ErrMissingTxOut{}
	require.True(t, errors.As(err, &missing))
	require.Equal(t, []*externalapi.DomainOutpoint{funding}, missing.MissingOutpoints)
}

func TestCoinbaseReward(t *testing.T) {
	tests := []struct {
		name          string
		extra         int64
		expectedError error
	}{
		{name: "exact reward", extra: 0},
		{name: "less than the reward", extra: -coin},
		{name: "one satoshi too much", extra: 1, expectedError: ruleerrors.ErrBadCoinbaseAmount},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := newPowHarness(t, powRegtestParams(), 10, ruleSetOptions{})
			funding := h.store.fund(fundingTransaction(h.params, 10*coin, 1), 3)
			spend := testutils.Spend(h.params, 10*coin-5000, 0, funding)

			_, err := h.validate(h.nextBlock(h.coinbase(h.subsidy+5000+test.extra), spend))
			if test.expectedError == nil {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, test.expectedError), "expected %s, got %+v", test.expectedError, err)
		})
	}
}

func TestCoinbaseMaturity(t *testing.T) {
	const chainLength = 120
	params := powRegtestParams()
	spendHeight := uint64(chainLength + 1)

	tests := []struct {
		name          string
		coinbaseAge   uint64
		expectedError error
	}{
		{name: "mature", coinbaseAge: params.CoinbaseMaturity},
		{name: "one block short", coinbaseAge: params.CoinbaseMaturity - 1,
			expectedError: ruleerrors.ErrBadTransactionPrematureCoinbaseSpending},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := newPowHarness(t, params, chainLength, ruleSetOptions{})
			fundingHeight := spendHeight - test.coinbaseAge
			fundingCoinbase := testutils.Coinbase(params, fundingHeight, 0, 0, testutils.OpTrueOutput(10*coin))
			funding := h.store.fund(fundingCoinbase, fundingHeight)

			spend := testutils.Spend(params, 10*coin, 0, funding)
			_, err := h.validate(h.nextBlock(h.coinbase(h.subsidy), spend))
			if test.expectedError == nil {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, test.expectedError), "expected %s, got %+v", test.expectedError, err)
		})
	}
}

func TestCheckCoinbaseMaturity(t *testing.T) {
	coins := &externalapi.UnspentOutputs{Height: 10, IsCoinBase: true}
	require.Error(t, blockrules.CheckCoinbaseMaturity(coins, 109, 100))
	require.NoError(t, blockrules.CheckCoinbaseMaturity(coins, 110, 100))

	coins.IsCoinBase = false
	require.NoError(t, blockrules.CheckCoinbaseMaturity(coins, 11, 100))
}

func TestBlockSigOpsCostCrossing(t *testing.T) {
	params := powRegtestParams()
	checkSigScript := []byte{txscript.OpCheckSig}
	// Each spend carries one legacy signature operation in its output.
	costPerSpend := int64(params.WitnessScaleFactor)

	tests := []struct {
		name          string
		maxCost       int64
		expectedError error
	}{
		{name: "at the limit", maxCost: 2 * costPerSpend},
		{name: "second spend crosses the limit", maxCost: 2*costPerSpend - 1, expectedError: ruleerrors.ErrBadBlockSigOps},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := newPowHarness(t, params, 10, ruleSetOptions{maxBlockSigopsCost: test.maxCost})
			var spends []*externalapi.DomainTransaction
			for i := byte(1); i <= 2; i++ {
				funding := h.store.fund(fundingTransaction(params, coin, i), 3)
				spend := testutils.Spend(params, coin, 0, funding)
				spend.Outputs[0].ScriptPublicKey = checkSigScript
				spends = append(spends, spend)
			}

			_, err := h.validate(h.nextBlock(append([]*externalapi.DomainTransaction{h.coinbase(h.subsidy)}, spends...)...))
			if test.expectedError == nil {
				require.NoError(t, err)
				return
			}
			require.True(t, errors.Is(err, test.expectedError), "expected %s, got %+v", test.expectedError, err)
		})
	}
}

func TestScriptFailureRejectsBlock(t *testing.T) {
	h := newPowHarness(t, powRegtestParams(), 10, ruleSetOptions{})
	fundingTx := fundingTransaction(h.params, coin, 1)
	fundingTx.Outputs[0].ScriptPublicKey = []byte{txscript.OpCheckSig}
	funding := h.store.fund(fundingTx, 3)

	_, err := h.validate(h.nextBlock(h.coinbase(h.subsidy), testutils.Spend(h.params, coin, 0, funding)))
	require.True(t, errors.Is(err, ruleerrors.ErrBadTransactionScriptError), "unexpected error: %+v", err)
	scriptFailure := ruleerrors.ErrScriptFailure{}
	require.True(t, errors.As(err, &scriptFailure))
	require.Equal(t, 0, scriptFailure.InputIndex)
}

func TestTransactionOverwritingUnspentCoins(t *testing.T) {
	h := newPowHarness(t, powRegtestParams(), 10, ruleSetOptions{})
	coinbase := h.coinbase(h.subsidy)
	h.store.fund(coinbase, 1)

	_, err := h.validate(h.nextBlock(coinbase))
	require.True(t, errors.Is(err, ruleerrors.ErrBadTransactionBIP30), "unexpected error: %+v", err)
}

func TestCheckpointSkipsValidation(t *testing.T) {
	const chainLength = 10
	params := powRegtestParams()

	h := newPowHarness(t, params, chainLength, ruleSetOptions{})
	// The script of this spend doesn't verify and the coinbase overpays.
	fundingTx := fundingTransaction(params, coin, 1)
	fundingTx.Outputs[0].ScriptPublicKey = []byte{txscript.OpCheckSig}
	funding := h.store.fund(fundingTx, 3)
	invalidBlock := h.nextBlock(h.coinbase(h.subsidy+coin), testutils.Spend(params, coin, 0, funding))
	invalidBlockHash := consensushashing.BlockHash(invalidBlock)

	tests := []struct {
		name             string
		checkpointHeight uint64
		expectedError    error
	}{
		{name: "checkpoint at the block", checkpointHeight: chainLength + 1},
		{name: "checkpoint below the block", checkpointHeight: chainLength,
			expectedError: ruleerrors.ErrBadCoinbaseAmount},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			checkpointParams := *params
			checkpointHash := invalidBlockHash
			if test.checkpointHeight != chainLength+1 {
				checkpointHash = &h.tip.Ancestor(test.checkpointHeight).Hash
			}
			checkpointParams.Checkpoints = []chaincfg.Checkpoint{{Height: test.checkpointHeight, Hash: checkpointHash}}

			checkpointHarness := newPowHarness(t, &checkpointParams, chainLength, ruleSetOptions{})
			checkpointHarness.store = h.store
			vc, err := checkpointHarness.validate(invalidBlock)
			if test.expectedError != nil {
				require.True(t, errors.Is(err, test.expectedError), "expected %s, got %+v", test.expectedError, err)
				require.False(t, vc.SkipValidation)
				return
			}
			require.NoError(t, err)
			require.True(t, vc.SkipValidation)
			require.NotNil(t, vc.Delta)
			require.Len(t, vc.Delta.Spent, 1)
		})
	}
}

func TestCheckpointViolation(t *testing.T) {
	const chainLength = 10
	params := powRegtestParams()
	params.Checkpoints = []chaincfg.Checkpoint{{Height: chainLength + 1, Hash: &externalapi.DomainHash{0xff}}}

	h := newPowHarness(t, params, chainLength, ruleSetOptions{})
	_, err := h.validate(h.nextBlock(h.coinbase(h.subsidy)))
	require.True(t, errors.Is(err, ruleerrors.ErrCheckpointViolation), "unexpected error: %+v", err)
}

func TestConnectChainOfBlocks(t *testing.T) {
	h := newPowHarness(t, powRegtestParams(), 10, ruleSetOptions{})
	funding := h.store.fund(fundingTransaction(h.params, 10*coin, 1), 3)

	for i := 0; i < 5; i++ {
		spend := testutils.Spend(h.params, 10*coin-int64(i+1)*1000, 0, funding)
		h.connect(h.nextBlock(h.coinbase(h.subsidy+1000), spend))
		funding = &externalapi.DomainOutpoint{TransactionID: *consensushashing.TransactionID(spend), Index: 0}
	}
	require.EqualValues(t, 15, h.tip.Height)
	require.Contains(t, h.store.coins, funding.TransactionID)
}

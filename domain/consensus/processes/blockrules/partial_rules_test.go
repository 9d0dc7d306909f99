package blockrules_test

import (
	"context"
	"testing"
	"time"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/processes/blockrules"
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/testutils"
	"github.com/hybridchain/hcd/domain/consensus/utils/txscript"
	"github.com/stretchr/testify/require"
)

// blockContext returns the context of block on top of a short header chain.
func blockContext(t *testing.T, build func(prev *externalapi.ChainedHeader) *externalapi.DomainBlock) *ruleengine.ValidationContext {
	params := powRegtestParams()
	prev := testutils.HeaderChain(params, 5, 600)
	block := build(prev)
	vc := ruleengine.NewValidationContext(context.Background(), params, testutils.ChainBlock(block, prev), block,
		nil, time.Now())
	vc.Flags = &externalapi.DeploymentFlags{}
	return vc
}

func spendOf(seed byte) *externalapi.DomainTransaction {
	return testutils.Spend(powRegtestParams(), coin, 0, &externalapi.DomainOutpoint{TransactionID: externalapi.DomainHash{seed}})
}

func TestBlockMerkleRootRule(t *testing.T) {
	params := powRegtestParams()
	rule := blockrules.NewBlockMerkleRootRule()

	var coinbase *externalapi.DomainTransaction
	valid := blockContext(t, func(prev *externalapi.ChainedHeader) *externalapi.DomainBlock {
		coinbase = testutils.Coinbase(params, prev.Height+1, 0, 0, testutils.OpTrueOutput(coin))
		return testutils.NewBlock(params, prev, prev.Timestamp()+600, params.PowLimitBits, coinbase, spendOf(1), spendOf(2))
	})
	require.NoError(t, rule.ValidatePartial(valid))

	// Duplicating the last transaction keeps the merkle root.
	mutated := blockContext(t, func(prev *externalapi.ChainedHeader) *externalapi.DomainBlock {
		block := testutils.NewBlock(params, prev, prev.Timestamp()+600, params.PowLimitBits, coinbase, spendOf(1), spendOf(2))
		block.Transactions = append(block.Transactions, spendOf(2))
		return block
	})
	require.Equal(t, valid.Header().MerkleRoot, mutated.Header().MerkleRoot)
	requireRuleError(t, rule.ValidatePartial(mutated), ruleerrors.ErrBadTransactionDuplicate)

	wrongRoot := blockContext(t, func(prev *externalapi.ChainedHeader) *externalapi.DomainBlock {
		block := testutils.NewBlock(params, prev, prev.Timestamp()+600, params.PowLimitBits, coinbase, spendOf(1))
		block.Transactions = append(block.Transactions, spendOf(3))
		return block
	})
	requireRuleError(t, rule.ValidatePartial(wrongRoot), ruleerrors.ErrBadMerkleRoot)
}

func TestTransactionDuplicateRule(t *testing.T) {
	params := powRegtestParams()
	vc := blockContext(t, func(prev *externalapi.ChainedHeader) *externalapi.DomainBlock {
		coinbase := testutils.Coinbase(params, prev.Height+1, 0, 0, testutils.OpTrueOutput(coin))
		return testutils.NewBlock(params, prev, prev.Timestamp()+600, params.PowLimitBits, coinbase, spendOf(1), spendOf(1))
	})
	requireRuleError(t, blockrules.NewTransactionDuplicateRule().ValidatePartial(vc), ruleerrors.ErrBadTransactionDuplicate)
}

func TestEnsureCoinbaseRule(t *testing.T) {
	params := powRegtestParams()
	rule := blockrules.NewEnsureCoinbaseRule()

	tests := []struct {
		name          string
		transactions  func(height uint64) []*externalapi.DomainTransaction
		expectedError error
	}{
		{
			name: "coinbase first",
			transactions: func(height uint64) []*externalapi.DomainTransaction {
				return []*externalapi.DomainTransaction{testutils.Coinbase(params, height, 0, 0), spendOf(1)}
			},
		},
		{
			name: "no coinbase",
			transactions: func(uint64) []*externalapi.DomainTransaction {
				return []*externalapi.DomainTransaction{spendOf(1)}
			},
			expectedError: ruleerrors.ErrBadCoinbaseMissing,
		},
		{
			name: "second coinbase",
			transactions: func(height uint64) []*externalapi.DomainTransaction {
				return []*externalapi.DomainTransaction{testutils.Coinbase(params, height, 0, 0),
					testutils.Coinbase(params, height, 1, 0)}
			},
			expectedError: ruleerrors.ErrBadMultipleCoinbase,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			vc := blockContext(t, func(prev *externalapi.ChainedHeader) *externalapi.DomainBlock {
				return testutils.NewBlock(params, prev, prev.Timestamp()+600, params.PowLimitBits,
					test.transactions(prev.Height+1)...)
			})
			requireRuleError(t, rule.ValidatePartial(vc), test.expectedError)
		})
	}
}

func TestCoinbaseHeightRule(t *testing.T) {
	params := powRegtestParams()
	rule := blockrules.NewCoinbaseHeightRule()

	tests := []struct {
		name          string
		enforceBIP34  bool
		heightOffset  uint64
		expectedError error
	}{
		{name: "right height", enforceBIP34: true},
		{name: "wrong height", enforceBIP34: true, heightOffset: 1, expectedError: ruleerrors.ErrBadCoinbaseHeight},
		{name: "wrong height before BIP34", heightOffset: 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			vc := blockContext(t, func(prev *externalapi.ChainedHeader) *externalapi.DomainBlock {
				coinbase := testutils.Coinbase(params, prev.Height+1+test.heightOffset, 0, 0)
				return testutils.NewBlock(params, prev, prev.Timestamp()+600, params.PowLimitBits, coinbase)
			})
			vc.Flags.EnforceBIP34 = test.enforceBIP34
			requireRuleError(t, rule.ValidatePartial(vc), test.expectedError)
		})
	}
}

func TestCheckSigOpsRule(t *testing.T) {
	params := powRegtestParams()
	vc := blockContext(t, func(prev *externalapi.ChainedHeader) *externalapi.DomainBlock {
		spend := spendOf(1)
		spend.Outputs[0].ScriptPublicKey = []byte{txscript.OpCheckSig, txscript.OpCheckSig}
		coinbase := testutils.Coinbase(params, prev.Height+1, 0, 0)
		return testutils.NewBlock(params, prev, prev.Timestamp()+600, params.PowLimitBits, coinbase, spend)
	})

	cost := int64(2 * params.WitnessScaleFactor)
	require.NoError(t, blockrules.NewCheckSigOpsRule(cost, params.WitnessScaleFactor).ValidatePartial(vc))
	requireRuleError(t, blockrules.NewCheckSigOpsRule(cost-1, params.WitnessScaleFactor).ValidatePartial(vc),
		ruleerrors.ErrBadBlockSigOps)
}

func TestBlockSizeRule(t *testing.T) {
	params := powRegtestParams()
	vc := blockContext(t, func(prev *externalapi.ChainedHeader) *externalapi.DomainBlock {
		coinbase := testutils.Coinbase(params, prev.Height+1, 0, 0, testutils.OpTrueOutput(coin))
		return testutils.NewBlock(params, prev, prev.Timestamp()+600, params.PowLimitBits, coinbase, spendOf(1))
	})

	options := params.SerializationOptions()
	valid := blockrules.NewBlockSizeRule(params.MaxBlockWeight, params.MaxBlockBaseSize,
		params.MaxBlockSerializedSize, params.WitnessScaleFactor, options)
	require.NoError(t, valid.ValidatePartial(vc))

	tooSmallBase := blockrules.NewBlockSizeRule(params.MaxBlockWeight, 100, params.MaxBlockSerializedSize,
		params.WitnessScaleFactor, options)
	requireRuleError(t, tooSmallBase.ValidatePartial(vc), ruleerrors.ErrBadBlockLength)

	tooSmallWeight := blockrules.NewBlockSizeRule(100, params.MaxBlockBaseSize, params.MaxBlockSerializedSize,
		params.WitnessScaleFactor, options)
	requireRuleError(t, tooSmallWeight.ValidatePartial(vc), ruleerrors.ErrBadBlockWeight)

	// Weight is checked before the base and serialized sizes.
	tooSmallEverything := blockrules.NewBlockSizeRule(100, 100, 100, params.WitnessScaleFactor, options)
	requireRuleError(t, tooSmallEverything.ValidatePartial(vc), ruleerrors.ErrBadBlockWeight)
}

func TestBlockIntegrityRule(t *testing.T) {
	params := powRegtestParams()
	rule := blockrules.NewBlockIntegrityRule()
	build := func(prev *externalapi.ChainedHeader) *externalapi.DomainBlock {
		coinbase := testutils.Coinbase(params, prev.Height+1, 0, 0)
		return testutils.NewBlock(params, prev, prev.Timestamp()+600, params.PowLimitBits, coinbase)
	}

	vc := blockContext(t, build)
	require.NoError(t, rule.CheckIntegrity(vc))

	vc = blockContext(t, build)
	vc.Block.Transactions = nil
	requireRuleError(t, rule.CheckIntegrity(vc), ruleerrors.ErrNoTransactions)

	vc = blockContext(t, build)
	vc.Block.Header.Nonce++
	requireRuleError(t, rule.CheckIntegrity(vc), ruleerrors.ErrBadBlockHash)
}

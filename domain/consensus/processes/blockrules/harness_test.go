package blockrules_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/processes/blockrules"
	"github.com/hybridchain/hcd/domain/consensus/processes/checkpoints"
	"github.com/hybridchain/hcd/domain/consensus/processes/coinbasemanager"
	"github.com/hybridchain/hcd/domain/consensus/processes/deploymentmanager"
	"github.com/hybridchain/hcd/domain/consensus/processes/difficultymanager"
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/processes/scriptchecker"
	"github.com/hybridchain/hcd/domain/consensus/processes/transactionvalidator"
	"github.com/hybridchain/hcd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hcd/domain/consensus/utils/mining"
	"github.com/hybridchain/hcd/domain/consensus/utils/testutils"
	"github.com/hybridchain/hcd/domain/consensus/utils/txscript"
	"github.com/hybridchain/hcd/domain/consensus/utils/utxo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type memoryCoinStore struct {
	coins map[externalapi.DomainHash]*externalapi.UnspentOutputs
	tip   externalapi.DomainHash
}

func newMemoryCoinStore(tip *externalapi.DomainHash) *memoryCoinStore {
	return &memoryCoinStore{
		coins: make(map[externalapi.DomainHash]*externalapi.UnspentOutputs),
		tip:   *tip,
	}
}

func (s *memoryCoinStore) FetchCoins(_ context.Context, txIDs []*externalapi.DomainHash) ([]*externalapi.UnspentOutputs, error) {
	result := make([]*externalapi.UnspentOutputs, len(txIDs))
	for i, txID := range txIDs {
		if coins, ok := s.coins[*txID]; ok {
			result[i] = coins.Clone()
		}
	}
	return result, nil
}

func (s *memoryCoinStore) TipHash(context.Context) (*externalapi.DomainHash, error) {
	tip := s.tip
	return &tip, nil
}

func (s *memoryCoinStore) ApplyDelta(_ context.Context, delta *externalapi.UTXODelta) error {
	if delta.OldTip != s.tip {
		return errors.Errorf("delta applies on %s but the store is at %s", delta.OldTip, s.tip)
	}
	for _, coins := range delta.Updated {
		if coins.IsPrunable() {
			delete(s.coins, coins.TransactionID)
			continue
		}
		s.coins[coins.TransactionID] = coins.Clone()
	}
	s.tip = delta.NewTip
	return nil
}

// fund puts the outputs of tx into the store as if it was confirmed at
// height, and returns the outpoint of its first output.
func (s *memoryCoinStore) fund(tx *externalapi.DomainTransaction, height uint64) *externalapi.DomainOutpoint {
	txID := consensushashing.TransactionID(tx)
	s.coins[*txID] = externalapi.NewUnspentOutputs(txID, tx, height, 0)
	return &externalapi.DomainOutpoint{TransactionID: *txID, Index: 0}
}

type ruleSetOptions struct {
	maxBlockSigopsCost int64
	chainIndex         model.ChainIndex
}

// powRuleSet returns the proof-of-work rules of params, in the order the
// consensus engine registers them.
func powRuleSet(params *chaincfg.Params, options ruleSetOptions) []ruleengine.Rule {
	maxBlockSigopsCost := params.MaxBlockSigopsCost
	if options.maxBlockSigopsCost != 0 {
		maxBlockSigopsCost = options.maxBlockSigopsCost
	}

	checkpointsProvider := checkpoints.New(params.Checkpoints, true)
	transactionValidator := transactionvalidator.New(params.MaxMoney, params.MaxBlockBaseSize,
		params.MinCoinbaseScriptLen, params.MaxCoinbaseScriptLen, false)
	deploymentManager := deploymentmanager.New(params.Deployments, params.RuleChangeActivationThreshold,
		params.MinerConfirmationWindow, params.BuriedDeployments, params.BIP30Exceptions)
	difficultyManager := difficultymanager.New(params.PowLimit, params.PowTargetTimespan, params.PowTargetSpacing,
		params.PowAllowMinDifficultyBlocks, params.PowNoRetargeting)
	coinbaseManager := coinbasemanager.New(false, params.SubsidyHalvingInterval, params.BaseSubsidy, 0, 0, 0, 0)
	scriptChecker := scriptchecker.New(txscript.AnyoneCanSpendVerifier{}, 4)

	return []ruleengine.Rule{
		blockrules.NewHeaderTipRule(),
		blockrules.NewCheckpointsRule(checkpointsProvider),
		blockrules.NewAssumeValidRule(params.AssumeValid, options.chainIndex),
		blockrules.NewSetActivationDeploymentsRule(deploymentManager),
		blockrules.NewHeaderVersionRule(params.MinBlockVersion, params.MaxBlockVersion,
			params.BuriedDeployments.BIP34Height, params.BuriedDeployments.BIP65Height,
			params.BuriedDeployments.BIP66Height),
		blockrules.NewHeaderTimeChecksRule(params.MaxTimeOffset),
		blockrules.NewCheckDifficultyPowRule(params.PowLimit),
		blockrules.NewBlockHeaderPowContextualRule(difficultyManager),

		blockrules.NewBlockIntegrityRule(),

		blockrules.NewEnsureCoinbaseRule(),
		blockrules.NewCheckPowTransactionRule(transactionValidator),
		blockrules.NewBlockMerkleRootRule(),
		blockrules.NewTransactionDuplicateRule(),
		blockrules.NewTransactionLocktimeActivationRule(transactionValidator),
		blockrules.NewCoinbaseHeightRule(),
		blockrules.NewWitnessCommitmentsRule(params.WitnessCommitmentInCoinbaseScript),
		blockrules.NewBlockSizeRule(params.MaxBlockWeight, params.MaxBlockBaseSize, params.MaxBlockSerializedSize,
			params.WitnessScaleFactor, params.SerializationOptions()),
		blockrules.NewCheckSigOpsRule(maxBlockSigopsCost, params.WitnessScaleFactor),

		blockrules.NewLoadCoinviewRule(),
		blockrules.NewTransactionDuplicationRule(),
		blockrules.NewCoinviewRule(blockrules.NewPowCoinviewStrategy(coinbaseManager, params.CoinbaseMaturity),
			transactionValidator, scriptChecker, maxBlockSigopsCost, params.WitnessScaleFactor, params.MaxMoney),
		blockrules.NewSaveCoinviewRule(),
	}
}

// powHarness connects blocks on top of a chain of bare headers, keeping a
// coin store in sync with its tip.
type powHarness struct {
	t       *testing.T
	params  *chaincfg.Params
	engine  *ruleengine.RuleEngine
	store   *memoryCoinStore
	tip     *externalapi.ChainedHeader
	now     time.Time
	rd      *rand.Rand
	subsidy int64
}

func newPowHarness(t *testing.T, params *chaincfg.Params, chainLength int, options ruleSetOptions) *powHarness {
	tip := testutils.HeaderChain(params, chainLength, 600)
	engine, err := ruleengine.New(ruleengine.NewRegistry(powRuleSet(params, options)...))
	require.NoError(t, err)

	return &powHarness{
		t:       t,
		params:  params,
		engine:  engine,
		store:   newMemoryCoinStore(&tip.Hash),
		tip:     tip,
		now:     time.Unix(int64(tip.Timestamp())+24*60*60, 0),
		rd:      rand.New(rand.NewSource(0)),
		subsidy: coinbasemanager.New(false, params.SubsidyHalvingInterval, params.BaseSubsidy, 0, 0, 0, 0).ProofOfWorkReward(tip.Height + 1),
	}
}

func (h *powHarness) nextHeight() uint64 {
	return h.tip.Height + 1
}

func (h *powHarness) nextTimestamp() uint32 {
	return h.tip.Timestamp() + 600
}

func (h *powHarness) coinbase(value int64) *externalapi.DomainTransaction {
	return testutils.Coinbase(h.params, h.nextHeight(), 0, h.nextTimestamp(), testutils.OpTrueOutput(value))
}

// nextBlock returns a solved block on top of the harness tip.
func (h *powHarness) nextBlock(transactions ...*externalapi.DomainTransaction) *externalapi.DomainBlock {
	block := testutils.NewBlock(h.params, h.tip, h.nextTimestamp(), h.params.PowLimitBits, transactions...)
	mining.SolveBlock(block, h.rd)
	return block
}

// resolve updates the merkle root of a modified block and solves it again.
func (h *powHarness) resolve(block *externalapi.DomainBlock) {
	testutils.UpdateMerkleRoot(block)
	mining.SolveBlock(block, h.rd)
}

func (h *powHarness) validate(block *externalapi.DomainBlock) (*ruleengine.ValidationContext, error) {
	chainedHeader := testutils.ChainBlock(block, h.tip)
	vc := ruleengine.NewValidationContext(context.Background(), h.params, chainedHeader, block,
		utxo.NewView(h.store), h.now)
	return vc, h.engine.ValidateBlock(vc)
}

func (h *powHarness) connect(block *externalapi.DomainBlock) *ruleengine.ValidationContext {
	vc, err := h.validate(block)
	require.NoError(h.t, err)
	require.NoError(h.t, h.store.ApplyDelta(context.Background(), vc.Delta))
	h.tip = vc.ChainedHeader
	return vc
}

// fundingTransaction returns a non coinbase transaction paying value to
// OpTrueScript, distinct per seed.
func fundingTransaction(params *chaincfg.Params, value int64, seed byte) *externalapi.DomainTransaction {
	return testutils.Spend(params, value, 0, &externalapi.DomainOutpoint{TransactionID: externalapi.DomainHash{seed}})
}

func powRegtestParams() *chaincfg.Params {
	params := chaincfg.PowRegtestParams
	return &params
}

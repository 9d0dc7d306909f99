package consensus

import (
	"context"
	"runtime"

	"github.com/hybridchain/hcd/domain/consensus/datastructures/coinstore"
	"github.com/hybridchain/hcd/domain/consensus/datastructures/stakechainstore"
	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/processes/blockrules"
	"github.com/hybridchain/hcd/domain/consensus/processes/checkpoints"
	"github.com/hybridchain/hcd/domain/consensus/processes/coinbasemanager"
	"github.com/hybridchain/hcd/domain/consensus/processes/deploymentmanager"
	"github.com/hybridchain/hcd/domain/consensus/processes/difficultymanager"
	"github.com/hybridchain/hcd/domain/consensus/processes/posrules"
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/processes/scriptchecker"
	"github.com/hybridchain/hcd/domain/consensus/processes/stakevalidator"
	"github.com/hybridchain/hcd/domain/consensus/processes/transactionvalidator"
	"github.com/hybridchain/hcd/domain/consensus/utils/txscript"
	"github.com/hybridchain/hcd/infrastructure/db/database"
	"github.com/pkg/errors"
)

// Factory instantiates new consensus engines
type Factory interface {
	NewConsensus(ctx context.Context, config *Config, db database.Database) (*Engine, error)
	NewConsensusWithStores(config *Config, coinStore model.CoinStore, stakeChain model.StakeChain) (*Engine, error)

	SetTestDifficultyManager(difficultyManagerConstructor DifficultyManagerConstructor)
	SetTestStakeValidator(stakeValidatorConstructor StakeValidatorConstructor)
}

type factory struct {
	difficultyManagerConstructor DifficultyManagerConstructor
	stakeValidatorConstructor    StakeValidatorConstructor
}

// NewFactory creates a new Consensus factory
func NewFactory() Factory {
	return &factory{
		difficultyManagerConstructor: difficultymanager.New,
		stakeValidatorConstructor:    stakevalidator.New,
	}
}

// NewConsensus instantiates a new engine whose coin store and stake chain
// live in db.
func (f *factory) NewConsensus(ctx context.Context, config *Config, db database.Database) (*Engine, error) {
	levelDBCoinStore, err := coinstore.New(db, config.GenesisHash)
	if err != nil {
		return nil, err
	}
	var coinStore model.CoinStore = levelDBCoinStore
	if config.CoinCacheSize > 0 {
		coinStore, err = coinstore.NewCachedCoinStore(ctx, levelDBCoinStore, config.CoinCacheSize,
			config.CoinCacheMaxDirty, config.CoinCacheFlushInterval)
		if err != nil {
			return nil, err
		}
	}

	var stakeChain model.StakeChain
	if config.IsProofOfStake {
		stakeChain, err = stakechainstore.New(db, config.GenesisHash)
		if err != nil {
			return nil, err
		}
	}
	return f.NewConsensusWithStores(config, coinStore, stakeChain)
}

// NewConsensusWithStores instantiates a new engine over the given stores.
// stakeChain may be nil on proof-of-work networks.
func (f *factory) NewConsensusWithStores(config *Config, coinStore model.CoinStore,
	stakeChain model.StakeChain) (*Engine, error) {

	params := &config.Params

	scriptVerifier := config.ScriptVerifier
	if scriptVerifier == nil {
		scriptVerifier = txscript.AnyoneCanSpendVerifier{}
	}
	scriptThreads := config.ScriptThreads
	if scriptThreads <= 0 {
		scriptThreads = runtime.NumCPU()
	}
	timeSource := config.TimeSource
	if timeSource == nil {
		timeSource = localClock{}
	}

	// Processes
	checkpointsProvider := checkpoints.New(params.Checkpoints, !config.DisableCheckpoints)
	transactionValidator := transactionvalidator.New(params.MaxMoney, params.MaxBlockBaseSize,
		params.MinCoinbaseScriptLen, params.MaxCoinbaseScriptLen, params.IsProofOfStake)
	deploymentManager := deploymentmanager.New(params.Deployments, params.RuleChangeActivationThreshold,
		params.MinerConfirmationWindow, params.BuriedDeployments, params.BIP30Exceptions)
	coinbaseManager := coinbasemanager.New(params.IsProofOfStake, params.SubsidyHalvingInterval, params.BaseSubsidy,
		params.PremineHeight, params.PremineReward, params.ProofOfWorkReward, params.ProofOfStakeReward)
	scriptChecker := scriptchecker.New(scriptVerifier, scriptThreads)

	headerRules := []ruleengine.Rule{
		blockrules.NewHeaderTipRule(),
		blockrules.NewCheckpointsRule(checkpointsProvider),
		blockrules.NewAssumeValidRule(config.assumeValid(), config.ChainIndex),
		blockrules.NewSetActivationDeploymentsRule(deploymentManager),
		blockrules.NewHeaderVersionRule(params.MinBlockVersion, params.MaxBlockVersion,
			params.BuriedDeployments.BIP34Height, params.BuriedDeployments.BIP65Height,
			params.BuriedDeployments.BIP66Height),
	}
	integrityRules := []ruleengine.Rule{
		blockrules.NewBlockIntegrityRule(),
	}
	sharedPartialRules := []ruleengine.Rule{
		blockrules.NewBlockMerkleRootRule(),
		blockrules.NewTransactionDuplicateRule(),
		blockrules.NewTransactionLocktimeActivationRule(transactionValidator),
		blockrules.NewCoinbaseHeightRule(),
		blockrules.NewWitnessCommitmentsRule(params.WitnessCommitmentInCoinbaseScript),
		blockrules.NewBlockSizeRule(params.MaxBlockWeight, params.MaxBlockBaseSize, params.MaxBlockSerializedSize,
			params.WitnessScaleFactor, params.SerializationOptions()),
		blockrules.NewCheckSigOpsRule(params.MaxBlockSigopsCost, params.WitnessScaleFactor),
	}

	var rules []ruleengine.Rule
	if !params.IsProofOfStake {
		difficultyManager := f.difficultyManagerConstructor(params.PowLimit, params.PowTargetTimespan,
			params.PowTargetSpacing, params.PowAllowMinDifficultyBlocks, params.PowNoRetargeting)
		strategy := blockrules.NewPowCoinviewStrategy(coinbaseManager, params.CoinbaseMaturity)

		rules = append(rules, headerRules...)
		rules = append(rules,
			blockrules.NewHeaderTimeChecksRule(params.MaxTimeOffset),
			blockrules.NewCheckDifficultyPowRule(params.PowLimit),
			blockrules.NewBlockHeaderPowContextualRule(difficultyManager))
		rules = append(rules, integrityRules...)
		rules = append(rules,
			blockrules.NewEnsureCoinbaseRule(),
			blockrules.NewCheckPowTransactionRule(transactionValidator))
		rules = append(rules, sharedPartialRules...)
		rules = append(rules,
			blockrules.NewLoadCoinviewRule(),
			blockrules.NewTransactionDuplicationRule(),
			blockrules.NewCoinviewRule(strategy, transactionValidator, scriptChecker,
				params.MaxBlockSigopsCost, params.WitnessScaleFactor, params.MaxMoney),
			blockrules.NewSaveCoinviewRule())
	} else {
		if stakeChain == nil {
			return nil, errors.Errorf("network %s is proof-of-stake but no stake chain was given", params.Name)
		}
		stakeValidator := f.stakeValidatorConstructor(params.PowLimit, params.ProofOfStakeLimitV2,
			params.PosTargetSpacing, params.PosTargetTimespan, params.PowNoRetargeting, params.PosNoRetargeting,
			params.StakeMinConfirmations, stakeChain, checkpointsProvider, scriptVerifier)
		strategy := posrules.NewPosCoinviewStrategy(coinbaseManager, stakeValidator, stakeChain,
			params.CoinbaseMaturity, params.CoinstakeMaturity, params.MaxMoney)

		rules = append(rules, headerRules...)
		rules = append(rules,
			posrules.NewPosFutureDriftRule(params.DriftingBugFixTimestamp))
		rules = append(rules, integrityRules...)
		rules = append(rules,
			posrules.NewPosBlockSignatureRepresentationRule(),
			blockrules.NewEnsureCoinbaseRule(),
			posrules.NewCheckPosTransactionRule(transactionValidator))
		rules = append(rules, sharedPartialRules...)
		rules = append(rules,
			posrules.NewPosTimeMaskRule(params.LastPOWBlock, params.StakeTimestampMask,
				params.TransactionsHaveTimestamp),
			posrules.NewCheckDifficultyHybridRule(stakeValidator, params.PowLimit),
			posrules.NewPosCoinstakeRule(params.TransactionsHaveTimestamp),
			posrules.NewPosBlockSignatureRule(),
			blockrules.NewLoadCoinviewRule(),
			blockrules.NewTransactionDuplicationRule(),
			blockrules.NewCoinviewRule(strategy, transactionValidator, scriptChecker,
				params.MaxBlockSigopsCost, params.WitnessScaleFactor, params.MaxMoney),
			posrules.NewColdStakingRule(),
			blockrules.NewSaveCoinviewRule())
	}

	ruleEngine, err := ruleengine.New(ruleengine.NewRegistry(rules...))
	if err != nil {
		return nil, err
	}

	log.Infof("Consensus engine for %s ready with %d header, %d integrity, %d partial and %d full rules",
		params.Name, len(ruleEngine.RuleNames(ruleengine.CategoryHeader)),
		len(ruleEngine.RuleNames(ruleengine.CategoryIntegrity)),
		len(ruleEngine.RuleNames(ruleengine.CategoryPartial)),
		len(ruleEngine.RuleNames(ruleengine.CategoryFull)))

	return &Engine{
		params:     params,
		ruleEngine: ruleEngine,
		coinStore:  coinStore,
		stakeChain: stakeChain,
		timeSource: timeSource,
	}, nil
}

func (f *factory) SetTestDifficultyManager(difficultyManagerConstructor DifficultyManagerConstructor) {
	f.difficultyManagerConstructor = difficultyManagerConstructor
}

func (f *factory) SetTestStakeValidator(stakeValidatorConstructor StakeValidatorConstructor) {
	f.stakeValidatorConstructor = stakeValidatorConstructor
}

// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math"
	"math/big"
	"time"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/difficulty"
	"github.com/hybridchain/hcd/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// These variables are the proof-of-work and proof-of-stake limit parameters
// for each default network.
var (
	// bigOne is 1 represented as a big.Int. It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// powMainnetLimit is the highest proof of work value a block can have
	// for the proof-of-work main network. It is the value 2^224 - 1.
	powMainnetLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	// regtestPowLimit is the highest proof of work value a block can have
	// for the regression test networks. It is the value 2^255 - 1.
	regtestPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

	// posMainnetPowLimit is the highest proof of work value a block can
	// have before the last proof-of-work block of the proof-of-stake main
	// network. It is the value 2^236 - 1.
	posMainnetPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 236), bigOne)

	// posMainnetStakeLimit is the highest kernel target of a proof-of-stake
	// block. It is the value 2^208 - 1.
	posMainnetStakeLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 208), bigOne)
)

const (
	coin = 100000000

	// witnessScaleFactor is the discount applied to witness data when
	// computing block weight.
	witnessScaleFactor = 4

	// maxTimeOffset is the maximum a proof-of-work block timestamp may be
	// ahead of the adjusted time.
	maxTimeOffset = 2 * time.Hour
)

// ConsensusDeployment defines details related to a specific consensus rule
// change that is voted in. This is part of BIP0009.
type ConsensusDeployment struct {
	// BitNumber defines the specific bit number within the block version
	// this particular soft-fork deployment refers to.
	BitNumber uint8

	// StartTime is the median block time after which voting on the
	// deployment starts.
	StartTime uint64

	// ExpireTime is the median block time after which the attempted
	// deployment expires.
	ExpireTime uint64
}

// Special deployment times.
const (
	// DeploymentNoTimeout marks a deployment that never expires.
	DeploymentNoTimeout uint64 = math.MaxUint64

	// DeploymentAlwaysActive, used as a StartTime, marks a deployment that
	// is active from genesis.
	DeploymentAlwaysActive uint64 = math.MaxUint64 - 1

	// DeploymentNeverActive, used as a StartTime, marks a deployment that
	// can never activate.
	DeploymentNeverActive uint64 = math.MaxUint64 - 2
)

// Constants that define the deployment offset in the deployments field of the
// parameters for each deployment. This is useful to be able to get the details
// of a specific deployment by name.
const (
	// DeploymentCSV defines the rule change deployment ID for the CSV
	// soft-fork package. The CSV package includes the deployment of BIPS
	// 68, 112, and 113.
	DeploymentCSV = iota

	// DeploymentSegwit defines the rule change deployment ID for the
	// Segregated Witness (segwit) soft-fork package. The segwit package
	// includes the deployment of BIPS 141, 142, 144, 145, 147 and 173.
	DeploymentSegwit

	// DeploymentColdStaking defines the rule change deployment ID for
	// cold staking scripts.
	DeploymentColdStaking

	// NOTE: DefinedDeployments must always come last since it is used to
	// determine how many defined deployments there currently are.

	// DefinedDeployments is the number of currently defined deployments.
	DefinedDeployments
)

// BuriedDeployments holds the activation heights of soft forks that are
// enforced by height rather than by version bits voting.
type BuriedDeployments struct {
	// BIP16Time is the block time from which pay-to-script-hash is
	// enforced.
	BIP16Time uint32

	BIP34Height uint64

	// BIP34Hash is the block at BIP34Height. A chain through it can no
	// longer create duplicate transactions, so BIP30 checks are skipped
	// above it.
	BIP34Hash *externalapi.DomainHash

	BIP65Height uint64
	BIP66Height uint64
}

// Checkpoint identifies a known good point in the block chain. On
// proof-of-stake networks a checkpoint may also pin the stake modifier.
type Checkpoint struct {
	Height          uint64
	Hash            *externalapi.DomainHash
	StakeModifierV2 *externalapi.DomainHash
}

// ConsensusOptions holds the per-network policy constants the rules consult.
type ConsensusOptions struct {
	// MaxMoney is the maximal amount, in base units, any single output or
	// sum of outputs may hold.
	MaxMoney int64

	MaxBlockWeight         uint64
	MaxBlockBaseSize       uint64
	MaxBlockSerializedSize uint64
	MaxBlockSigopsCost     int64
	WitnessScaleFactor     int

	// CoinbaseMaturity is the number of blocks required before newly mined
	// coins can be spent.
	CoinbaseMaturity uint64

	MaxStandardTxWeight  uint64
	MinCoinbaseScriptLen int
	MaxCoinbaseScriptLen int
}

// Params defines a network by its parameters.
type Params struct {
	ConsensusOptions

	// Name defines a human-readable identifier for the network.
	Name string

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *externalapi.DomainBlock

	// GenesisHash is the starting block hash.
	GenesisHash *externalapi.DomainHash

	// PowLimit defines the highest allowed proof of work value for a block
	// as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	PowTargetTimespan time.Duration
	PowTargetSpacing  time.Duration

	// PowAllowMinDifficultyBlocks allows a block with the minimum
	// difficulty when no block was mined for twice the target spacing.
	PowAllowMinDifficultyBlocks bool

	// PowNoRetargeting keeps the difficulty of the previous block.
	PowNoRetargeting bool

	// SubsidyHalvingInterval is the interval of blocks before the subsidy
	// is reduced.
	SubsidyHalvingInterval uint64

	// BaseSubsidy is the subsidy of the first halving era.
	BaseSubsidy int64

	// MaxTimeOffset is the maximum a proof-of-work block timestamp may be
	// ahead of the adjusted time.
	MaxTimeOffset time.Duration

	BuriedDeployments BuriedDeployments

	// BIP30Exceptions are the historical blocks allowed to overwrite
	// unspent transactions.
	BIP30Exceptions []Checkpoint

	// MinBlockVersion is the lowest acceptable header version.
	MinBlockVersion int32

	// MaxBlockVersion is the highest header version without version bits
	// signaling this software understands. Zero disables the check.
	MaxBlockVersion int32

	// These fields are related to voting on consensus rule changes as
	// defined by BIP0009.
	//
	// RuleChangeActivationThreshold is the number of blocks in a threshold
	// state retarget window for which a positive vote for a rule change
	// must be cast in order to lock in a rule change. It should typically
	// be 95% for the main network and 75% for test networks.
	//
	// MinerConfirmationWindow is the number of blocks in each threshold
	// state retarget window.
	//
	// Deployments define the specific consensus rule changes to be voted
	// on.
	RuleChangeActivationThreshold uint64
	MinerConfirmationWindow       uint64
	Deployments                   [DefinedDeployments]ConsensusDeployment

	// Checkpoints ordered from oldest to newest.
	Checkpoints []Checkpoint

	// AssumeValid is the hash of a block whose ancestors' scripts are
	// assumed to be valid. Nil disables the optimization.
	AssumeValid *externalapi.DomainHash

	// IsProofOfStake is set on hybrid proof-of-work/proof-of-stake
	// networks. All the fields below apply only to such networks.
	IsProofOfStake bool

	// LastPOWBlock is the height of the last block allowed to be mined.
	LastPOWBlock uint64

	// ProofOfStakeLimitV2 is the easiest kernel target.
	ProofOfStakeLimitV2 *big.Int

	PosTargetSpacing  time.Duration
	PosTargetTimespan time.Duration
	PosNoRetargeting  bool

	// StakeMinConfirmations is the depth a staked output must have.
	StakeMinConfirmations uint64

	// StakeTimestampMask is the granularity mask of coinstake timestamps.
	StakeTimestampMask uint32

	// DriftingBugFixTimestamp is the time after which the allowed future
	// drift of a block shrinks.
	DriftingBugFixTimestamp uint32

	PremineHeight      uint64
	PremineReward      int64
	ProofOfWorkReward  int64
	ProofOfStakeReward int64

	// CoinstakeMaturity is the number of blocks required before coinstake
	// outputs can be spent.
	CoinstakeMaturity uint64

	// WitnessCommitmentInCoinbaseScript makes proof-of-stake blocks carry
	// their witness commitment in the coinbase input script, since their
	// coinbase has a single empty output.
	WitnessCommitmentInCoinbaseScript bool

	// TransactionsHaveTimestamp is set on networks whose transactions
	// carry a time field.
	TransactionsHaveTimestamp bool

	// BlocksHaveSignature is set on networks whose blocks carry a block
	// signature.
	BlocksHaveSignature bool
}

// DifficultyAdjustmentInterval returns the number of blocks between
// proof-of-work retargets.
func (p *Params) DifficultyAdjustmentInterval() uint64 {
	return uint64(p.PowTargetTimespan / p.PowTargetSpacing)
}

// PosRetargetInterval returns the averaging window of the proof-of-stake
// retarget, in blocks.
func (p *Params) PosRetargetInterval() int64 {
	return int64(p.PosTargetTimespan / p.PosTargetSpacing)
}

// SerializationOptions returns the wire format options of the network.
func (p *Params) SerializationOptions() *serialization.Options {
	return &serialization.Options{
		TransactionsHaveTimestamp: p.TransactionsHaveTimestamp,
		BlocksHaveSignature:       p.BlocksHaveSignature,
	}
}

// LastCheckpoint returns the newest checkpoint, or nil if there are none.
func (p *Params) LastCheckpoint() *Checkpoint {
	if len(p.Checkpoints) == 0 {
		return nil
	}
	return &p.Checkpoints[len(p.Checkpoints)-1]
}

var powMainnetOptions = ConsensusOptions{
	MaxMoney:               21000000 * coin,
	MaxBlockWeight:         4000000,
	MaxBlockBaseSize:       1000000,
	MaxBlockSerializedSize: 4000000,
	MaxBlockSigopsCost:     80000,
	WitnessScaleFactor:     witnessScaleFactor,
	CoinbaseMaturity:       100,
	MaxStandardTxWeight:    400000,
	MinCoinbaseScriptLen:   2,
	MaxCoinbaseScriptLen:   100,
}

var posMainnetOptions = ConsensusOptions{
	MaxMoney:               math.MaxInt64,
	MaxBlockWeight:         4000000,
	MaxBlockBaseSize:       1000000,
	MaxBlockSerializedSize: 4000000,
	MaxBlockSigopsCost:     20000,
	WitnessScaleFactor:     witnessScaleFactor,
	CoinbaseMaturity:       50,
	MaxStandardTxWeight:    100000,
	MinCoinbaseScriptLen:   2,
	MaxCoinbaseScriptLen:   100,
}

// PowMainnetParams defines the network parameters for the proof-of-work main
// network.
var PowMainnetParams = Params{
	ConsensusOptions: powMainnetOptions,
	Name:             "pow-mainnet",
	GenesisBlock:     &genesisBlock,
	GenesisHash:      genesisHash,

	PowLimit:                    powMainnetLimit,
	PowLimitBits:                0x1d00ffff,
	PowTargetTimespan:           14 * 24 * time.Hour,
	PowTargetSpacing:            10 * time.Minute,
	PowAllowMinDifficultyBlocks: false,
	PowNoRetargeting:            false,
	SubsidyHalvingInterval:      210000,
	BaseSubsidy:                 50 * coin,
	MaxTimeOffset:               maxTimeOffset,

	BuriedDeployments: BuriedDeployments{
		BIP16Time:   1333238400, // April 1st, 2012
		BIP34Height: 227931,
		BIP34Hash:   newHashFromStr("000000000000024b89b42a942fe0d9fea3bb44ab7bd1b19115dd6a759c0808b8"),
		BIP65Height: 388381,
		BIP66Height: 363725,
	},
	BIP30Exceptions: []Checkpoint{
		{Height: 91842, Hash: newHashFromStr("00000000000a4d0a398161ffc163c503763b1f4360639393e0e4c8e300e0caec")},
		{Height: 91880, Hash: newHashFromStr("00000000000743f190a18c5577a3c2d2a1f610ae9601ac046a38084ccb7cd721")},
	},
	MinBlockVersion: 1,

	RuleChangeActivationThreshold: 1916, // 95% of MinerConfirmationWindow
	MinerConfirmationWindow:       2016,
	Deployments: [DefinedDeployments]ConsensusDeployment{
		DeploymentCSV: {
			BitNumber:  0,
			StartTime:  1462060800, // May 1st, 2016
			ExpireTime: 1493596800, // May 1st, 2017
		},
		DeploymentSegwit: {
			BitNumber:  1,
			StartTime:  1479168000, // November 15, 2016 UTC
			ExpireTime: 1510704000, // November 15, 2017 UTC.
		},
		DeploymentColdStaking: {
			BitNumber:  2,
			StartTime:  DeploymentNeverActive,
			ExpireTime: DeploymentNoTimeout,
		},
	},

	Checkpoints: []Checkpoint{
		{Height: 11111, Hash: newHashFromStr("0000000069e244f73d78e8fd29ba2fd2ed618bd6fa2ee92559f542fdb26e7c1d")},
		{Height: 33333, Hash: newHashFromStr("000000002dd5588a74784eaa7ab0507a18ad16a236e7b1ce69f00d7ddfb5d0a6")},
		{Height: 74000, Hash: newHashFromStr("0000000000573993a3c9e41ce34471c079dcf5f52a0e824a81e7f953b8661a20")},
		{Height: 105000, Hash: newHashFromStr("00000000000291ce28027faea320c8d2b054b2e0fe44a773f3eefb151d6bdc97")},
		{Height: 134444, Hash: newHashFromStr("00000000000005b12ffd4cd315cd34ffd4a594f430ac814c91184a0d42d2b0fe")},
		{Height: 168000, Hash: newHashFromStr("000000000000099e61ea72015e79632f216fe6cb33d7899acb35b75c8303b763")},
		{Height: 193000, Hash: newHashFromStr("000000000000059f452a5f7340de6682a977387c17010ff6e6c3bd83ca8b1317")},
		{Height: 210000, Hash: newHashFromStr("000000000000048b95347e83192f69cf0366076336c639f9b7228e9ba171342e")},
		{Height: 216116, Hash: newHashFromStr("00000000000001b4f4b433e81ee46494af945cf96014816a4e2370f11b23df4e")},
		{Height: 225430, Hash: newHashFromStr("00000000000001c108384350f74090433e7fcf79a606b8e797f065b130575932")},
		{Height: 250000, Hash: newHashFromStr("000000000000003887df1f29024b06fc2200b55f8af8f35453d7be294df2d214")},
		{Height: 279000, Hash: newHashFromStr("0000000000000001ae8c72a0b0c301f67e3afca10e819efa9041e458e9bd7e40")},
		{Height: 295000, Hash: newHashFromStr("00000000000000004d9b4ef50f0f9d686fd69db2e03af35a100370c64632a983")},
	},
}

// PowRegtestParams defines the network parameters for the proof-of-work
// regression test network.
var PowRegtestParams = Params{
	ConsensusOptions: powMainnetOptions,
	Name:             "pow-regtest",
	GenesisBlock:     &regtestGenesisBlock,
	GenesisHash:      regtestGenesisHash,

	PowLimit:                    regtestPowLimit,
	PowLimitBits:                0x207fffff,
	PowTargetTimespan:           14 * 24 * time.Hour,
	PowTargetSpacing:            10 * time.Minute,
	PowAllowMinDifficultyBlocks: true,
	PowNoRetargeting:            true,
	SubsidyHalvingInterval:      150,
	BaseSubsidy:                 50 * coin,
	MaxTimeOffset:               maxTimeOffset,

	BuriedDeployments: BuriedDeployments{
		BIP34Height: 500,
		BIP65Height: 1351,
		BIP66Height: 1251,
	},
	MinBlockVersion: 1,

	RuleChangeActivationThreshold: 108, // 75%  of MinerConfirmationWindow
	MinerConfirmationWindow:       144,
	Deployments: [DefinedDeployments]ConsensusDeployment{
		DeploymentCSV: {
			BitNumber:  0,
			StartTime:  DeploymentAlwaysActive,
			ExpireTime: DeploymentNoTimeout,
		},
		DeploymentSegwit: {
			BitNumber:  1,
			StartTime:  DeploymentAlwaysActive,
			ExpireTime: DeploymentNoTimeout,
		},
		DeploymentColdStaking: {
			BitNumber:  2,
			StartTime:  DeploymentNeverActive,
			ExpireTime: DeploymentNoTimeout,
		},
	},
}

// PosMainnetParams defines the network parameters for the hybrid
// proof-of-work/proof-of-stake main network.
var PosMainnetParams = Params{
	ConsensusOptions: posMainnetOptions,
	Name:             "pos-mainnet",
	GenesisBlock:     &posGenesisBlock,
	GenesisHash:      posGenesisHash,

	PowLimit:               posMainnetPowLimit,
	PowLimitBits:           0x1e0fffff,
	PowTargetTimespan:      14 * 24 * time.Hour,
	PowTargetSpacing:       10 * time.Minute,
	SubsidyHalvingInterval: 210000,
	MaxTimeOffset:          maxTimeOffset,

	MinBlockVersion: 7,
	MaxBlockVersion: 7,

	RuleChangeActivationThreshold: 1916, // 95% of MinerConfirmationWindow
	MinerConfirmationWindow:       2016,
	Deployments: [DefinedDeployments]ConsensusDeployment{
		DeploymentCSV: {
			BitNumber:  0,
			StartTime:  1462060800, // May 1st, 2016
			ExpireTime: 1493596800, // May 1st, 2017
		},
		DeploymentSegwit: {
			BitNumber:  1,
			StartTime:  1479168000, // November 15, 2016 UTC
			ExpireTime: 1510704000, // November 15, 2017 UTC.
		},
		DeploymentColdStaking: {
			BitNumber:  2,
			StartTime:  1561939200, // July 1st, 2019
			ExpireTime: 1577836800, // January 1st, 2020
		},
	},

	Checkpoints: []Checkpoint{
		{Height: 0, Hash: posGenesisHash, StakeModifierV2: &externalapi.ZeroHash},
	},

	IsProofOfStake:          true,
	LastPOWBlock:            12500,
	ProofOfStakeLimitV2:     posMainnetStakeLimit,
	PosTargetSpacing:        64 * time.Second,
	PosTargetTimespan:       16 * time.Minute,
	StakeMinConfirmations:   50,
	StakeTimestampMask:      0x0000000F,
	DriftingBugFixTimestamp: 1510704000,

	PremineHeight:      2,
	PremineReward:      98000000 * coin,
	ProofOfWorkReward:  4 * coin,
	ProofOfStakeReward: 1 * coin,
	CoinstakeMaturity:  50,

	WitnessCommitmentInCoinbaseScript: true,
	TransactionsHaveTimestamp:         true,
	BlocksHaveSignature:               true,
}

// PosRegtestParams defines the network parameters for the hybrid
// proof-of-work/proof-of-stake regression test network.
var PosRegtestParams = Params{
	ConsensusOptions: withMaturity(posMainnetOptions, 10),
	Name:             "pos-regtest",
	GenesisBlock:     &posRegtestGenesisBlock,
	GenesisHash:      posRegtestGenesisHash,

	PowLimit:                    regtestPowLimit,
	PowLimitBits:                0x207fffff,
	PowTargetTimespan:           14 * 24 * time.Hour,
	PowTargetSpacing:            10 * time.Minute,
	PowAllowMinDifficultyBlocks: true,
	PowNoRetargeting:            true,
	SubsidyHalvingInterval:      210000,
	MaxTimeOffset:               maxTimeOffset,

	MinBlockVersion: 7,
	MaxBlockVersion: 7,

	RuleChangeActivationThreshold: 108, // 75%  of MinerConfirmationWindow
	MinerConfirmationWindow:       144,
	Deployments: [DefinedDeployments]ConsensusDeployment{
		DeploymentCSV: {
			BitNumber:  0,
			StartTime:  DeploymentAlwaysActive,
			ExpireTime: DeploymentNoTimeout,
		},
		DeploymentSegwit: {
			BitNumber:  1,
			StartTime:  DeploymentAlwaysActive,
			ExpireTime: DeploymentNoTimeout,
		},
		DeploymentColdStaking: {
			BitNumber:  2,
			StartTime:  DeploymentAlwaysActive,
			ExpireTime: DeploymentNoTimeout,
		},
	},

	IsProofOfStake:          true,
	LastPOWBlock:            12500,
	ProofOfStakeLimitV2:     regtestPowLimit,
	PosTargetSpacing:        64 * time.Second,
	PosTargetTimespan:       16 * time.Minute,
	PosNoRetargeting:        true,
	StakeMinConfirmations:   10,
	StakeTimestampMask:      0x0000000F,
	DriftingBugFixTimestamp: 1510704000,

	PremineHeight:      2,
	PremineReward:      98000000 * coin,
	ProofOfWorkReward:  4 * coin,
	ProofOfStakeReward: 1 * coin,
	CoinstakeMaturity:  10,

	WitnessCommitmentInCoinbaseScript: true,
	TransactionsHaveTimestamp:         true,
	BlocksHaveSignature:               true,
}

// ErrUnknownNetwork describes an error where the requested network is not
// one of the defined ones.
var ErrUnknownNetwork = errors.New("unknown network")

// AllParams lists every defined network.
var AllParams = []*Params{&PowMainnetParams, &PowRegtestParams, &PosMainnetParams, &PosRegtestParams}

// ParamsByName returns the network with the given name.
func ParamsByName(name string) (*Params, error) {
	for _, params := range AllParams {
		if params.Name == name {
			return params, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownNetwork, "network %q", name)
}

func withMaturity(options ConsensusOptions, maturity uint64) ConsensusOptions {
	options.CoinbaseMaturity = maturity
	return options
}

// newHashFromStr converts the passed big-endian hex string into a
// externalapi.DomainHash. It only differs from the one available in
// externalapi in that it panics on an error since it will only (and must
// only) be called with hard-coded, and therefore known good, hashes.
func newHashFromStr(hexStr string) *externalapi.DomainHash {
	return externalapi.MustNewDomainHashFromString(hexStr)
}

func init() {
	for _, params := range AllParams {
		if difficulty.CompactToBig(params.PowLimitBits).Cmp(params.PowLimit) > 0 {
			panic(errors.Errorf("%s: PowLimitBits exceeds PowLimit", params.Name))
		}
	}
}

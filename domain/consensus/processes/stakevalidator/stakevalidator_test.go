package stakevalidator

import (
	"math/big"
	"testing"
	"time"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/difficulty"
	"github.com/hybridchain/hcd/domain/consensus/utils/hashes"
	"github.com/hybridchain/hcd/domain/consensus/utils/txscript"
	"github.com/stretchr/testify/require"
)

var (
	testPowLimit = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 236), big.NewInt(1))
	testPosLimit = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
)

type fakeStakeChain map[externalapi.DomainHash]*externalapi.BlockStake

func (f fakeStakeChain) Get(blockHash *externalapi.DomainHash) (*externalapi.BlockStake, error) {
	return f[*blockHash], nil
}

func (f fakeStakeChain) Set(blockHash *externalapi.DomainHash, stake *externalapi.BlockStake) error {
	f[*blockHash] = stake
	return nil
}

type fakeCheckpoints map[uint64]*externalapi.DomainHash

func (f fakeCheckpoints) HardenedHash(uint64) (*externalapi.DomainHash, bool) { return nil, false }
func (f fakeCheckpoints) CheckHardened(uint64, *externalapi.DomainHash) bool { return true }
func (f fakeCheckpoints) LastCheckpointHeight() uint64                      { return 0 }
func (f fakeCheckpoints) StakeModifierAt(height uint64) (*externalapi.DomainHash, bool) {
	modifier, ok := f[height]
	return modifier, ok
}

func newTestStakeValidator(stakeChain fakeStakeChain, checkpoints fakeCheckpoints,
	posNoRetargeting bool) *stakeValidator {

	return New(testPowLimit, testPosLimit, 64*time.Second, 16*time.Minute, false, posNoRetargeting, 10,
		stakeChain, checkpoints, txscript.AnyoneCanSpendVerifier{}).(*stakeValidator)
}

// hybridChain builds genesis followed by blocks of the given kinds, one every
// 100 seconds, recording a stake record for each.
func hybridChain(stakeChain fakeStakeChain, proofOfStake ...bool) []*externalapi.ChainedHeader {
	var chain []*externalapi.ChainedHeader
	var prev *externalapi.ChainedHeader
	kinds := append([]bool{false}, proofOfStake...)
	for i, isPos := range kinds {
		header := &externalapi.DomainBlockHeader{
			Timestamp: 1000 + uint32(i)*100 + uint32(i*i),
			Bits:      0x1d00ffff - uint32(i),
		}
		hash := externalapi.DomainHash{byte(i + 1)}
		current := externalapi.NewChainedHeader(header, &hash, prev)
		stake := &externalapi.BlockStake{}
		if isPos {
			stake.Flags |= externalapi.BlockStakeFlagProofOfStake
		}
		stakeChain[hash] = stake
		chain = append(chain, current)
		prev = current
	}
	return chain
}

func TestCalculateRetarget(t *testing.T) {
	sv := newTestStakeValidator(fakeStakeChain{}, fakeCheckpoints{}, false)

	// Blocks exactly on target keep the difficulty.
	require.Equal(t, uint32(0x1d00ffff), sv.CalculateRetarget(1064, 0x1d00ffff, 1000, testPowLimit))

	// Out of order timestamps count as on target.
	require.Equal(t, uint32(0x1d00ffff), sv.CalculateRetarget(1000, 0x1d00ffff, 1064, testPowLimit))

	// Slow blocks ease the target, fast blocks harden it.
	slow := difficulty.CompactToBig(sv.CalculateRetarget(1200, 0x1d00ffff, 1000, testPowLimit))
	fast := difficulty.CompactToBig(sv.CalculateRetarget(1010, 0x1d00ffff, 1000, testPowLimit))
	original := difficulty.CompactToBig(0x1d00ffff)
	require.Equal(t, 1, slow.Cmp(original))
	require.Equal(t, -1, fast.Cmp(original))

	// The spacing is capped at ten times the target spacing.
	require.Equal(t,
		sv.CalculateRetarget(1000+640, 0x1d00ffff, 1000, testPowLimit),
		sv.CalculateRetarget(1000+100000, 0x1d00ffff, 1000, testPowLimit))

	// The target never exceeds the limit.
	limitBits := difficulty.BigToCompact(testPowLimit)
	require.Equal(t, limitBits, sv.CalculateRetarget(1000+640, limitBits, 1000, testPowLimit))
}

func TestGetNextTargetRequired(t *testing.T) {
	stakeChain := fakeStakeChain{}
	sv := newTestStakeValidator(stakeChain, fakeCheckpoints{}, false)
	chain := hybridChain(stakeChain, false, true, false, true)

	bits, err := sv.GetNextTargetRequired(nil, false)
	require.NoError(t, err)
	require.Equal(t, difficulty.BigToCompact(testPowLimit), bits)

	// Only genesis and a single proof-of-work block exist.
	bits, err = sv.GetNextTargetRequired(chain[0], true)
	require.NoError(t, err)
	require.Equal(t, difficulty.BigToCompact(testPosLimit), bits)
	bits, err = sv.GetNextTargetRequired(chain[1], false)
	require.NoError(t, err)
	require.Equal(t, difficulty.BigToCompact(testPowLimit), bits)

	// A single proof-of-stake block exists.
	bits, err = sv.GetNextTargetRequired(chain[3], true)
	require.NoError(t, err)
	require.Equal(t, difficulty.BigToCompact(testPosLimit), bits)

	// Proof-of-stake retargets from blocks 4 and 2.
	bits, err = sv.GetNextTargetRequired(chain[4], true)
	require.NoError(t, err)
	require.Equal(t, sv.CalculateRetarget(chain[4].Timestamp(), chain[4].Header.Bits,
		chain[2].Timestamp(), testPosLimit), bits)

	// Proof-of-work retargets from blocks 3 and 1.
	bits, err = sv.GetNextTargetRequired(chain[4], false)
	require.NoError(t, err)
	require.Equal(t, sv.CalculateRetarget(chain[3].Timestamp(), chain[3].Header.Bits,
		chain[1].Timestamp(), testPowLimit), bits)

	noRetarget := newTestStakeValidator(stakeChain, fakeCheckpoints{}, true)
	bits, err = noRetarget.GetNextTargetRequired(chain[4], true)
	require.NoError(t, err)
	require.Equal(t, chain[4].Header.Bits, bits)
}

func TestGetNextTargetRequiredMissingStake(t *testing.T) {
	stakeChain := fakeStakeChain{}
	sv := newTestStakeValidator(stakeChain, fakeCheckpoints{}, false)
	chain := hybridChain(stakeChain, false, false)
	delete(stakeChain, chain[1].Hash)

	_, err := sv.GetNextTargetRequired(chain[2], true)
	require.Error(t, err)
}

func TestStakeModifier(t *testing.T) {
	stakeChain := fakeStakeChain{}
	checkpointModifier := &externalapi.DomainHash{7}
	sv := newTestStakeValidator(stakeChain, fakeCheckpoints{1: checkpointModifier}, false)
	chain := hybridChain(stakeChain, false, false)

	kernel := &externalapi.DomainHash{1, 2, 3}
	prevModifier := &externalapi.DomainHash{4, 5, 6}
	require.Equal(t, &externalapi.DomainHash{}, sv.ComputeStakeModifierV2(nil, prevModifier, kernel))
	require.Equal(t, hashes.DoubleHash(kernel[:], prevModifier[:]),
		sv.ComputeStakeModifierV2(chain[0], prevModifier, kernel))

	stakeChain[chain[2].Hash].StakeModifierV2 = externalapi.DomainHash{9}
	modifier, err := sv.PreviousStakeModifier(chain[2])
	require.NoError(t, err)
	require.Equal(t, &externalapi.DomainHash{9}, modifier)

	delete(stakeChain, chain[1].Hash)
	modifier, err = sv.PreviousStakeModifier(chain[1])
	require.NoError(t, err)
	require.Equal(t, checkpointModifier, modifier)

	delete(stakeChain, chain[0].Hash)
	_, err = sv.PreviousStakeModifier(chain[0])
	require.ErrorIs(t, err, ruleerrors.ErrModifierNotFound)
}

func stakingCoins(height uint64, time uint32, value int64, script []byte) *externalapi.UnspentOutputs {
	return &externalapi.UnspentOutputs{
		TransactionID: externalapi.DomainHash{0xaa},
		Height:        height,
		Time:          time,
		Outputs: []*externalapi.DomainTransactionOutput{
			{Value: value, ScriptPublicKey: script},
		},
	}
}

func coinstakeSpending(txID externalapi.DomainHash) *externalapi.DomainTransaction {
	return &externalapi.DomainTransaction{
		Version: 1,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{TransactionID: txID, Index: 0},
		}},
		Outputs: []*externalapi.DomainTransactionOutput{
			{},
			{Value: 100, ScriptPublicKey: []byte{txscript.OpTrue}},
		},
	}
}

func TestCheckStakeKernelHash(t *testing.T) {
	sv := newTestStakeValidator(fakeStakeChain{}, fakeCheckpoints{}, false)
	modifier := &externalapi.DomainHash{1}
	coins := stakingCoins(5, 2000, 100000000, []byte{txscript.OpTrue})
	prevout := &externalapi.DomainOutpoint{TransactionID: coins.TransactionID}

	kernel, err := sv.CheckStakeKernelHash(0x207fffff, modifier, coins, prevout, 3000)
	require.NoError(t, err)
	expected, err := stakeKernelHash(modifier, 2000, prevout, 3000)
	require.NoError(t, err)
	require.Equal(t, expected, kernel)

	// A target of one can only be met by a near zero hash.
	_, err = sv.CheckStakeKernelHash(0x01010000, modifier, stakingCoins(5, 2000, 1, nil), prevout, 3000)
	require.ErrorIs(t, err, ruleerrors.ErrStakeHashInvalidTarget)

	_, err = sv.CheckStakeKernelHash(0x207fffff, modifier, coins, prevout, 1999)
	require.ErrorIs(t, err, ruleerrors.ErrStakeTimeViolation)

	_, err = sv.CheckStakeKernelHash(0x207fffff, modifier, coins,
		&externalapi.DomainOutpoint{TransactionID: coins.TransactionID, Index: 3}, 3000)
	require.ErrorIs(t, err, ruleerrors.ErrReadTxPrevFailed)
}

func TestCheckProofOfStake(t *testing.T) {
	sv := newTestStakeValidator(fakeStakeChain{}, fakeCheckpoints{}, false)
	prev := &externalapi.ChainedHeader{
		Header: &externalapi.DomainBlockHeader{Timestamp: 5000},
		Height: 20,
	}
	prevStake := &externalapi.BlockStake{StakeModifierV2: externalapi.DomainHash{3}}

	tests := []struct {
		name        string
		coins       *externalapi.UnspentOutputs
		expectedErr error
	}{
		{
			name:        "deep enough",
			coins:       stakingCoins(11, 2000, 100000000, []byte{txscript.OpTrue}),
			expectedErr: nil,
		},
		{
			name:        "one block too shallow",
			coins:       stakingCoins(12, 2000, 100000000, []byte{txscript.OpTrue}),
			expectedErr: ruleerrors.ErrInvalidStakeDepth,
		},
		{
			name:        "script failure",
			coins:       stakingCoins(5, 2000, 100000000, []byte{txscript.OpFalse}),
			expectedErr: ruleerrors.ErrCoinstakeVerifySignatureFailed,
		},
		{
			name:        "missing staked transaction",
			coins:       nil,
			expectedErr: ruleerrors.ErrReadTxPrevFailed,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			coinstake := coinstakeSpending(externalapi.DomainHash{0xaa})
			kernel, err := sv.CheckProofOfStake(prev, prevStake, coinstake, test.coins, 0x207fffff, 4000)
			if test.expectedErr != nil {
				require.ErrorIs(t, err, test.expectedErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, kernel)
		})
	}
}

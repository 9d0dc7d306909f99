package chaincfg

import (
	"testing"

	"github.com/hybridchain/hcd/domain/consensus/utils/consensushashing"
	"github.com/hybridchain/hcd/domain/consensus/utils/difficulty"
	"github.com/hybridchain/hcd/domain/consensus/utils/merkle"
)

// TestGenesisBlocks ensures the hard-coded genesis hashes and merkle roots
// match the genesis blocks they describe.
func TestGenesisBlocks(t *testing.T) {
	for _, params := range AllParams {
		root, mutated := merkle.BlockMerkleRoot(params.GenesisBlock)
		if mutated {
			t.Errorf("%s: genesis merkle root is mutated", params.Name)
		}
		if *root != params.GenesisBlock.Header.MerkleRoot {
			t.Errorf("%s: genesis merkle root mismatch - got %s, want %s", params.Name,
				root, params.GenesisBlock.Header.MerkleRoot)
		}

		hash := consensushashing.BlockHash(params.GenesisBlock)
		if !hash.Equal(params.GenesisHash) {
			t.Errorf("%s: genesis hash mismatch - got %s, want %s", params.Name, hash, params.GenesisHash)
		}

		target := difficulty.CompactToBig(params.GenesisBlock.Header.Bits)
		if difficulty.HashToBig(hash).Cmp(target) > 0 {
			t.Errorf("%s: genesis hash %s is above its target", params.Name, hash)
		}
	}
}

func TestParamsByName(t *testing.T) {
	for _, params := range AllParams {
		found, err := ParamsByName(params.Name)
		if err != nil {
			t.Fatalf("ParamsByName(%s): %+v", params.Name, err)
		}
		if found != params {
			t.Errorf("ParamsByName(%s) returned %s", params.Name, found.Name)
		}
	}
	if _, err := ParamsByName("simnet"); err == nil {
		t.Errorf("expected an error for an unknown network")
	}
}

func TestIntervals(t *testing.T) {
	if interval := PowMainnetParams.DifficultyAdjustmentInterval(); interval != 2016 {
		t.Errorf("unexpected difficulty adjustment interval %d", interval)
	}
	if interval := PosMainnetParams.PosRetargetInterval(); interval != 15 {
		t.Errorf("unexpected stake retarget interval %d", interval)
	}
	if checkpoint := PosMainnetParams.LastCheckpoint(); checkpoint == nil || checkpoint.Height != 0 {
		t.Errorf("unexpected last checkpoint %v", checkpoint)
	}
	if checkpoint := PowRegtestParams.LastCheckpoint(); checkpoint != nil {
		t.Errorf("regtest should have no checkpoints")
	}
}

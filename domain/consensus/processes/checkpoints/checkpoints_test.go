package checkpoints

import (
	"testing"

	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
)

func TestCheckpoints(t *testing.T) {
	provider := New(chaincfg.PowMainnetParams.Checkpoints, true)

	if height := provider.LastCheckpointHeight(); height != 295000 {
		t.Fatalf("expected last checkpoint height 295000, got %d", height)
	}

	hash, ok := provider.HardenedHash(11111)
	if !ok {
		t.Fatalf("expected a checkpoint at height 11111")
	}
	if !provider.CheckHardened(11111, hash) {
		t.Errorf("the checkpointed hash should pass")
	}
	if provider.CheckHardened(11111, &externalapi.DomainHash{1}) {
		t.Errorf("a different hash at a checkpoint height should fail")
	}
	if !provider.CheckHardened(11112, &externalapi.DomainHash{1}) {
		t.Errorf("any hash should pass between checkpoints")
	}
	if _, ok := provider.StakeModifierAt(11111); ok {
		t.Errorf("proof-of-work checkpoints carry no stake modifier")
	}
}

func TestDisabledCheckpoints(t *testing.T) {
	provider := New(chaincfg.PowMainnetParams.Checkpoints, false)
	if provider.LastCheckpointHeight() != 0 {
		t.Errorf("a disabled provider has no last checkpoint")
	}
	if !provider.CheckHardened(11111, &externalapi.DomainHash{1}) {
		t.Errorf("a disabled provider accepts every hash")
	}
}

func TestStakeModifierCheckpoint(t *testing.T) {
	provider := New(chaincfg.PosMainnetParams.Checkpoints, true)
	modifier, ok := provider.StakeModifierAt(0)
	if !ok {
		t.Fatalf("expected the genesis checkpoint to pin a stake modifier")
	}
	if !modifier.IsZero() {
		t.Errorf("expected the zero stake modifier, got %s", modifier)
	}
}

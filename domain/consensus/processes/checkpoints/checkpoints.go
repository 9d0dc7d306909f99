package checkpoints

import (
	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
)

type checkpoints struct {
	byHeight   map[uint64]*chaincfg.Checkpoint
	lastHeight uint64
}

// New instantiates a new CheckpointsProvider over the given checkpoints. A
// disabled provider knows no checkpoints.
func New(networkCheckpoints []chaincfg.Checkpoint, enabled bool) model.CheckpointsProvider {
	c := &checkpoints{byHeight: make(map[uint64]*chaincfg.Checkpoint)}
	if !enabled {
		return c
	}
	for i := range networkCheckpoints {
		checkpoint := &networkCheckpoints[i]
		c.byHeight[checkpoint.Height] = checkpoint
		if checkpoint.Height > c.lastHeight {
			c.lastHeight = checkpoint.Height
		}
	}
	return c
}

// HardenedHash returns the checkpointed hash at height, if any.
func (c *checkpoints) HardenedHash(height uint64) (*externalapi.DomainHash, bool) {
	checkpoint, ok := c.byHeight[height]
	if !ok {
		return nil, false
	}
	return checkpoint.Hash, true
}

func (c *checkpoints) CheckHardened(height uint64, hash *externalapi.DomainHash) bool {
	checkpoint, ok := c.byHeight[height]
	if !ok {
		return true
	}
	return checkpoint.Hash.Equal(hash)
}

func (c *checkpoints) LastCheckpointHeight() uint64 {
	return c.lastHeight
}

// StakeModifierAt returns the stake modifier pinned by the checkpoint at
// height, if any.
func (c *checkpoints) StakeModifierAt(height uint64) (*externalapi.DomainHash, bool) {
	checkpoint, ok := c.byHeight[height]
	if !ok || checkpoint.StakeModifierV2 == nil {
		return nil, false
	}
	return checkpoint.StakeModifierV2.Clone(), true
}

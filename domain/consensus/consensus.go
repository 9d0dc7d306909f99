package consensus

import (
	"context"

	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/processes/ruleengine"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/hybridchain/hcd/domain/consensus/utils/utxo"
	"github.com/hybridchain/hcd/infrastructure/logger"
	"github.com/pkg/errors"
)

// Engine decides whether headers and blocks are valid and moves the coin
// store along the chain of accepted blocks.
type Engine struct {
	params     *chaincfg.Params
	ruleEngine *ruleengine.RuleEngine
	coinStore  model.CoinStore
	stakeChain model.StakeChain
	timeSource model.TimeSource
}

// Params returns the network parameters the engine validates against.
func (e *Engine) Params() *chaincfg.Params {
	return e.params
}

// RuleEngine returns the rule pipeline of the engine.
func (e *Engine) RuleEngine() *ruleengine.RuleEngine {
	return e.ruleEngine
}

// CoinStore returns the coin store the engine commits to.
func (e *Engine) CoinStore() model.CoinStore {
	return e.coinStore
}

// StakeChain returns the stake records of the engine, or nil on
// proof-of-work networks.
func (e *Engine) StakeChain() model.StakeChain {
	return e.stakeChain
}

// NewUTXOView returns an empty view over the engine's coin store.
func (e *Engine) NewUTXOView() *utxo.View {
	return utxo.NewView(e.coinStore)
}

// ValidateHeader runs the header rules on chainedHeader.
func (e *Engine) ValidateHeader(ctx context.Context, chainedHeader *externalapi.ChainedHeader) error {
	vc := ruleengine.NewValidationContext(ctx, e.params, chainedHeader, nil, nil, e.timeSource.AdjustedTime())
	return e.ruleEngine.ValidateHeader(vc)
}

// ValidateAndConnect runs every rule category on block, applying it to
// view, and returns the change the block makes to the coin store. view may
// be nil, in which case a fresh view is used. On proof-of-stake networks the
// delta carries the block's stake record, which Commit stores.
//
// Rule violations are ruleerrors.RuleError values; any other error is a
// local failure and says nothing about the block.
func (e *Engine) ValidateAndConnect(ctx context.Context, block *externalapi.DomainBlock,
	chainedHeader *externalapi.ChainedHeader, view *utxo.View) (*externalapi.UTXODelta, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateAndConnect")
	defer onEnd()

	if chainedHeader.Previous == nil {
		return nil, errors.Errorf("cannot connect block %s without a previous block", chainedHeader.Hash)
	}
	if view == nil {
		view = e.NewUTXOView()
	}

	vc := ruleengine.NewValidationContext(ctx, e.params, chainedHeader, block, view, e.timeSource.AdjustedTime())
	err := e.ruleEngine.ValidateBlock(vc)
	if err != nil {
		return nil, err
	}

	if vc.Stake != nil {
		vc.Delta.Stake = vc.Stake.BlockStake
	}

	log.Debugf("Block %s at height %d is valid (fees %d, skipped validation: %t)",
		chainedHeader.Hash, chainedHeader.Height, vc.Fees, vc.SkipValidation)
	return vc.Delta, nil
}

// Commit applies delta to the coin store and stores the stake record it
// carries. It fails with ruleerrors.ErrInvalidPrevTip, storing nothing, when
// the store moved since the delta was computed.
func (e *Engine) Commit(ctx context.Context, delta *externalapi.UTXODelta) error {
	err := ctx.Err()
	if err != nil {
		return errors.WithStack(err)
	}

	tip, err := e.coinStore.TipHash(ctx)
	if err != nil {
		return err
	}
	if !tip.Equal(&delta.OldTip) {
		return errors.Wrapf(ruleerrors.ErrInvalidPrevTip, "the coin store is at %s but block %s "+
			"was validated on top of %s", tip, delta.NewTip, delta.OldTip)
	}

	if delta.Stake != nil {
		if e.stakeChain == nil {
			return errors.Errorf("block %s carries a stake record but the engine has no stake chain", delta.NewTip)
		}
		err = e.stakeChain.Set(&delta.NewTip, delta.Stake)
		if err != nil {
			return err
		}
	}

	err = e.coinStore.ApplyDelta(ctx, delta)
	if err != nil {
		return err
	}
	log.Debugf("Committed block %s at height %d", delta.NewTip, delta.Height)
	return nil
}

type flusher interface {
	Flush(ctx context.Context) error
}

// Flush writes the changes a caching coin store holds in memory to the
// database. It does nothing for coin stores that write through.
func (e *Engine) Flush(ctx context.Context) error {
	if f, ok := e.coinStore.(flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}

// VerifyCoinStore rescans the coin store and checks its entries against the
// multiset commitment. Pending cached changes are flushed first.
func (e *Engine) VerifyCoinStore(ctx context.Context) (*externalapi.CoinSetStats, error) {
	verifier, ok := e.coinStore.(model.CoinSetVerifier)
	if !ok {
		return nil, errors.Errorf("coin store %T doesn't support verification", e.coinStore)
	}
	stats, err := verifier.Verify(ctx)
	if err != nil {
		return stats, err
	}
	log.Infof("Coin store verified: %s", stats)
	return stats, nil
}

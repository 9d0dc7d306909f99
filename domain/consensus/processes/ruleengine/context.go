package ruleengine

import (
	"context"
	"time"

	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/utils/utxo"
)

// ValidationContext carries a block through the rule categories. It is
// created per block and discarded afterwards.
type ValidationContext struct {
	ctx context.Context

	Params *chaincfg.Params

	// ChainedHeader is the header being validated, linked to its ancestors.
	ChainedHeader *externalapi.ChainedHeader

	// Block is nil when only the header is validated.
	Block *externalapi.DomainBlock

	// View is the unspent output overlay full rules read and update.
	View *utxo.View

	// Time is the network adjusted time at which validation started.
	Time time.Time

	Flags          *externalapi.DeploymentFlags
	SkipValidation bool

	// Fees accumulates the fees of the block's transactions.
	Fees int64

	// NextWorkRequired is the compact target the header must carry.
	NextWorkRequired uint32

	// Delta is the change the block makes to the coin store, set by the
	// last full rule.
	Delta *externalapi.UTXODelta

	// Stake is set on proof-of-stake networks.
	Stake *PosContext
}

// PosContext is the proof-of-stake part of a validation context.
type PosContext struct {
	// CoinstakeValueIn is the total value spent by the coinstake.
	CoinstakeValueIn int64

	// CoinstakePrevOutputs are the outputs spent by the coinstake, in input
	// order, captured before the view spends them.
	CoinstakePrevOutputs []*externalapi.DomainTransactionOutput

	// KernelHash is the proof-of-stake kernel of a proof-of-stake block.
	KernelHash *externalapi.DomainHash

	// BlockStake is the stake record computed for the block.
	BlockStake *externalapi.BlockStake
}

// NewValidationContext creates the context of a block at chainedHeader. block
// and view are nil when only the header is validated.
func NewValidationContext(ctx context.Context, params *chaincfg.Params, chainedHeader *externalapi.ChainedHeader,
	block *externalapi.DomainBlock, view *utxo.View, now time.Time) *ValidationContext {

	vc := &ValidationContext{
		ctx:           ctx,
		Params:        params,
		ChainedHeader: chainedHeader,
		Block:         block,
		View:          view,
		Time:          now,
	}
	if params.IsProofOfStake {
		vc.Stake = &PosContext{BlockStake: &externalapi.BlockStake{}}
	}
	return vc
}

// Context returns the Go context the validation runs under.
func (vc *ValidationContext) Context() context.Context {
	return vc.ctx
}

// Header is a shortcut for the header being validated.
func (vc *ValidationContext) Header() *externalapi.DomainBlockHeader {
	return vc.ChainedHeader.Header
}

// IsProofOfStakeBlock returns whether the block being validated is a
// proof-of-stake block. Bare headers count as proof-of-work.
func (vc *ValidationContext) IsProofOfStakeBlock() bool {
	return vc.Block != nil && vc.Block.IsProofOfStake()
}

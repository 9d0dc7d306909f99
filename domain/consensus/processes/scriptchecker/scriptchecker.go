package scriptchecker

import (
	"context"

	"github.com/hybridchain/hcd/domain/consensus/model"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"golang.org/x/sync/errgroup"
)

// ScriptChecker verifies transaction input scripts on a bounded pool of
// goroutines.
type ScriptChecker struct {
	verifier       model.ScriptVerifier
	maxParallelism int
}

// New instantiates a new ScriptChecker running at most maxParallelism checks
// at once.
func New(verifier model.ScriptVerifier, maxParallelism int) *ScriptChecker {
	if maxParallelism < 1 {
		maxParallelism = 1
	}
	return &ScriptChecker{
		verifier:       verifier,
		maxParallelism: maxParallelism,
	}
}

// Batch is the set of script checks scheduled for one block. Checks start as
// soon as they are added; Wait joins them.
type Batch struct {
	verifier model.ScriptVerifier
	group    *errgroup.Group
	ctx      context.Context
}

// NewBatch starts a batch. The batch is detached from any caller context: it
// stops early only when one of its own checks fails.
func (sc *ScriptChecker) NewBatch() *Batch {
	group, ctx := errgroup.WithContext(context.Background())
	group.SetLimit(sc.maxParallelism)
	return &Batch{
		verifier: sc.verifier,
		group:    group,
		ctx:      ctx,
	}
}

// Add schedules the check of input inputIndex of tx against the output it
// spends. It blocks while the pool is saturated. The spent output is copied,
// so the caller may mutate its view right after.
func (b *Batch) Add(tx *externalapi.DomainTransaction, txID *externalapi.DomainHash, inputIndex int,
	spentOutput *externalapi.DomainTransactionOutput, flags externalapi.ScriptFlags) {

	input := tx.Inputs[inputIndex]
	amount := spentOutput.Value
	scriptPublicKey := spentOutput.ScriptPublicKey
	id := *txID

	b.group.Go(func() error {
		if b.ctx.Err() != nil {
			return nil
		}
		err := b.verifier.Verify(input.SignatureScript, scriptPublicKey, input.Witness, tx, inputIndex,
			amount, flags)
		if err != nil {
			return ruleerrors.NewErrScriptFailure(&id, inputIndex, err)
		}
		return nil
	})
}

// Wait blocks until every scheduled check finished and returns the first
// failure.
func (b *Batch) Wait() error {
	return b.group.Wait()
}

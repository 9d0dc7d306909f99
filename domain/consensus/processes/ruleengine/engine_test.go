package ruleengine

import (
	"context"
	"testing"
	"time"

	"github.com/hybridchain/hcd/domain/chaincfg"
	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/hybridchain/hcd/domain/consensus/ruleerrors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	calls []string
}

type headerOnlyRule struct {
	name      string
	log       *callLog
	err       error
	skippable bool
	setSkip   bool
}

func (r *headerOnlyRule) Name() string { return r.name }

func (r *headerOnlyRule) CanSkipValidation() bool { return r.skippable }

func (r *headerOnlyRule) ValidateHeader(vc *ValidationContext) error {
	r.log.calls = append(r.log.calls, "header:"+r.name)
	if r.setSkip {
		vc.SkipValidation = true
	}
	return r.err
}

type everyCategoryRule struct {
	name string
	log  *callLog
	err  map[Category]error
}

func (r *everyCategoryRule) Name() string { return r.name }

func (r *everyCategoryRule) record(vc *ValidationContext, category Category) error {
	r.log.calls = append(r.log.calls, category.String()+":"+r.name)
	return r.err[category]
}

func (r *everyCategoryRule) ValidateHeader(vc *ValidationContext) error {
	return r.record(vc, CategoryHeader)
}

func (r *everyCategoryRule) CheckIntegrity(vc *ValidationContext) error {
	return r.record(vc, CategoryIntegrity)
}

func (r *everyCategoryRule) ValidatePartial(vc *ValidationContext) error {
	return r.record(vc, CategoryPartial)
}

func (r *everyCategoryRule) ValidateFull(vc *ValidationContext) error {
	return r.record(vc, CategoryFull)
}

type partialOnlyRule struct {
	name string
	log  *callLog
}

func (r *partialOnlyRule) Name() string { return r.name }

func (r *partialOnlyRule) ValidatePartial(vc *ValidationContext) error {
	r.log.calls = append(r.log.calls, "partial:"+r.name)
	return nil
}

type dependentRule struct {
	partialOnlyRule
	dependency *headerOnlyRule
}

func (r *dependentRule) Initialize(registry *Registry) error {
	dependency, err := MustFindRule[*headerOnlyRule](registry)
	if err != nil {
		return err
	}
	r.dependency = dependency
	return nil
}

type namedOnlyRule struct{}

func (namedOnlyRule) Name() string { return "named only" }

func newTestContext(ctx context.Context) *ValidationContext {
	header := &externalapi.DomainBlockHeader{Version: 1}
	chainedHeader := externalapi.NewChainedHeader(header, &externalapi.DomainHash{1}, nil)
	block := &externalapi.DomainBlock{Header: header}
	return NewValidationContext(ctx, &chaincfg.PowRegtestParams, chainedHeader, block, nil, time.Unix(0, 0))
}

func TestValidateBlockRunsCategoriesInOrder(t *testing.T) {
	log := &callLog{}
	first := &everyCategoryRule{name: "first", log: log}
	second := &everyCategoryRule{name: "second", log: log}
	partial := &partialOnlyRule{name: "partial", log: log}

	engine, err := New(NewRegistry(first, partial, second))
	require.NoError(t, err)

	err = engine.ValidateBlock(newTestContext(context.Background()))
	require.NoError(t, err)
	require.Equal(t, []string{
		"header:first", "header:second",
		"integrity:first", "integrity:second",
		"partial:first", "partial:partial", "partial:second",
		"full:first", "full:second",
	}, log.calls)

	require.Equal(t, []string{"first", "partial", "second"}, engine.RuleNames(CategoryPartial))
	require.Equal(t, []string{"first", "second"}, engine.RuleNames(CategoryFull))
}

func TestValidateBlockStopsAtFirstError(t *testing.T) {
	log := &callLog{}
	failing := &everyCategoryRule{
		name: "failing",
		log:  log,
		err:  map[Category]error{CategoryIntegrity: errors.Wrapf(ruleerrors.ErrBadMerkleRoot, "bad root")},
	}
	after := &everyCategoryRule{name: "after", log: log}

	engine, err := New(NewRegistry(failing, after))
	require.NoError(t, err)

	err = engine.ValidateBlock(newTestContext(context.Background()))
	require.ErrorIs(t, err, ruleerrors.ErrBadMerkleRoot)
	require.True(t, ruleerrors.IsRuleError(err))
	require.Equal(t, []string{"header:failing", "header:after", "integrity:failing"}, log.calls)
}

func TestSkipValidation(t *testing.T) {
	log := &callLog{}
	skipper := &headerOnlyRule{name: "skipper", log: log, setSkip: true}
	skippable := &headerOnlyRule{name: "skippable", log: log, skippable: true}
	always := &everyCategoryRule{name: "always", log: log}

	engine, err := New(NewRegistry(skipper, skippable, always))
	require.NoError(t, err)

	vc := newTestContext(context.Background())
	err = engine.ValidateBlock(vc)
	require.NoError(t, err)
	require.True(t, vc.SkipValidation)
	require.Equal(t, []string{
		"header:skipper", "header:always",
		"integrity:always",
		"full:always",
	}, log.calls)
}

func TestValidateHeaderRunsOnlyHeaderRules(t *testing.T) {
	log := &callLog{}
	engine, err := New(NewRegistry(&everyCategoryRule{name: "rule", log: log}))
	require.NoError(t, err)

	err = engine.ValidateHeader(newTestContext(context.Background()))
	require.NoError(t, err)
	require.Equal(t, []string{"header:rule"}, log.calls)
}

func TestValidateBlockHonorsCancellation(t *testing.T) {
	log := &callLog{}
	engine, err := New(NewRegistry(&everyCategoryRule{name: "rule", log: log}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = engine.ValidateBlock(newTestContext(ctx))
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, ruleerrors.IsRuleError(err))
	require.Empty(t, log.calls)
}

func TestStorageErrorsAreNotRuleErrors(t *testing.T) {
	storageErr := errors.New("disk on fire")
	engine, err := New(NewRegistry(&everyCategoryRule{
		name: "storage",
		log:  &callLog{},
		err:  map[Category]error{CategoryFull: storageErr},
	}))
	require.NoError(t, err)

	err = engine.ValidateBlock(newTestContext(context.Background()))
	require.ErrorIs(t, err, storageErr)
	require.False(t, ruleerrors.IsRuleError(err))
}

func TestInitializeResolvesDependencies(t *testing.T) {
	log := &callLog{}
	dependency := &headerOnlyRule{name: "dependency", log: log}
	dependent := &dependentRule{partialOnlyRule: partialOnlyRule{name: "dependent", log: log}}

	_, err := New(NewRegistry(dependent, dependency))
	require.NoError(t, err)
	require.Same(t, dependency, dependent.dependency)

	_, err = New(NewRegistry(&dependentRule{partialOnlyRule: partialOnlyRule{name: "orphan", log: log}}))
	require.Error(t, err)
}

func TestRuleWithoutCategoryIsRejected(t *testing.T) {
	_, err := New(NewRegistry(namedOnlyRule{}))
	require.Error(t, err)
}

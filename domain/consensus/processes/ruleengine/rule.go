package ruleengine

// Rule is a single consensus rule. Concrete rules implement one or more of
// the category interfaces below and run in every category they implement.
type Rule interface {
	Name() string
}

// HeaderRule validates a header against its ancestors. It runs when a bare
// header is validated and at the start of full block validation.
type HeaderRule interface {
	Rule
	ValidateHeader(vc *ValidationContext) error
}

// IntegrityRule checks that a block is internally consistent with its
// header. Integrity rules never skip.
type IntegrityRule interface {
	Rule
	CheckIntegrity(vc *ValidationContext) error
}

// PartialRule validates a block without the unspent output set. Partial rules
// are skipped when the block is covered by a checkpoint or assume-valid.
type PartialRule interface {
	Rule
	ValidatePartial(vc *ValidationContext) error
}

// FullRule validates a block against the unspent output set and updates the
// view. Full rules always run.
type FullRule interface {
	Rule
	ValidateFull(vc *ValidationContext) error
}

// SkippableRule is implemented by header rules that don't run when the
// context's SkipValidation is set.
type SkippableRule interface {
	CanSkipValidation() bool
}

// Initializer is implemented by rules that need other rules. Initialize is
// called once, in registration order, when the engine is built.
type Initializer interface {
	Initialize(registry *Registry) error
}

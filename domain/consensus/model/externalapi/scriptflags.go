package externalapi

// ScriptFlags is a bitmask of script verification flags handed to the script
// verifier.
type ScriptFlags uint32

// Script verification flags
const (
	ScriptVerifyNone ScriptFlags = 0

	ScriptVerifyP2SH ScriptFlags = 1 << iota
	ScriptVerifyStrictEnc
	ScriptVerifyDERSig
	ScriptVerifyLowS
	ScriptVerifyNullDummy
	ScriptVerifySigPushOnly
	ScriptVerifyMinimalData
	ScriptVerifyDiscourageUpgradableNops
	ScriptVerifyCleanStack
	ScriptVerifyCheckLockTimeVerify
	ScriptVerifyCheckSequenceVerify
	ScriptVerifyWitness
	ScriptVerifyDiscourageUpgradableWitnessProgram
	ScriptVerifyCheckColdStakeVerify
)

// HasFlag returns whether flag is set.
func (f ScriptFlags) HasFlag(flag ScriptFlags) bool {
	return f&flag == flag
}

// LockTimeFlags is a bitmask of transaction finality flags.
type LockTimeFlags uint32

// Lock time flags
const (
	LockTimeNone LockTimeFlags = 0

	// LockTimeVerifySequence enforces BIP68 relative lock times.
	LockTimeVerifySequence LockTimeFlags = 1 << iota

	// LockTimeMedianTimePast uses the median time past of the previous block
	// instead of the block time for absolute lock times (BIP113).
	LockTimeMedianTimePast
)

// HasFlag returns whether flag is set.
func (f LockTimeFlags) HasFlag(flag LockTimeFlags) bool {
	return f&flag == flag
}

// DeploymentFlags describes which soft-fork rules apply to a block.
type DeploymentFlags struct {
	ScriptFlags   ScriptFlags
	LockTimeFlags LockTimeFlags
	EnforceBIP30  bool
	EnforceBIP34  bool

	// Witness is set when the segregated witness deployment is active.
	Witness bool

	// ColdStaking is set when the cold staking deployment is active.
	ColdStaking bool
}

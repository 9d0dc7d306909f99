package ruleerrors

import (
	"fmt"

	"github.com/hybridchain/hcd/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrBadMerkleRoot indicates the calculated merkle root does not match
	// the expected value.
	ErrBadMerkleRoot = newRuleError("ErrBadMerkleRoot")

	// ErrBadTransactionDuplicate indicates a block contains the same
	// transaction twice, or its merkle tree is mutated.
	ErrBadTransactionDuplicate = newRuleError("ErrBadTransactionDuplicate")

	// ErrBadWitnessNonceSize indicates the coinbase witness is not a single
	// 32 byte item.
	ErrBadWitnessNonceSize = newRuleError("ErrBadWitnessNonceSize")

	// ErrBadWitnessMerkleMatch indicates the witness commitment does not match
	// the block's witness merkle root.
	ErrBadWitnessMerkleMatch = newRuleError("ErrBadWitnessMerkleMatch")

	// ErrUnexpectedWitness indicates witness data in a block that doesn't
	// commit to it.
	ErrUnexpectedWitness = newRuleError("ErrUnexpectedWitness")

	// ErrBadCoinbaseHeight indicates the coinbase doesn't start with the
	// serialized block height.
	ErrBadCoinbaseHeight = newRuleError("ErrBadCoinbaseHeight")

	// ErrBadVersion indicates the block version is too old.
	ErrBadVersion = newRuleError("ErrBadVersion")

	// ErrClientVersionTooOld indicates the block uses a version this client
	// does not know.
	ErrClientVersionTooOld = newRuleError("ErrClientVersionTooOld")

	// ErrBadDiffBits indicates the bits don't match the required work or are
	// out of range.
	ErrBadDiffBits = newRuleError("ErrBadDiffBits")

	// ErrTimeTooOld indicates the time is not after the median time past of
	// the previous blocks.
	ErrTimeTooOld = newRuleError("ErrTimeTooOld")

	// ErrTimeTooNew indicates the block timestamp is too far in the future.
	ErrTimeTooNew = newRuleError("ErrTimeTooNew")

	// ErrBlockTimestampTooEarly indicates a proof-of-stake block timestamp is
	// not after its predecessor's.
	ErrBlockTimestampTooEarly = newRuleError("ErrBlockTimestampTooEarly")

	// ErrStakeTimeViolation indicates the block time is not properly masked
	// or doesn't match the coinstake time.
	ErrStakeTimeViolation = newRuleError("ErrStakeTimeViolation")

	// ErrProofOfWorkTooHigh indicates a proof-of-work block after the last
	// allowed proof-of-work height.
	ErrProofOfWorkTooHigh = newRuleError("ErrProofOfWorkTooHigh")

	// ErrHighHash indicates the block hash is above the target.
	ErrHighHash = newRuleError("ErrHighHash")

	// ErrCheckpointViolation indicates the block hash differs from a hardened
	// checkpoint at the same height.
	ErrCheckpointViolation = newRuleError("ErrCheckpointViolation")

	// ErrInvalidPrevTip indicates the block doesn't build on the expected tip.
	ErrInvalidPrevTip = newRuleError("ErrInvalidPrevTip")

	// ErrNoTransactions indicates the block does not have a least one
	// transaction. A valid block must have at least the coinbase
	// transaction.
	ErrNoTransactions = newRuleError("ErrNoTransactions")

	// ErrBadBlockHash indicates the block header hashes to a different value
	// than the chained header that represents it.
	ErrBadBlockHash = newRuleError("ErrBadBlockHash")

	// ErrBadCoinbaseMissing indicates the first transaction is not a coinbase.
	ErrBadCoinbaseMissing = newRuleError("ErrBadCoinbaseMissing")

	// ErrBadMultipleCoinbase indicates a block contains more than one
	// coinbase transaction.
	ErrBadMultipleCoinbase = newRuleError("ErrBadMultipleCoinbase")

	// ErrBadCoinbaseSize indicates the coinbase script length is out of range.
	ErrBadCoinbaseSize = newRuleError("ErrBadCoinbaseSize")

	// ErrBadTransactionNoInput indicates a transaction has no inputs.
	ErrBadTransactionNoInput = newRuleError("ErrBadTransactionNoInput")

	// ErrBadTransactionNoOutput indicates a transaction has no outputs.
	ErrBadTransactionNoOutput = newRuleError("ErrBadTransactionNoOutput")

	// ErrBadTransactionOversize indicates a transaction is larger than a block
	// may be.
	ErrBadTransactionOversize = newRuleError("ErrBadTransactionOversize")

	// ErrBadTransactionNegativeOutput indicates an output with a negative value.
	ErrBadTransactionNegativeOutput = newRuleError("ErrBadTransactionNegativeOutput")

	// ErrBadTransactionTooLargeOutput indicates an output above the money
	// supply.
	ErrBadTransactionTooLargeOutput = newRuleError("ErrBadTransactionTooLargeOutput")

	// ErrBadTransactionTooLargeTotalOutput indicates outputs that sum above
	// the money supply.
	ErrBadTransactionTooLargeTotalOutput = newRuleError("ErrBadTransactionTooLargeTotalOutput")

	// ErrBadTransactionDuplicateInputs indicates a transaction spends the same
	// outpoint twice.
	ErrBadTransactionDuplicateInputs = newRuleError("ErrBadTransactionDuplicateInputs")

	// ErrBadTransactionNullPrevout indicates a non-coinbase input with the
	// coinbase outpoint.
	ErrBadTransactionNullPrevout = newRuleError("ErrBadTransactionNullPrevout")

	// ErrBadTransactionEmptyOutput indicates an empty output in a transaction
	// that is neither a coinbase nor a coinstake.
	ErrBadTransactionEmptyOutput = newRuleError("ErrBadTransactionEmptyOutput")

	// ErrBadTransactionMissingInput indicates a transaction spends an output
	// that doesn't exist or was already spent.
	ErrBadTransactionMissingInput = newRuleError("ErrBadTransactionMissingInput")

	// ErrBadTransactionNonFinal indicates a transaction whose lock time or
	// relative lock times are not satisfied.
	ErrBadTransactionNonFinal = newRuleError("ErrBadTransactionNonFinal")

	// ErrBadTransactionBIP30 indicates a transaction overwrites an unspent
	// transaction with the same id.
	ErrBadTransactionBIP30 = newRuleError("ErrBadTransactionBIP30")

	// ErrBadBlockSigOps indicates the block exceeds the signature operation
	// cost budget.
	ErrBadBlockSigOps = newRuleError("ErrBadBlockSigOps")

	// ErrBadTransactionScriptError indicates an input script failed
	// verification.
	ErrBadTransactionScriptError = newRuleError("ErrBadTransactionScriptError")

	// ErrBadTransactionPrematureCoinbaseSpending indicates a spend of an
	// immature coinbase output.
	ErrBadTransactionPrematureCoinbaseSpending = newRuleError("ErrBadTransactionPrematureCoinbaseSpending")

	// ErrBadTransactionPrematureCoinstakeSpending indicates a spend of an
	// immature coinstake output.
	ErrBadTransactionPrematureCoinstakeSpending = newRuleError("ErrBadTransactionPrematureCoinstakeSpending")

	// ErrBadTransactionInputValueOutOfRange indicates inputs that sum out of
	// the money range.
	ErrBadTransactionInputValueOutOfRange = newRuleError("ErrBadTransactionInputValueOutOfRange")

	// ErrBadTransactionInBelowOut indicates a transaction spending more than
	// its inputs.
	ErrBadTransactionInBelowOut = newRuleError("ErrBadTransactionInBelowOut")

	// ErrBadTransactionFeeOutOfRange indicates a fee out of the money range.
	ErrBadTransactionFeeOutOfRange = newRuleError("ErrBadTransactionFeeOutOfRange")

	// ErrBadCoinbaseAmount indicates a coinbase paying more than fees and
	// subsidy.
	ErrBadCoinbaseAmount = newRuleError("ErrBadCoinbaseAmount")

	// ErrBadCoinstakeAmount indicates a coinstake rewarding more than fees and
	// subsidy.
	ErrBadCoinstakeAmount = newRuleError("ErrBadCoinstakeAmount")

	// ErrBadColdstakeInputs indicates cold staking inputs with differing
	// scripts.
	ErrBadColdstakeInputs = newRuleError("ErrBadColdstakeInputs")

	// ErrBadColdstakeOutputs indicates a cold staking coinstake output that
	// doesn't pay back to the cold staking script.
	ErrBadColdstakeOutputs = newRuleError("ErrBadColdstakeOutputs")

	// ErrBadColdstakeAmount indicates a cold staking coinstake that loses
	// value.
	ErrBadColdstakeAmount = newRuleError("ErrBadColdstakeAmount")

	// ErrBadBlockWeight indicates the block weight exceeds the maximum.
	ErrBadBlockWeight = newRuleError("ErrBadBlockWeight")

	// ErrBadBlockLength indicates the block size exceeds the maximum.
	ErrBadBlockLength = newRuleError("ErrBadBlockLength")

	// ErrBadStakeBlock indicates a proof-of-stake block with a non empty
	// coinbase.
	ErrBadStakeBlock = newRuleError("ErrBadStakeBlock")

	// ErrBadMultipleCoinstake indicates a coinstake anywhere but the second
	// position.
	ErrBadMultipleCoinstake = newRuleError("ErrBadMultipleCoinstake")

	// ErrBlockTimeBeforeTrx indicates a transaction timestamped after its
	// block.
	ErrBlockTimeBeforeTrx = newRuleError("ErrBlockTimeBeforeTrx")

	// ErrBadBlockSignature indicates a missing or invalid block signature.
	ErrBadBlockSignature = newRuleError("ErrBadBlockSignature")

	// ErrBadBlockSignatureRepresentation indicates a block signature that is
	// not canonical DER with a low S value.
	ErrBadBlockSignatureRepresentation = newRuleError("ErrBadBlockSignatureRepresentation")

	// ErrStakeHashInvalidTarget indicates a stake kernel above the weighted
	// target.
	ErrStakeHashInvalidTarget = newRuleError("ErrStakeHashInvalidTarget")

	// ErrInvalidStakeDepth indicates a staked output with too few
	// confirmations.
	ErrInvalidStakeDepth = newRuleError("ErrInvalidStakeDepth")

	// ErrCoinstakeVerifySignatureFailed indicates the first coinstake input
	// failed script verification.
	ErrCoinstakeVerifySignatureFailed = newRuleError("ErrCoinstakeVerifySignatureFailed")

	// ErrReadTxPrevFailed indicates the staked output is missing from the view.
	ErrReadTxPrevFailed = newRuleError("ErrReadTxPrevFailed")

	// ErrModifierNotFound indicates the previous stake modifier is unknown.
	ErrModifierNotFound = newRuleError("ErrModifierNotFound")

	// ErrPrevStakeNull indicates the stake record of the previous block is
	// missing.
	ErrPrevStakeNull = newRuleError("ErrPrevStakeNull")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block or transaction failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation.
type RuleError struct {
	message string
	inner   error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Is matches a RuleError carrying extra detail against its bare sentinel, so
// that errors.Is(err, ErrBadTransactionScriptError) holds for script failures.
func (e RuleError) Is(target error) bool {
	sentinel, ok := target.(RuleError)
	return ok && sentinel.inner == nil && sentinel.message == e.message
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

// Name returns the name of the rule error without its inner message.
func (e RuleError) Name() string {
	return e.message
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// IsRuleError returns whether err is, or wraps, a RuleError.
func IsRuleError(err error) bool {
	return errors.As(err, &RuleError{})
}

// RuleErrorName returns the name of the RuleError err wraps, or an empty
// string if it doesn't wrap one.
func RuleErrorName(err error) string {
	ruleErr := RuleError{}
	if !errors.As(err, &ruleErr) {
		return ""
	}
	return ruleErr.message
}

// ErrMissingTxOut indicates a transaction output referenced by an input
// either does not exist or has already been spent.
type ErrMissingTxOut struct {
	MissingOutpoints []*externalapi.DomainOutpoint
}

func (e ErrMissingTxOut) Error() string {
	return fmt.Sprintf("missing the following outpoint: %v", e.MissingOutpoints)
}

// NewErrMissingTxOut Creates a new ErrMissingTxOut error wrapped in a RuleError
func NewErrMissingTxOut(missingOutpoints []*externalapi.DomainOutpoint) error {
	return errors.WithStack(RuleError{
		message: ErrBadTransactionMissingInput.message,
		inner:   ErrMissingTxOut{missingOutpoints},
	})
}

// ErrScriptFailure carries the input whose script failed to verify.
type ErrScriptFailure struct {
	TransactionID externalapi.DomainHash
	InputIndex    int
	Err           error
}

func (e ErrScriptFailure) Error() string {
	return fmt.Sprintf("input %d of transaction %s: %s", e.InputIndex, e.TransactionID, e.Err)
}

// NewErrScriptFailure creates a new ErrScriptFailure error wrapped in a RuleError
func NewErrScriptFailure(txID *externalapi.DomainHash, inputIndex int, err error) error {
	return errors.WithStack(RuleError{
		message: ErrBadTransactionScriptError.message,
		inner:   ErrScriptFailure{TransactionID: *txID, InputIndex: inputIndex, Err: err},
	})
}

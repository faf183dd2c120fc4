package ruleerrors

import (
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrInvalidPoW indicates that the block hash is above the target its
	// header commits to.
	ErrInvalidPoW = newRuleError("ErrInvalidPoW")

	// ErrTargetTooHigh indicates specified bits do not align with
	// the expected value either because it is above the valid
	// range.
	ErrTargetTooHigh = newRuleError("ErrTargetTooHigh")

	// ErrBlockSizeTooHigh indicates the serialized block size exceeds the
	// maximum allowed size.
	ErrBlockSizeTooHigh = newRuleError("ErrBlockSizeTooHigh")

	// ErrBlockWeightTooHigh indicates the block weight exceeds the segwit
	// weight ceiling.
	ErrBlockWeightTooHigh = newRuleError("ErrBlockWeightTooHigh")

	// ErrNoTransactions indicates the block does not have at least one
	// transaction. A valid block must have at least the coinbase
	// transaction.
	ErrNoTransactions = newRuleError("ErrNoTransactions")

	// ErrFirstTxNotCoinbase indicates the first transaction in a block
	// is not a coinbase transaction.
	ErrFirstTxNotCoinbase = newRuleError("ErrFirstTxNotCoinbase")

	// ErrMultipleCoinbases indicates a block contains more than one
	// coinbase transaction.
	ErrMultipleCoinbases = newRuleError("ErrMultipleCoinbases")

	// ErrBadMerkleRoot indicates the calculated merkle root does not match
	// the expected value.
	ErrBadMerkleRoot = newRuleError("ErrBadMerkleRoot")

	// ErrForwardReference indicates a block transaction spends an output of
	// a transaction that appears later in the same block.
	ErrForwardReference = newRuleError("ErrForwardReference")

	// ErrTransactionsNotSorted indicates the non-coinbase transactions of
	// a block are not in canonical (ascending txid) order.
	ErrTransactionsNotSorted = newRuleError("ErrTransactionsNotSorted")

	// ErrDoubleSpendInSameBlock indicates a transaction
	// that spends an output that was already spent by another
	// transaction in the same block.
	ErrDoubleSpendInSameBlock = newRuleError("ErrDoubleSpendInSameBlock")

	// ErrNoTxInputs indicates a transaction does not have any inputs. A
	// valid transaction must have at least one input.
	ErrNoTxInputs = newRuleError("ErrNoTxInputs")

	// ErrNoTxOutputs indicates a transaction does not have any outputs.
	ErrNoTxOutputs = newRuleError("ErrNoTxOutputs")

	// ErrBadTxOutValue indicates an output value for a transaction is
	// invalid in some way such as being out of range.
	ErrBadTxOutValue = newRuleError("ErrBadTxOutValue")

	// ErrPreviousOutputNull indicates a non-coinbase transaction input
	// references the null outpoint.
	ErrPreviousOutputNull = newRuleError("ErrPreviousOutputNull")

	// ErrBadCoinbaseScriptLen indicates the length of the signature script
	// for a coinbase transaction is not within the valid range.
	ErrBadCoinbaseScriptLen = newRuleError("ErrBadCoinbaseScriptLen")

	// ErrDuplicateTxInputs indicates a transaction references the same
	// input more than once.
	ErrDuplicateTxInputs = newRuleError("ErrDuplicateTxInputs")

	// ErrCoinbaseTransaction indicates a coinbase transaction was submitted
	// outside of a block.
	ErrCoinbaseTransaction = newRuleError("ErrCoinbaseTransaction")

	// ErrTxSizeTooHigh indicates a loose transaction is at least as large
	// as the maximum block size.
	ErrTxSizeTooHigh = newRuleError("ErrTxSizeTooHigh")

	// ErrBadCoinbaseHeight indicates that the serialized block height in the
	// coinbase transaction for version 2 and higher blocks does not match
	// the expected value.
	ErrBadCoinbaseHeight = newRuleError("ErrBadCoinbaseHeight")

	// ErrBadCoinbaseValue indicates the amount of a coinbase value does
	// not match the expected value of the subsidy plus the sum of all fees.
	ErrBadCoinbaseValue = newRuleError("ErrBadCoinbaseValue")

	// ErrBadFees indicates the total fees for a block are invalid due to
	// exceeding the maximum possible value.
	ErrBadFees = newRuleError("ErrBadFees")

	// ErrUnfinalizedTx indicates a transaction has not been finalized.
	// A valid block may only contain finalized transactions.
	ErrUnfinalizedTx = newRuleError("ErrUnfinalizedTx")

	// ErrTooManySigOps indicates the total number of signature operations
	// for a transaction or block exceed the maximum allowed limits.
	ErrTooManySigOps = newRuleError("ErrTooManySigOps")

	// ErrBadWitnessCommitment indicates that the block's witness commitment
	// is missing or does not match the witness data of its transactions.
	ErrBadWitnessCommitment = newRuleError("ErrBadWitnessCommitment")

	// ErrUnexpectedWitness indicates a block carries witness data before
	// segwit is active.
	ErrUnexpectedWitness = newRuleError("ErrUnexpectedWitness")

	// ErrBadCheckpoint indicates a block that is expected to be at a
	// checkpoint height does not match the expected one.
	ErrBadCheckpoint = newRuleError("ErrBadCheckpoint")

	// ErrBlockVersionTooOld indicates the block version is too old and is
	// no longer accepted since the majority of the network has upgraded
	// to a newer version.
	ErrBlockVersionTooOld = newRuleError("ErrBlockVersionTooOld")

	// ErrUnexpectedDifficulty indicates specified bits do not align with
	// the expected value either because it doesn't match the calculated
	// valued based on difficulty regarted rules.
	ErrUnexpectedDifficulty = newRuleError("ErrUnexpectedDifficulty")

	// ErrTimeTooOld indicates the time is either before the median time of
	// the last several blocks per the chain consensus rules.
	ErrTimeTooOld = newRuleError("ErrTimeTooOld")

	// ErrTxTooSmall indicates a transaction is smaller than the minimum
	// transaction size.
	ErrTxTooSmall = newRuleError("ErrTxTooSmall")

	// ErrTxWeightTooHigh indicates a loose transaction exceeds the segwit
	// standard weight.
	ErrTxWeightTooHigh = newRuleError("ErrTxWeightTooHigh")

	// ErrUnspentDuplicate indicates a transaction has the same hash as a
	// previous transaction that still has unspent outputs.
	ErrUnspentDuplicate = newRuleError("ErrUnspentDuplicate")

	// ErrPrematureValidation indicates a loose transaction was submitted
	// while the chain is still below its last checkpoint.
	ErrPrematureValidation = newRuleError("ErrPrematureValidation")

	// ErrSpendTooHigh indicates a transaction is attempting to spend more
	// value than the sum of all of its inputs.
	ErrSpendTooHigh = newRuleError("ErrSpendTooHigh")

	// ErrScriptValidation indicates the result of executing transaction
	// script failed. The error covers any failure when executing scripts
	// such signature verification failures and execution past the end of
	// the stack.
	ErrScriptValidation = newRuleError("ErrScriptValidation")

	// ErrImmatureSpend indicates a transaction is attempting to spend a
	// coinbase that has not yet reached the required maturity.
	ErrImmatureSpend = newRuleError("ErrImmatureSpend")

	// ErrSequenceLocked indicates a transaction input is still locked by
	// its relative lock time.
	ErrSequenceLocked = newRuleError("ErrSequenceLocked")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block or transaction failed due to one of the many
// validation rules. The caller can use type assertions to determine if a
// failure was specifically due to a rule violation.
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

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, inner: nil}
}

// IsRuleError returns whether err is, or wraps, a RuleError.
func IsRuleError(err error) bool {
	return errors.As(err, &RuleError{})
}

// ErrMissingTxOut indicates a transaction output referenced by an input
// either does not exist or has already been spent.
type ErrMissingTxOut struct {
	MissingOutpoints []wire.OutPoint
}

func (e ErrMissingTxOut) Error() string {
	return fmt.Sprintf("%v", e.MissingOutpoints)
}

// NewErrMissingTxOut Creates a new ErrMissingTxOut error wrapped in a RuleError
func NewErrMissingTxOut(missingOutpoints []wire.OutPoint) error {
	return errors.WithStack(RuleError{
		message: "ErrMissingTxOut",
		inner:   ErrMissingTxOut{missingOutpoints},
	})
}

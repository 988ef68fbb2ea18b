package services

import "errors"

// Domain errors surfaced by the finance and academic services. Handlers
// translate these to HTTP semantics; the services never swallow storage
// errors, they wrap them with the failed precondition and return.
var (
	// ErrStudentNotFound is returned when the referenced student does not exist.
	ErrStudentNotFound = errors.New("student not found")

	// ErrFeeStructureNotFound is returned when no active fee structure covers
	// the student's school and the target semester. Fatal to the release
	// workflow; requires operator action, not a retry.
	ErrFeeStructureNotFound = errors.New("no active fee structure")

	// ErrFeeRecordNotFound is returned when a payment references a fee record
	// that was never released.
	ErrFeeRecordNotFound = errors.New("fee record not found")

	// ErrNotEligible is returned when promotion is attempted before financial
	// clearance. Recoverable: the caller completes payment first.
	ErrNotEligible = errors.New("student is not eligible for promotion, clear pending dues first")

	// ErrDuplicateTransaction is returned when an external transaction id has
	// already been recorded in the ledger.
	ErrDuplicateTransaction = errors.New("transaction id already recorded")

	// ErrTransactionConflict is returned when the storage layer aborts the
	// payment transaction due to a concurrent write. Retryable; retry policy
	// belongs to the caller.
	ErrTransactionConflict = errors.New("transaction aborted due to a concurrent update")
)

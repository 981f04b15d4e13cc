package ledger

import "errors"

var (
	// ErrInvalidRecordType reports a type string that is neither income nor
	// expense (case-insensitive).
	ErrInvalidRecordType = errors.New("invalid record type")

	// ErrInvalidAmount reports a negative amount.
	ErrInvalidAmount = errors.New("amount must be non-negative")

	// ErrBatchMismatch reports a batch delete naming records that do not
	// exist or do not belong to the account. The whole batch is refused;
	// partial deletion never happens.
	ErrBatchMismatch = errors.New("batch contains records not on this account")
)

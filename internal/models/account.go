package models

// Account groups transaction records under a user and carries the running
// income/expense aggregates derived from them.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// UserID is the owning user.
	UserID string

	// Name is the display name of the account.
	Name string

	// TotalIncome and TotalExpense are derived aggregates: each equals the
	// sum of Amount over the account's live records of the matching type.
	// They are only ever written together with the record mutation that
	// changed them, inside one storage transaction.
	TotalIncome  float64
	TotalExpense float64

	// Version is the optimistic-concurrency counter for the aggregate
	// fields. The store bumps it on every totals update and rejects writes
	// whose expected version no longer matches.
	Version int64
}

// ApplyDelta adjusts the aggregate matching t by delta. Reversals pass a
// negative delta.
func (a *Account) ApplyDelta(t RecordType, delta float64) {
	switch t {
	case Income:
		a.TotalIncome += delta
	case Expense:
		a.TotalExpense += delta
	}
}

// Summary builds the denormalized cache view of the account.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		AccountID:    a.ID,
		Name:         a.Name,
		TotalIncome:  a.TotalIncome,
		TotalExpense: a.TotalExpense,
	}
}

// AccountSummary is the cached, non-authoritative view of an account. It is
// recomputed wholesale from the committed account state on every successful
// mutation; it is never patched incrementally from a previous cached value.
type AccountSummary struct {
	AccountID    string  `json:"account_id"`
	Name         string  `json:"name"`
	TotalIncome  float64 `json:"total_income"`
	TotalExpense float64 `json:"total_expense"`
}

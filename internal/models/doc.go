// Package models defines the core domain models for Pennywise.
//
// The authoritative entities are:
//   - User: owner of one or more accounts
//   - Account: carries the running TotalIncome/TotalExpense aggregates
//   - TransactionRecord: a single income or expense entry on an account
//
// The derived (non-authoritative) views are:
//   - AccountSummary: denormalized account view written to the cache
//   - RecordDocument: searchable mirror of a record written to the index
//
// Invariant: an account's TotalIncome always equals the sum of amounts over
// its live Income records, and TotalExpense the same for Expense records.
// Every mutation path in internal/ledger preserves this; summaries and
// documents may lag behind but are never read back to compute totals.
package models

// Package ledger tracks one-time reply tokens so a redelivered webhook call
// never spends the same token twice. The in-memory ledger here is the default;
// store/sql provides a durable variant behind the same contract. Expired
// entries are swept lazily on access, there is no background reaper.
package ledger

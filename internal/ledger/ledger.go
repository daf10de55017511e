package ledger

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-ledger/internal/domain"
)

// ErrEmptyLedger is returned when a request needs transactions and no valid
// batch provides any.
var ErrEmptyLedger = errors.New("no transaction data available")

// Ledger is a request-scoped, date-ordered view over one or more batches.
type Ledger struct {
	Transactions []domain.Transaction
	BatchIDs     []string
}

// NewLedger concatenates batches in the given order and stably sorts the
// result ascending by date.
func NewLedger(batches ...Batch) Ledger {
	var l Ledger
	for _, b := range batches {
		l.BatchIDs = append(l.BatchIDs, b.ID)
		l.Transactions = append(l.Transactions, b.Transactions...)
	}
	sort.SliceStable(l.Transactions, func(i, j int) bool {
		return l.Transactions[i].Date.Before(l.Transactions[j].Date)
	})
	return l
}

// Len returns the number of transactions.
func (l Ledger) Len() int {
	return len(l.Transactions)
}

// IsEmpty reports whether the ledger has no transactions.
func (l Ledger) IsEmpty() bool {
	return len(l.Transactions) == 0
}

// LastDate returns the date of the latest transaction (zero for an empty ledger).
func (l Ledger) LastDate() time.Time {
	if l.IsEmpty() {
		return time.Time{}
	}
	return l.Transactions[len(l.Transactions)-1].Date
}

// Total sums every price in the ledger.
func (l Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range l.Transactions {
		total = total.Add(tx.Price)
	}
	return total
}

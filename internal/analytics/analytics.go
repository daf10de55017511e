// Package analytics computes monthly and last-period summaries over a ledger.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/ledger"
)

// MonthLayout labels calendar months in the monthly overview.
const MonthLayout = "2006-01"

// Config carries the tunable parameters of an analysis.
type Config struct {
	EssentialCategories []string
	TopMerchants        int
	RecurringThreshold  int

	// Top-N sums are computed for N = TopNStart, TopNStart+TopNStep, ... while N < TopNStop.
	TopNStart int
	TopNStep  int
	TopNStop  int
}

// DefaultConfig returns the standard analysis parameters.
func DefaultConfig() Config {
	return Config{
		EssentialCategories: []string{"Groceries", "Utilities", "Rent", "Transportation"},
		TopMerchants:        10,
		RecurringThreshold:  2,
		TopNStart:           5,
		TopNStep:            5,
		TopNStop:            20,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.EssentialCategories == nil {
		c.EssentialCategories = def.EssentialCategories
	}
	if c.TopMerchants <= 0 {
		c.TopMerchants = def.TopMerchants
	}
	if c.RecurringThreshold <= 0 {
		c.RecurringThreshold = def.RecurringThreshold
	}
	if c.TopNStart <= 0 {
		c.TopNStart = def.TopNStart
	}
	if c.TopNStep <= 0 {
		c.TopNStep = def.TopNStep
	}
	if c.TopNStop <= 0 {
		c.TopNStop = def.TopNStop
	}
	return c
}

// Amount is a labelled monetary total.
type Amount struct {
	Label string
	Value decimal.Decimal
}

// TopNSum is the combined price of the N highest-priced transactions.
type TopNSum struct {
	N   int
	Sum decimal.Decimal
}

// Analysis is the result of Analyze.
type Analysis struct {
	LastDate    time.Time
	PeriodStart time.Time

	// MonthlyOverview holds the total per calendar month, ascending.
	MonthlyOverview []Amount

	CategoryBreakdown []Amount
	TopMerchants      []Amount
	RecurringExpenses []Amount
	Essential         decimal.Decimal
	Discretionary     decimal.Decimal
	TopNSums          []TopNSum
}

// Analyze computes the summaries for l. The last period is the window from the
// first day of the month before the latest transaction's month through the
// latest transaction date, inclusive.
func Analyze(l ledger.Ledger, cfg Config) (*Analysis, error) {
	if l.IsEmpty() {
		return nil, fmt.Errorf("Analyze: %w", ledger.ErrEmptyLedger)
	}
	cfg = cfg.withDefaults()

	last := l.LastDate()
	start := PeriodStart(last)

	var window []domain.Transaction
	for _, tx := range l.Transactions {
		if !tx.Date.Before(start) && !tx.Date.After(last) {
			window = append(window, tx)
		}
	}

	a := &Analysis{
		LastDate:          last,
		PeriodStart:       start,
		MonthlyOverview:   monthlyOverview(l.Transactions),
		CategoryBreakdown: categoryBreakdown(window),
		TopMerchants:      topMerchants(window, cfg.TopMerchants),
		RecurringExpenses: recurringExpenses(window, cfg.RecurringThreshold),
		TopNSums:          topNSums(l.Transactions, cfg),
	}
	a.Essential, a.Discretionary = essentialSplit(window, cfg.EssentialCategories)

	return a, nil
}

// PeriodStart returns the first day of the month preceding t's month.
func PeriodStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()-1, 1, 0, 0, 0, 0, t.Location())
}

func monthlyOverview(txs []domain.Transaction) []Amount {
	return sortedTotals(txs, func(tx domain.Transaction) string {
		return tx.Date.Format(MonthLayout)
	})
}

func categoryBreakdown(txs []domain.Transaction) []Amount {
	return sortedTotals(txs, func(tx domain.Transaction) string {
		return tx.Category
	})
}

// topMerchants ranks merchants by summed price, descending. Equal sums keep
// label order.
func topMerchants(txs []domain.Transaction, n int) []Amount {
	totals := sortedTotals(txs, func(tx domain.Transaction) string {
		return tx.Name
	})
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Value.GreaterThan(totals[j].Value)
	})
	if len(totals) > n {
		totals = totals[:n]
	}
	return totals
}

func recurringExpenses(txs []domain.Transaction, threshold int) []Amount {
	counts := make(map[string]int)
	for _, tx := range txs {
		counts[tx.Name]++
	}

	var out []Amount
	for _, total := range sortedTotals(txs, func(tx domain.Transaction) string { return tx.Name }) {
		count := counts[total.Label]
		if count < threshold {
			continue
		}
		out = append(out, Amount{
			Label: total.Label,
			Value: total.Value.Div(decimal.NewFromInt(int64(count))),
		})
	}
	return out
}

func essentialSplit(txs []domain.Transaction, essentialCategories []string) (essential, discretionary decimal.Decimal) {
	isEssential := make(map[string]bool, len(essentialCategories))
	for _, c := range essentialCategories {
		isEssential[c] = true
	}

	essential, discretionary = decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if isEssential[tx.Category] {
			essential = essential.Add(tx.Price)
		} else {
			discretionary = discretionary.Add(tx.Price)
		}
	}
	return essential, discretionary
}

func topNSums(txs []domain.Transaction, cfg Config) []TopNSum {
	prices := make([]decimal.Decimal, len(txs))
	for i, tx := range txs {
		prices[i] = tx.Price
	}
	sort.Slice(prices, func(i, j int) bool {
		return prices[i].GreaterThan(prices[j])
	})

	var out []TopNSum
	for n := cfg.TopNStart; n < cfg.TopNStop; n += cfg.TopNStep {
		sum := decimal.Zero
		for i := 0; i < n && i < len(prices); i++ {
			sum = sum.Add(prices[i])
		}
		out = append(out, TopNSum{N: n, Sum: sum})
	}
	return out
}

// sortedTotals groups txs by key and returns the per-key totals ordered by key.
func sortedTotals(txs []domain.Transaction, key func(domain.Transaction) string) []Amount {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		k := key(tx)
		if cur, ok := totals[k]; ok {
			totals[k] = cur.Add(tx.Price)
		} else {
			totals[k] = tx.Price
		}
	}

	out := make([]Amount, 0, len(totals))
	for k, v := range totals {
		out = append(out, Amount{Label: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Label < out[j].Label
	})
	return out
}

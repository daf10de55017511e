package analytics

import (
	"fmt"

	"github.com/dvloznov/statement-ledger/internal/report"
)

// Report converts the analysis into a report tree.
func (a *Analysis) Report() *report.Section {
	split := report.NewSection().
		AddNumber(report.Field("essential"), a.Essential).
		AddNumber(report.Field("discretionary"), a.Discretionary)

	topN := report.NewSection()
	for _, s := range a.TopNSums {
		topN.AddNumber(report.Field(fmt.Sprintf("top_%d", s.N)), s.Sum)
	}

	lastMonth := report.NewSection().
		Add(report.Field("category_breakdown"), amounts(a.CategoryBreakdown)).
		Add(report.Field("top_merchants"), amounts(a.TopMerchants)).
		Add(report.Field("recurring_expenses"), amounts(a.RecurringExpenses)).
		Add(report.Field("discretionary_vs_essential"), split).
		Add(report.Field("top_n_transaction_sums"), topN)

	return report.NewSection().
		Add(report.Field("monthly_overview"), amounts(a.MonthlyOverview)).
		Add(report.Field("last_month"), lastMonth)
}

func amounts(list []Amount) *report.Section {
	s := report.NewSection()
	for _, a := range list {
		s.AddNumber(report.Label(a.Label), a.Value)
	}
	return s
}

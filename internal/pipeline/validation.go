package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/ledger"
)

// validateTable parses a categorized table the way a ledger load would and
// reports problems as user-facing warnings. The table is saved either way.
func validateTable(batchID, table string) ([]domain.Transaction, []string) {
	batch, err := ledger.ParseBatch(batchID, []byte(table))
	if err != nil {
		var invalid *ledger.InvalidBatchError
		if errors.As(err, &invalid) && len(invalid.Missing) > 0 {
			return nil, []string{fmt.Sprintf(
				"The categorized table is missing columns (%s); it will be ignored by reports.",
				strings.Join(invalid.Missing, ", "),
			)}
		}
		return nil, []string{"The categorized table could not be parsed; it will be ignored by reports."}
	}

	var warnings []string
	if batch.SkippedRows > 0 {
		warnings = append(warnings, fmt.Sprintf("%d row(s) had unreadable dates and will be ignored by reports.", batch.SkippedRows))
	}
	if len(batch.Transactions) == 0 {
		warnings = append(warnings, "No transactions were found in the statement.")
	}
	// Date order keeps row positions consistent with ledger loads.
	return ledger.NewLedger(batch).Transactions, warnings
}

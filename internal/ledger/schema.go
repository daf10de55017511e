package ledger

import (
	"fmt"
	"strings"

	"github.com/dvloznov/statement-ledger/internal/domain"
)

// SchemaResult is the outcome of checking a table header against the
// required batch columns.
type SchemaResult struct {
	// Index maps each required column to its position in the header.
	Index map[string]int
	// Missing lists required columns absent from the header, in canonical order.
	Missing []string
}

// Valid reports whether every required column is present.
func (r SchemaResult) Valid() bool {
	return len(r.Missing) == 0
}

// CheckSchema locates the required columns in a header row.
// Header cells are compared after trimming whitespace (and a UTF-8 BOM) and lower-casing.
func CheckSchema(header []string) SchemaResult {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := positions[key]; !seen {
			positions[key] = i
		}
	}

	res := SchemaResult{Index: make(map[string]int, len(domain.RequiredColumns))}
	for _, col := range domain.RequiredColumns {
		if i, ok := positions[col]; ok {
			res.Index[col] = i
		} else {
			res.Missing = append(res.Missing, col)
		}
	}
	return res
}

// InvalidBatchError reports a stored or incoming table that cannot be used
// as a batch. Loads skip such batches; it is never shown to end users.
type InvalidBatchError struct {
	BatchID string
	Missing []string
	Err     error
}

func (e *InvalidBatchError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("batch %q: missing required columns %s", e.BatchID, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("batch %q: %v", e.BatchID, e.Err)
}

func (e *InvalidBatchError) Unwrap() error {
	return e.Err
}

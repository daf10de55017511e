package ledger

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/statement-ledger/internal/domain"
)

// BatchExt is the extension of stored batch objects.
const BatchExt = ".csv"

// Batch is the parsed content of one stored statement table.
type Batch struct {
	ID           string
	Transactions []domain.Transaction
	// SkippedRows counts rows dropped because their date could not be parsed.
	SkippedRows int
}

// LastDate returns the latest transaction date of the batch, or the zero time
// for a batch without rows.
func (b Batch) LastDate() time.Time {
	var last time.Time
	for _, tx := range b.Transactions {
		if tx.Date.After(last) {
			last = tx.Date
		}
	}
	return last
}

// DeriveBatchID turns an uploaded statement filename into a batch identifier:
// the base name without directory or extension.
func DeriveBatchID(filename string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(filename), `\`, "/"))
	id := strings.TrimSuffix(base, filepath.Ext(base))
	id = strings.TrimSpace(id)
	if id == "" || id == "." || id == "/" || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("DeriveBatchID: cannot derive a batch id from %q", filename)
	}
	return id, nil
}

// ParseBatch parses a stored table. A table without the required columns, or
// one that is not readable CSV, yields an *InvalidBatchError. Rows whose date
// does not parse are dropped and counted; prices that do not parse become zero.
func ParseBatch(id string, data []byte) (Batch, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // Allow ragged rows; missing cells read as empty
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return Batch{}, &InvalidBatchError{BatchID: id, Missing: append([]string(nil), domain.RequiredColumns...)}
	}
	if err != nil {
		return Batch{}, &InvalidBatchError{BatchID: id, Err: fmt.Errorf("read header: %w", err)}
	}

	schema := CheckSchema(header)
	if !schema.Valid() {
		return Batch{}, &InvalidBatchError{BatchID: id, Missing: schema.Missing}
	}

	batch := Batch{ID: id}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Batch{}, &InvalidBatchError{BatchID: id, Err: fmt.Errorf("read row: %w", err)}
		}

		date, err := domain.ParseDate(cell(record, schema.Index[domain.ColumnDate]))
		if err != nil {
			batch.SkippedRows++
			continue
		}

		batch.Transactions = append(batch.Transactions, domain.Transaction{
			Date:     date,
			Name:     cell(record, schema.Index[domain.ColumnName]),
			Price:    domain.ParsePrice(cell(record, schema.Index[domain.ColumnPrice])),
			Category: cell(record, schema.Index[domain.ColumnCategory]),
			Batch:    id,
		})
	}

	return batch, nil
}

func cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}

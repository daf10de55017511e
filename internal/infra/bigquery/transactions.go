package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-ledger/internal/domain"
)

// TransactionRow is one ledger transaction in the warehouse table.
type TransactionRow struct {
	TransactionID string `bigquery:"transaction_id"` // REQUIRED
	BatchID       string `bigquery:"batch_id"`       // REQUIRED
	RowNumber     int64  `bigquery:"row_number"`     // REQUIRED, position within the batch

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	Name            string     `bigquery:"name"`             // REQUIRED STRING
	Amount          *big.Rat   `bigquery:"amount"`           // REQUIRED NUMERIC
	Category        string     `bigquery:"category"`         // NULLABLE in practice, empty when unknown

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED
}

// ToTransactionRows maps a batch's transactions to warehouse rows.
func ToTransactionRows(batchID string, txs []domain.Transaction, now time.Time) []*TransactionRow {
	rows := make([]*TransactionRow, 0, len(txs))
	for i, tx := range txs {
		rows = append(rows, &TransactionRow{
			TransactionID:   domain.StableID(batchID, i, tx),
			BatchID:         batchID,
			RowNumber:       int64(i),
			TransactionDate: civil.DateOf(tx.Date),
			Name:            tx.Name,
			Amount:          tx.Price.Rat(),
			Category:        tx.Category,
			CreatedTS:       now,
		})
	}
	return rows
}

// ToDomain converts a warehouse row back to a ledger transaction.
func (r *TransactionRow) ToDomain() domain.Transaction {
	price := decimal.Zero
	if r.Amount != nil {
		if d, err := decimal.NewFromString(r.Amount.FloatString(9)); err == nil {
			price = d
		}
	}
	return domain.Transaction{
		Date:     r.TransactionDate.In(time.UTC),
		Name:     r.Name,
		Price:    price,
		Category: r.Category,
		Batch:    r.BatchID,
	}
}

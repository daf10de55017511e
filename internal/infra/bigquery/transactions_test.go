package bigquery

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-ledger/internal/domain"
)

func TestToTransactionRows(t *testing.T) {
	now := time.Date(2024, time.April, 1, 12, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{
		{Date: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), Name: "Cafe", Price: decimal.RequireFromString("3.50"), Category: "Food"},
		{Date: time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC), Name: "Refund", Price: decimal.RequireFromString("-12.25"), Category: "Shopping"},
	}

	rows := ToTransactionRows("mar", txs, now)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	first := rows[0]
	if first.BatchID != "mar" || first.RowNumber != 0 || first.Name != "Cafe" || first.Category != "Food" {
		t.Errorf("unexpected row: %+v", first)
	}
	if first.TransactionDate != (civil.Date{Year: 2024, Month: time.March, Day: 5}) {
		t.Errorf("TransactionDate = %v", first.TransactionDate)
	}
	if first.Amount.FloatString(2) != "3.50" {
		t.Errorf("Amount = %s, want 3.50", first.Amount.FloatString(2))
	}
	if first.TransactionID != domain.StableID("mar", 0, txs[0]) {
		t.Errorf("TransactionID = %s, want the stable id", first.TransactionID)
	}
	if !first.CreatedTS.Equal(now) {
		t.Errorf("CreatedTS = %v, want %v", first.CreatedTS, now)
	}
	if rows[1].RowNumber != 1 || rows[1].TransactionID == first.TransactionID {
		t.Errorf("second row not distinct: %+v", rows[1])
	}
}

func TestTransactionRow_ToDomain(t *testing.T) {
	txs := []domain.Transaction{
		{Date: time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC), Name: "Refund", Price: decimal.RequireFromString("-12.25"), Category: "Shopping"},
	}
	row := ToTransactionRows("mar", txs, time.Now())[0]

	got := row.ToDomain()
	if !got.Date.Equal(txs[0].Date) || got.Name != "Refund" || got.Category != "Shopping" || got.Batch != "mar" {
		t.Errorf("unexpected transaction: %+v", got)
	}
	if !got.Price.Equal(txs[0].Price) {
		t.Errorf("Price = %s, want -12.25", got.Price)
	}

	empty := (&TransactionRow{}).ToDomain()
	if !empty.Price.IsZero() {
		t.Errorf("nil amount should map to zero, got %s", empty.Price)
	}
}

package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the textual date format used in stored batches ("05 Mar 2024").
const DateLayout = "02 Jan 2006"

// parseLayout accepts both one- and two-digit days ("5 Mar 2024", "05 Mar 2024").
const parseLayout = "2 Jan 2006"

// Column names of a stored batch, in header order.
const (
	ColumnDate     = "date"
	ColumnName     = "name"
	ColumnPrice    = "price"
	ColumnCategory = "category"
)

// RequiredColumns lists every column a stored batch must carry.
var RequiredColumns = []string{ColumnDate, ColumnName, ColumnPrice, ColumnCategory}

// Transaction represents one purchase or credit taken from a statement batch.
// Price is positive for charges and negative for credits/refunds.
type Transaction struct {
	Date     time.Time
	Name     string
	Price    decimal.Decimal
	Category string

	// Batch is the identifier of the batch the row was loaded from.
	// It is not part of the stored table.
	Batch string
}

// ParseDate parses a date in DateLayout; the day may also be a single digit.
// Surrounding whitespace is ignored.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(parseLayout, strings.TrimSpace(s))
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParsePrice coerces a price cell to a decimal. Empty or malformed values become zero.
func ParsePrice(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// StableID derives a deterministic identifier for the row at index within a
// batch. Re-exporting the same batch yields the same ids.
func StableID(batchID string, index int, tx Transaction) string {
	key := fmt.Sprintf("%s|%d|%s|%s|%s", batchID, index, FormatDate(tx.Date), tx.Name, tx.Price.String())
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

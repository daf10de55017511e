package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dvloznov/statement-ledger/internal/blob"
	"github.com/dvloznov/statement-ledger/internal/jobs"
	"github.com/dvloznov/statement-ledger/internal/ledger"
	"github.com/dvloznov/statement-ledger/internal/pipeline"
)

const (
	febTable = "category,price,date,name\n" +
		"Rent,1000.00,15 Feb 2024,Landlord\n" +
		"Groceries,40.00,20 Feb 2024,Market\n"
	marTable = "category,price,date,name\n" +
		"Groceries,50.00,01 Mar 2024,Market\n" +
		"Entertainment,15.00,02 Mar 2024,Netflix\n"
)

type fakeExtractor struct{ text string }

func (f *fakeExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	return f.text, nil
}

type fakeCategorizer struct{ table string }

func (f *fakeCategorizer) Categorize(ctx context.Context, text string, year int) (string, error) {
	return f.table, nil
}

func newService(t *testing.T, tables map[string]string) *Service {
	t.Helper()
	blobs, err := blob.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	ctx := context.Background()
	for name, table := range tables {
		if err := blobs.Put(ctx, name, []byte(table)); err != nil {
			t.Fatalf("Put(%s) error = %v", name, err)
		}
	}
	return New(ledger.NewStore(blobs), pipeline.Deps{}, DefaultOptions())
}

func TestService_NoData(t *testing.T) {
	s := newService(t, nil)
	ctx := context.Background()

	if _, err := s.LastMonthStats(ctx); !errors.Is(err, ErrNoData) {
		t.Errorf("LastMonthStats() error = %v, want ErrNoData", err)
	}
	if _, err := s.LastStatementStats(ctx); !errors.Is(err, ErrNoData) {
		t.Errorf("LastStatementStats() error = %v, want ErrNoData", err)
	}
	if _, err := s.LatestListing(ctx); !errors.Is(err, ErrNoData) {
		t.Errorf("LatestListing() error = %v, want ErrNoData", err)
	}
	months, err := s.DataMonths(ctx)
	if err != nil {
		t.Fatalf("DataMonths() error = %v", err)
	}
	if len(months) != 0 {
		t.Errorf("DataMonths() = %v, want empty", months)
	}
}

func TestService_LastMonthStats(t *testing.T) {
	s := newService(t, map[string]string{
		"2024-02_card.csv": febTable,
		"2024-03_card.csv": marTable,
	})

	out, err := s.LastMonthStats(context.Background())
	if err != nil {
		t.Fatalf("LastMonthStats() error = %v", err)
	}

	for _, want := range []string{
		"Monthly Overview:",
		"2024-02: $1040.00",
		"2024-03: $65.00",
		"Essential: $1090.00",
		"Discretionary: $15.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("LastMonthStats() missing %q in:\n%s", want, out)
		}
	}
}

func TestService_LastStatementStats(t *testing.T) {
	s := newService(t, map[string]string{
		"2024-02_card.csv": febTable,
		"2024-03_card.csv": marTable,
	})

	out, err := s.LastStatementStats(context.Background())
	if err != nil {
		t.Fatalf("LastStatementStats() error = %v", err)
	}
	if strings.Contains(out, "2024-02") {
		t.Errorf("LastStatementStats() includes an older batch:\n%s", out)
	}
	if !strings.Contains(out, "2024-03: $65.00") {
		t.Errorf("LastStatementStats() missing latest month in:\n%s", out)
	}
}

func TestService_LatestListing(t *testing.T) {
	s := newService(t, map[string]string{
		"2024-02_card.csv": febTable,
		"2024-03_card.csv": marTable,
	})

	got, err := s.LatestListing(context.Background())
	if err != nil {
		t.Fatalf("LatestListing() error = %v", err)
	}
	if got.BatchID != "2024-03_card" {
		t.Errorf("BatchID = %q, want 2024-03_card", got.BatchID)
	}
	if got.Footer() != "Total: 65.00" {
		t.Errorf("Footer() = %q, want %q", got.Footer(), "Total: 65.00")
	}
	if len(got.Chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got.Chunks))
	}
	market := strings.Index(got.Chunks[0], "Market")
	netflix := strings.Index(got.Chunks[0], "Netflix")
	if market < 0 || netflix < 0 || market > netflix {
		t.Errorf("rows not sorted by price, highest first:\n%s", got.Chunks[0])
	}
}

func TestService_DataMonths(t *testing.T) {
	s := newService(t, map[string]string{
		"2024-03_card.csv":  marTable,
		"2024-02_card.csv":  febTable,
		"2024-02_extra.csv": febTable,
		"notes.txt":         "ignored",
	})

	got, err := s.DataMonths(context.Background())
	if err != nil {
		t.Fatalf("DataMonths() error = %v", err)
	}
	if diff := cmp.Diff([]string{"2024-02", "2024-03"}, got); diff != "" {
		t.Errorf("DataMonths() mismatch (-want +got):\n%s", diff)
	}
}

func TestService_StatsFromTransactions(t *testing.T) {
	s := newService(t, nil)

	if _, err := s.StatsFromTransactions(nil); !errors.Is(err, ErrNoData) {
		t.Errorf("StatsFromTransactions(nil) error = %v, want ErrNoData", err)
	}

	b, err := ledger.ParseBatch("x", []byte(marTable))
	if err != nil {
		t.Fatalf("ParseBatch() error = %v", err)
	}
	out, err := s.StatsFromTransactions(b.Transactions)
	if err != nil {
		t.Fatalf("StatsFromTransactions() error = %v", err)
	}
	if !strings.Contains(out, "Netflix: $15.00") {
		t.Errorf("missing merchant in:\n%s", out)
	}
}

func TestService_HandleJob(t *testing.T) {
	s := newService(t, nil)
	s.ingest.Extractor = &fakeExtractor{text: "statement"}
	s.ingest.Categorizer = &fakeCategorizer{table: marTable}

	job := &jobs.IngestStatementJob{
		JobID:         "job-1",
		StatementPath: "/tmp/upload.pdf",
		Filename:      "2024-03_card.pdf",
	}
	if err := s.HandleJob(context.Background(), job); err != nil {
		t.Fatalf("HandleJob() error = %v", err)
	}
	if job.BatchID != "2024-03_card" || job.Rows != 2 {
		t.Errorf("job = %+v, want batch 2024-03_card with 2 rows", job)
	}

	ids, err := s.BatchIDs(context.Background())
	if err != nil {
		t.Fatalf("BatchIDs() error = %v", err)
	}
	if diff := cmp.Diff([]string{"2024-03_card"}, ids); diff != "" {
		t.Errorf("BatchIDs() mismatch (-want +got):\n%s", diff)
	}
}

type otherJob struct{}

func (otherJob) GetID() string             { return "x" }
func (otherJob) GetType() jobs.JobType     { return "other" }
func (otherJob) GetStatus() jobs.JobStatus { return jobs.JobStatusPending }

func TestService_HandleJobRejectsUnknownType(t *testing.T) {
	s := newService(t, nil)
	if err := s.HandleJob(context.Background(), otherJob{}); err == nil {
		t.Error("HandleJob() error = nil, want error")
	}
}

func TestHelpText(t *testing.T) {
	help := HelpText()
	for _, cmd := range []string{"last-month-stats", "last-statement-stats", "data", "list", "help"} {
		if !strings.Contains(help, cmd) {
			t.Errorf("HelpText() missing %q", cmd)
		}
	}
}

// Package service answers the user-facing commands: statistics, listings,
// available data and statement ingestion.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dvloznov/statement-ledger/internal/analytics"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/jobs"
	"github.com/dvloznov/statement-ledger/internal/ledger"
	"github.com/dvloznov/statement-ledger/internal/listing"
	"github.com/dvloznov/statement-ledger/internal/logger"
	"github.com/dvloznov/statement-ledger/internal/pipeline"
	"github.com/dvloznov/statement-ledger/internal/report"
)

// ErrNoData is returned when a command needs transactions and none are stored.
var ErrNoData = errors.New("no data")

// Options carry the analysis and rendering parameters.
type Options struct {
	Analytics analytics.Config
	Report    report.Options
	Listing   listing.Options
}

// DefaultOptions returns the standard parameters.
func DefaultOptions() Options {
	return Options{
		Analytics: analytics.DefaultConfig(),
		Report:    report.DefaultOptions(),
		Listing:   listing.DefaultOptions(),
	}
}

// Service answers queries over the stored ledger.
type Service struct {
	store  *ledger.Store
	ingest pipeline.Deps
	opts   Options
}

// New creates a Service. ingest.Store is set to store when left nil.
func New(store *ledger.Store, ingest pipeline.Deps, opts Options) *Service {
	if ingest.Store == nil {
		ingest.Store = store
	}
	return &Service{store: store, ingest: ingest, opts: opts}
}

// Store returns the underlying batch store.
func (s *Service) Store() *ledger.Store {
	return s.store
}

// LastMonthStats renders the analysis of the whole ledger.
func (s *Service) LastMonthStats(ctx context.Context) (string, error) {
	l, err := s.store.LoadAll(ctx)
	if err != nil {
		return "", fmt.Errorf("LastMonthStats: %w", err)
	}
	return s.render(l)
}

// LastStatementStats renders the analysis of the most recent batch only.
func (s *Service) LastStatementStats(ctx context.Context) (string, error) {
	l, err := s.store.LoadLatest(ctx)
	if err != nil {
		return "", fmt.Errorf("LastStatementStats: %w", err)
	}
	return s.render(l)
}

// StatsFromTransactions renders the analysis of transactions obtained
// elsewhere, such as the warehouse mirror.
func (s *Service) StatsFromTransactions(txs []domain.Transaction) (string, error) {
	return s.render(ledger.NewLedger(ledger.Batch{Transactions: txs}))
}

func (s *Service) render(l ledger.Ledger) (string, error) {
	a, err := analytics.Analyze(l, s.opts.Analytics)
	if errors.Is(err, ledger.ErrEmptyLedger) {
		return "", ErrNoData
	}
	if err != nil {
		return "", err
	}
	return report.Render(a.Report(), s.opts.Report), nil
}

// ListingResult is the rendered transaction list of one batch.
type ListingResult struct {
	BatchID string   `json:"batch_id"`
	Chunks  []string `json:"chunks"`
	Total   string   `json:"total"`
}

// Footer returns the message sent after the chunks.
func (r *ListingResult) Footer() string {
	return "Total: " + r.Total
}

// LatestListing renders the most recent batch as price-sorted HTML chunks.
func (s *Service) LatestListing(ctx context.Context) (*ListingResult, error) {
	id, ok, err := s.store.LatestBatchID(ctx)
	if err != nil {
		return nil, fmt.Errorf("LatestListing: %w", err)
	}
	if !ok {
		return nil, ErrNoData
	}

	raw, err := s.store.ReadRaw(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("LatestListing: %w", err)
	}

	rendered, err := listing.Render(string(raw), s.opts.Listing)
	if errors.Is(err, listing.ErrEmptyTable) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("LatestListing: %w", err)
	}

	return &ListingResult{
		BatchID: id,
		Chunks:  rendered.Chunks,
		Total:   rendered.Total.StringFixed(2),
	}, nil
}

// BatchIDs lists every stored batch identifier.
func (s *Service) BatchIDs(ctx context.Context) ([]string, error) {
	ids, err := s.store.ListBatchIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("BatchIDs: %w", err)
	}
	return ids, nil
}

// DataMonths lists the period labels of the stored batches: the part of each
// batch identifier before its first "_", sorted and without repeats.
func (s *Service) DataMonths(ctx context.Context) ([]string, error) {
	ids, err := s.BatchIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("DataMonths: %w", err)
	}

	seen := make(map[string]bool, len(ids))
	months := make([]string, 0, len(ids))
	for _, id := range ids {
		m := ledger.LeadingToken(id)
		if seen[m] {
			continue
		}
		seen[m] = true
		months = append(months, m)
	}
	sort.Strings(months)
	return months, nil
}

// Ingest runs the ingestion pipeline for a statement stored at path.
func (s *Service) Ingest(ctx context.Context, path, filename string) (*pipeline.Outcome, error) {
	return pipeline.IngestStatement(ctx, s.ingest, path, filename)
}

// HandleJob is a jobs.JobHandler that ingests queued statements and records
// the outcome on the job.
func (s *Service) HandleJob(ctx context.Context, job jobs.Job) error {
	j, ok := job.(*jobs.IngestStatementJob)
	if !ok {
		return fmt.Errorf("HandleJob: unsupported job type %s", job.GetType())
	}

	ctx = logger.WithContext(ctx, logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
		"job_id": j.JobID,
	}))

	out, err := s.Ingest(ctx, j.StatementPath, j.Filename)
	if err != nil {
		return err
	}

	j.BatchID = out.BatchID
	j.Rows = out.Rows
	j.Truncated = out.Truncated
	j.Warnings = out.Warnings
	return nil
}

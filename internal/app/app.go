// Package app wires the configured backends into a ready-to-use service.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/statement-ledger/internal/analytics"
	"github.com/dvloznov/statement-ledger/internal/blob"
	"github.com/dvloznov/statement-ledger/internal/categorizer"
	"github.com/dvloznov/statement-ledger/internal/config"
	infraBQ "github.com/dvloznov/statement-ledger/internal/infra/bigquery"
	"github.com/dvloznov/statement-ledger/internal/ledger"
	"github.com/dvloznov/statement-ledger/internal/listing"
	"github.com/dvloznov/statement-ledger/internal/logger"
	"github.com/dvloznov/statement-ledger/internal/pdftext"
	"github.com/dvloznov/statement-ledger/internal/pipeline"
	"github.com/dvloznov/statement-ledger/internal/report"
	"github.com/dvloznov/statement-ledger/internal/service"
)

// App holds the wired components. Warehouse is nil unless BigQuery is configured.
type App struct {
	Config    *config.Config
	Store     *ledger.Store
	Service   *service.Service
	Warehouse *infraBQ.LedgerRepository

	closers []func() error
}

// Options select which optional parts to build.
type Options struct {
	// Ingest builds the categorizer, the statement archive and the warehouse mirror.
	Ingest bool
	// Warehouse opens the BigQuery repository even when not ingesting.
	Warehouse bool
}

// New builds an App from cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logger.FromContext(ctx)
	a := &App{Config: cfg}

	blobs, err := a.ledgerBlobs(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("New: %w", err)
	}
	a.Store = ledger.NewStore(blobs)

	if (opts.Ingest || opts.Warehouse) && cfg.BigQueryEnabled() {
		repo, err := infraBQ.NewLedgerRepository(ctx, cfg.BigQueryProject, cfg.BigQueryDataset)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("New: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		a.Warehouse = repo
	}

	deps := pipeline.Deps{Store: a.Store}
	if opts.Ingest {
		cat, err := categorizer.NewGeminiCategorizer(ctx, cfg.GeminiModel, cfg.GeminiMaxOutputTokens)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("New: %w", err)
		}
		deps.Extractor = pdftext.NewPageExtractor()
		deps.Categorizer = cat

		if cfg.ArchiveEnabled() {
			archive, err := blob.NewGCSStore(ctx, cfg.GCSBucket, cfg.StatementArchivePrefix, "application/pdf")
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("New: %w", err)
			}
			a.closers = append(a.closers, archive.Close)
			deps.Archive = archive
			log.Info().Str("uri", archive.URI("")).Msg("Statement archive enabled")
		}

		if a.Warehouse != nil {
			if err := a.Warehouse.EnsureTable(ctx); err != nil {
				a.Close()
				return nil, fmt.Errorf("New: %w", err)
			}
			deps.Mirror = a.Warehouse
			log.Info().Str("dataset", cfg.BigQueryDataset).Msg("Warehouse mirror enabled")
		}
	}

	a.Service = service.New(a.Store, deps, ServiceOptions(cfg))
	return a, nil
}

func (a *App) ledgerBlobs(ctx context.Context) (blob.Store, error) {
	switch a.Config.LedgerBackend {
	case config.BackendGCS:
		s, err := blob.NewGCSStore(ctx, a.Config.GCSBucket, a.Config.GCSPrefix, "text/csv")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	default:
		return blob.NewLocalStore(a.Config.DataDir)
	}
}

// ServiceOptions derives the analysis and rendering parameters from cfg.
func ServiceOptions(cfg *config.Config) service.Options {
	ac := analytics.DefaultConfig()
	ac.EssentialCategories = cfg.EssentialCategories
	ac.TopMerchants = cfg.TopMerchants
	ac.RecurringThreshold = cfg.RecurringThreshold

	return service.Options{
		Analytics: ac,
		Report:    report.Options{CurrencySymbol: cfg.CurrencySymbol},
		Listing:   listing.Options{ChunkLimit: cfg.ChunkLimit},
	}
}

// Close releases every client opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

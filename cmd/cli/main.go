package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-ledger/internal/app"
	"github.com/dvloznov/statement-ledger/internal/blob"
	"github.com/dvloznov/statement-ledger/internal/config"
	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/logger"
	"github.com/dvloznov/statement-ledger/internal/notionsync"
	"github.com/dvloznov/statement-ledger/internal/service"
)

const dateFlagLayout = "2006-01-02"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	switch os.Args[1] {
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	switch os.Args[1] {
	case "ingest":
		runIngest(log, cfg)
	case "stats":
		runStats(log, cfg)
	case "list":
		runList(log, cfg)
	case "data":
		runData(log, cfg)
	case "export-bq":
		runExportBQ(log, cfg)
	case "sync-notion":
		runSyncNotion(log, cfg)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Statement Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  ingest       Categorize a statement PDF (local path or gs:// URI) and store it")
	fmt.Println("  stats        Print spending statistics (-scope month|statement)")
	fmt.Println("  list         Print the most recent statement's transactions")
	fmt.Println("  data         Print the months with stored statement data")
	fmt.Println("  export-bq    Mirror every stored batch into BigQuery")
	fmt.Println("  sync-notion  Push ledger transactions into a Notion database")
	fmt.Println("  help         Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
	fmt.Println()
	fmt.Println(service.HelpText())
}

func newApp(ctx context.Context, log zerolog.Logger, cfg *config.Config, opts app.Options) *app.App {
	a, err := app.New(ctx, cfg, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	return a
}

// printResult prints text, or the "no data" message when the ledger is empty.
func printResult(log zerolog.Logger, text string, err error) {
	if errors.Is(err, service.ErrNoData) {
		fmt.Println(service.ErrNoData.Error())
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
	fmt.Println(text)
}

func runIngest(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	file := fs.String("file", "", "Statement PDF: a local path or a gs:// URI")
	name := fs.String("name", "", "File name to derive the batch id from (defaults to the file's base name)")
	fs.Parse(os.Args[2:])

	if *file == "" {
		log.Fatal().Msg("Error: -file is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a := newApp(ctx, log, cfg, app.Options{Ingest: true})
	defer a.Close()

	path, filename, cleanup, err := localStatement(ctx, *file)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to fetch statement")
	}
	defer cleanup()
	if *name != "" {
		filename = *name
	}

	log.Info().Str("file", filename).Msg("Starting ingestion")

	out, err := a.Service.Ingest(ctx, path, filename)
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	fmt.Printf("Saved batch %s with %d transactions.\n", out.BatchID, out.Rows)
	for _, w := range out.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
}

// localStatement returns a local path for the statement, downloading gs://
// URIs into a temporary file first.
func localStatement(ctx context.Context, file string) (path, filename string, cleanup func(), err error) {
	if !strings.HasPrefix(file, "gs://") {
		return file, filepath.Base(file), func() {}, nil
	}

	data, err := blob.FetchFromGCS(ctx, file)
	if err != nil {
		return "", "", nil, err
	}

	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return "", "", nil, fmt.Errorf("localStatement: %w", err)
	}
	cleanup = func() { os.Remove(tmp.Name()) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return "", "", nil, fmt.Errorf("localStatement: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("localStatement: %w", err)
	}
	return tmp.Name(), blob.ExtractFilenameFromGCSURI(file), cleanup, nil
}

func runStats(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	scope := fs.String("scope", "month", "month (all stored batches) or statement (most recent batch)")
	source := fs.String("source", "ledger", "ledger (stored batches) or warehouse (BigQuery mirror)")
	from := fs.String("from", "", "Warehouse start date, YYYY-MM-DD (default: one year ago)")
	to := fs.String("to", "", "Warehouse end date, YYYY-MM-DD (default: today)")
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)

	switch *source {
	case "ledger":
	case "warehouse":
		runWarehouseStats(ctx, log, cfg, *from, *to)
		return
	default:
		log.Fatal().Str("source", *source).Msg("Error: -source must be ledger or warehouse")
	}

	a := newApp(ctx, log, cfg, app.Options{})
	defer a.Close()

	switch *scope {
	case "month":
		text, err := a.Service.LastMonthStats(ctx)
		printResult(log, text, err)
	case "statement":
		text, err := a.Service.LastStatementStats(ctx)
		printResult(log, text, err)
	default:
		log.Fatal().Str("scope", *scope).Msg("Error: -scope must be month or statement")
	}
}

func runWarehouseStats(ctx context.Context, log zerolog.Logger, cfg *config.Config, from, to string) {
	start, end, err := parseDateRange(from, to, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid date range")
	}

	a := newApp(ctx, log, cfg, app.Options{Warehouse: true})
	defer a.Close()
	if a.Warehouse == nil {
		log.Fatal().Msg("Error: BIGQUERY_PROJECT is not set")
	}

	rows, err := a.Warehouse.QueryTransactionsByDateRange(ctx, start, end)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to query transactions")
	}

	txs := make([]domain.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, row.ToDomain())
	}

	text, err := a.Service.StatsFromTransactions(txs)
	printResult(log, text, err)
}

// parseDateRange parses the -from and -to flags. Empty values default to the
// year ending now.
func parseDateRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := end.AddDate(-1, 0, 0)

	var err error
	if from != "" {
		if start, err = time.Parse(dateFlagLayout, from); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -from %q: %w", from, err)
		}
	}
	if to != "" {
		if end, err = time.Parse(dateFlagLayout, to); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -to %q: %w", to, err)
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("-to %s is before -from %s", end.Format(dateFlagLayout), start.Format(dateFlagLayout))
	}
	return start, end, nil
}

func runList(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	a := newApp(ctx, log, cfg, app.Options{})
	defer a.Close()

	res, err := a.Service.LatestListing(ctx)
	if errors.Is(err, service.ErrNoData) {
		fmt.Println(service.ErrNoData.Error())
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	for _, chunk := range res.Chunks {
		fmt.Println(chunk)
	}
	fmt.Println(res.Footer())
}

func runData(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("data", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	ctx := logger.WithContext(context.Background(), log)
	a := newApp(ctx, log, cfg, app.Options{})
	defer a.Close()

	months, err := a.Service.DataMonths(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list data")
	}
	if len(months) == 0 {
		fmt.Println(service.ErrNoData.Error())
		return
	}

	fmt.Println("Available data:")
	for _, m := range months {
		fmt.Println(m)
	}
}

func runExportBQ(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("export-bq", flag.ExitOnError)
	batch := fs.String("batch", "", "Export only this batch id")
	fs.Parse(os.Args[2:])

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a := newApp(ctx, log, cfg, app.Options{Warehouse: true})
	defer a.Close()
	if a.Warehouse == nil {
		log.Fatal().Msg("Error: BIGQUERY_PROJECT is not set")
	}

	if err := a.Warehouse.EnsureTable(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare BigQuery table")
	}

	ids := []string{*batch}
	if *batch == "" {
		var err error
		if ids, err = a.Service.BatchIDs(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to list batches")
		}
	}

	failed := 0
	for _, id := range ids {
		txs := a.Store.Load(ctx, id).Transactions
		if err := a.Warehouse.ReplaceBatch(ctx, id, txs); err != nil {
			log.Error().Err(err).Str("batch_id", id).Msg("Failed to export batch")
			failed++
			continue
		}
		log.Info().Str("batch_id", id).Int("rows", len(txs)).Msg("Batch exported")
	}

	fmt.Printf("Exported %d of %d batches.\n", len(ids)-failed, len(ids))
	if failed > 0 {
		os.Exit(1)
	}
}

func runSyncNotion(log zerolog.Logger, cfg *config.Config) {
	fs := flag.NewFlagSet("sync-notion", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Show what would be synced without making changes")
	prune := fs.Bool("prune", false, "Archive Notion pages whose transaction is no longer stored")
	fs.Parse(os.Args[2:])

	if !cfg.NotionEnabled() {
		log.Fatal().Msg("Error: NOTION_TOKEN and NOTION_DATABASE_ID must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	a := newApp(ctx, log, cfg, app.Options{})
	defer a.Close()

	l, err := a.Store.LoadAll(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}

	client := notionsync.NewNotionClient(cfg.NotionToken)
	res, err := notionsync.SyncLedger(ctx, l, client, cfg.NotionDatabaseID, notionsync.SyncOptions{
		DryRun: *dryRun,
		Prune:  *prune,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	prefix := ""
	if *dryRun {
		prefix = "[dry run] "
	}
	fmt.Printf("%sCreated: %d, skipped: %d, archived: %d, failed: %d\n",
		prefix, res.Created, res.Skipped, res.Archived, res.Failed)
}

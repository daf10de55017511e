// Package notionsync exports ledger transactions to a Notion database.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/ledger"
	"github.com/dvloznov/statement-ledger/internal/logger"
)

// PageSize is the number of pages requested per database query.
const PageSize = 100

// SyncOptions control a ledger sync.
type SyncOptions struct {
	// DryRun logs what would change without calling the write APIs.
	DryRun bool
	// Prune archives pages whose transaction is no longer in the ledger.
	Prune bool
}

// SyncResult counts what a sync did (or would do, in a dry run).
type SyncResult struct {
	Created  int
	Skipped  int
	Archived int
	Failed   int
}

// SyncLedger pushes every ledger transaction that is not yet in the Notion
// database. Rows are matched by their stable transaction id, so repeated syncs
// only add new rows. Individual page failures are logged and counted.
func SyncLedger(ctx context.Context, l ledger.Ledger, notionClient NotionService, notionDBID string, opts SyncOptions) (SyncResult, error) {
	log := logger.FromContext(ctx)
	var res SyncResult

	log.Info().
		Int("transactions", l.Len()).
		Bool("dry_run", opts.DryRun).
		Bool("prune", opts.Prune).
		Msg("Starting ledger sync to Notion")

	pages, err := queryAllNotionPages(ctx, notionClient, notionDBID)
	if err != nil {
		return res, fmt.Errorf("SyncLedger: %w", err)
	}

	existing := make(map[string]bool, len(pages))
	for _, page := range pages {
		if id := extractTransactionID(page); id != "" {
			existing[id] = true
		}
	}

	wanted := make(map[string]bool, l.Len())
	for _, item := range stableIDs(l) {
		wanted[item.id] = true

		if existing[item.id] {
			res.Skipped++
			continue
		}

		if opts.DryRun {
			log.Info().Str("transaction_id", item.id).Str("name", item.tx.Name).Msg("[DRY RUN] Would create Notion page")
			res.Created++
			continue
		}

		page, err := notionClient.CreatePage(ctx, notionDBID, TransactionToNotionProperties(item.id, item.tx))
		if err != nil {
			log.Warn().Err(err).Str("transaction_id", item.id).Msg("Failed to create Notion page")
			res.Failed++
			continue
		}
		log.Debug().Str("transaction_id", item.id).Str("page_id", string(page.ID)).Msg("Created Notion page")
		res.Created++
	}

	if opts.Prune {
		for _, page := range pages {
			id := extractTransactionID(page)
			if id != "" && wanted[id] {
				continue
			}
			if opts.DryRun {
				log.Info().Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
				res.Archived++
				continue
			}
			if err := notionClient.ArchivePage(ctx, string(page.ID)); err != nil {
				log.Warn().Err(err).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
				res.Failed++
				continue
			}
			res.Archived++
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("skipped", res.Skipped).
		Int("archived", res.Archived).
		Int("failed", res.Failed).
		Msg("Ledger sync completed")

	return res, nil
}

type identified struct {
	id string
	tx domain.Transaction
}

// stableIDs assigns each transaction its id from its position within its batch.
func stableIDs(l ledger.Ledger) []identified {
	positions := make(map[string]int)
	out := make([]identified, 0, l.Len())
	for _, tx := range l.Transactions {
		i := positions[tx.Batch]
		positions[tx.Batch] = i + 1
		out = append(out, identified{id: domain.StableID(tx.Batch, i, tx), tx: tx})
	}
	return out
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: PageSize,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}

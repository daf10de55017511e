package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/logger"
)

const transactionsTable = "transactions"

// LedgerRepository mirrors ledger batches into a BigQuery table. It holds a
// shared client to avoid creating a new connection for each operation.
type LedgerRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	now       func() time.Time
}

// NewLedgerRepository creates a repository with its own BigQuery client.
func NewLedgerRepository(ctx context.Context, projectID, datasetID string) (*LedgerRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewLedgerRepository: creating client: %w", err)
	}
	return NewLedgerRepositoryWithClient(client, projectID, datasetID), nil
}

// NewLedgerRepositoryWithClient creates a repository using the provided client.
func NewLedgerRepositoryWithClient(client *bigquery.Client, projectID, datasetID string) *LedgerRepository {
	return &LedgerRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		now:       time.Now,
	}
}

// Close closes the BigQuery client connection.
func (r *LedgerRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *LedgerRepository) tableRef() string {
	return "`" + r.projectID + "." + r.datasetID + "." + transactionsTable + "`"
}

// EnsureTable creates the transactions table if it does not exist yet.
func (r *LedgerRepository) EnsureTable(ctx context.Context) error {
	schema, err := bigquery.InferSchema(TransactionRow{})
	if err != nil {
		return fmt.Errorf("EnsureTable: infer schema: %w", err)
	}

	table := r.client.DatasetInProject(r.projectID, r.datasetID).Table(transactionsTable)
	err = table.Create(ctx, &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.MonthPartitioningType,
			Field: "transaction_date",
		},
	})
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		return nil
	}
	if err != nil {
		return fmt.Errorf("EnsureTable: create table: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().Str("table", r.tableRef()).Msg("Created warehouse table")
	return nil
}

// ReplaceBatch deletes the mirrored rows of batchID and inserts txs in their
// place, so re-ingesting a statement overwrites it.
func (r *LedgerRepository) ReplaceBatch(ctx context.Context, batchID string, txs []domain.Transaction) error {
	if err := r.deleteBatchRows(ctx, batchID); err != nil {
		return fmt.Errorf("ReplaceBatch: %w", err)
	}

	rows := ToTransactionRows(batchID, txs, r.now())
	if err := r.insertTransactions(ctx, rows); err != nil {
		return fmt.Errorf("ReplaceBatch: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().Str("batch_id", batchID).Int("rows", len(rows)).Msg("Batch mirrored to BigQuery")
	return nil
}

func (r *LedgerRepository) deleteBatchRows(ctx context.Context, batchID string) error {
	q := r.client.Query(`
		DELETE FROM ` + r.tableRef() + `
		WHERE batch_id = @batch_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "batch_id", Value: batchID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("delete batch rows: run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("delete batch rows: wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("delete batch rows: job error: %w", err)
	}

	return nil
}

func (r *LedgerRepository) insertTransactions(ctx context.Context, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	inserter := r.client.DatasetInProject(r.projectID, r.datasetID).Table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}

	return nil
}

// QueryTransactionsByDateRange returns mirrored transactions dated within
// [startDate, endDate], ordered by date and then by position in their batch.
func (r *LedgerRepository) QueryTransactionsByDateRange(ctx context.Context, startDate, endDate time.Time) ([]*TransactionRow, error) {
	q := r.client.Query(`
		SELECT
			transaction_id,
			batch_id,
			row_number,
			transaction_date,
			name,
			amount,
			category,
			created_ts
		FROM ` + r.tableRef() + `
		WHERE transaction_date >= @start_date
		  AND transaction_date <= @end_date
		ORDER BY transaction_date, batch_id, row_number
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "start_date", Value: civil.DateOf(startDate)},
		{Name: "end_date", Value: civil.DateOf(endDate)},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryTransactionsByDateRange: query read: %w", err)
	}

	var rows []*TransactionRow
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryTransactionsByDateRange: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

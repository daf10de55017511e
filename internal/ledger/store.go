package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/statement-ledger/internal/blob"
	"github.com/dvloznov/statement-ledger/internal/logger"
)

// Store persists batches as CSV objects in a blob.Store and assembles
// ledgers from them.
type Store struct {
	blobs blob.Store
}

// NewStore creates a batch store backed by blobs.
func NewStore(blobs blob.Store) *Store {
	return &Store{blobs: blobs}
}

// Save writes a batch table under id, replacing any previous batch with the
// same identifier. The table is stored verbatim. A table failing the schema
// check is still saved; loads will skip it.
func (s *Store) Save(ctx context.Context, id string, table []byte) error {
	log := logger.FromContext(ctx)

	if id == "" {
		return fmt.Errorf("Save: empty batch id")
	}
	if _, err := ParseBatch(id, table); err != nil {
		var invalid *InvalidBatchError
		if errors.As(err, &invalid) {
			log.Warn().Err(err).Str("batch_id", id).Msg("Saving batch that fails the schema check")
		}
	}

	if err := s.blobs.Put(ctx, id+BatchExt, table); err != nil {
		return fmt.Errorf("Save: put batch %s: %w", id, err)
	}

	log.Info().Str("batch_id", id).Int("bytes", len(table)).Msg("Batch saved")
	return nil
}

// ListBatchIDs returns every stored batch identifier in ascending order.
func (s *Store) ListBatchIDs(ctx context.Context) ([]string, error) {
	names, err := s.blobs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListBatchIDs: %w", err)
	}

	ids := make([]string, 0, len(names))
	for _, name := range names {
		if !strings.HasSuffix(name, BatchExt) {
			continue
		}
		if id := strings.TrimSuffix(name, BatchExt); id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadRaw returns the stored table of a batch as written.
func (s *Store) ReadRaw(ctx context.Context, id string) ([]byte, error) {
	data, err := s.blobs.Get(ctx, id+BatchExt)
	if err != nil {
		return nil, fmt.Errorf("ReadRaw: batch %s: %w", id, err)
	}
	return data, nil
}

// LoadBatches reads and parses the given batches, skipping unreadable or
// invalid ones with a warning.
func (s *Store) LoadBatches(ctx context.Context, ids ...string) []Batch {
	log := logger.FromContext(ctx)

	batches := make([]Batch, 0, len(ids))
	for _, id := range ids {
		data, err := s.ReadRaw(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("batch_id", id).Msg("Skipping unreadable batch")
			continue
		}
		b, err := ParseBatch(id, data)
		if err != nil {
			log.Warn().Err(err).Str("batch_id", id).Msg("Skipping invalid batch")
			continue
		}
		if b.SkippedRows > 0 {
			log.Warn().Str("batch_id", id).Int("skipped_rows", b.SkippedRows).Msg("Dropped rows with unparseable dates")
		}
		batches = append(batches, b)
	}
	return batches
}

// Load assembles a ledger from the named batches.
func (s *Store) Load(ctx context.Context, ids ...string) Ledger {
	return NewLedger(s.LoadBatches(ctx, ids...)...)
}

// LoadAll assembles a ledger from every valid stored batch.
func (s *Store) LoadAll(ctx context.Context) (Ledger, error) {
	ids, err := s.ListBatchIDs(ctx)
	if err != nil {
		return Ledger{}, fmt.Errorf("LoadAll: %w", err)
	}
	return s.Load(ctx, ids...), nil
}

// LoadLatest assembles a ledger from the most recent valid batch only.
// The returned ledger is empty when no valid batch exists.
func (s *Store) LoadLatest(ctx context.Context) (Ledger, error) {
	ids, err := s.ListBatchIDs(ctx)
	if err != nil {
		return Ledger{}, fmt.Errorf("LoadLatest: %w", err)
	}

	latest, ok := LatestBatch(s.LoadBatches(ctx, ids...))
	if !ok {
		return Ledger{}, nil
	}

	log := logger.FromContext(ctx)
	log.Debug().Str("batch_id", latest.ID).Msg("Selected latest batch")
	return NewLedger(latest), nil
}

// LatestBatchID returns the identifier of the most recent valid batch.
func (s *Store) LatestBatchID(ctx context.Context) (string, bool, error) {
	ids, err := s.ListBatchIDs(ctx)
	if err != nil {
		return "", false, fmt.Errorf("LatestBatchID: %w", err)
	}
	latest, ok := LatestBatch(s.LoadBatches(ctx, ids...))
	return latest.ID, ok, nil
}

// LatestBatch picks the most recent batch: the one containing the latest
// transaction date. Ties, and batches without rows, fall back to comparing
// the trailing "_" token of the identifier and then the whole identifier.
func LatestBatch(batches []Batch) (Batch, bool) {
	if len(batches) == 0 {
		return Batch{}, false
	}
	best := batches[0]
	bestDate := best.LastDate()
	for _, b := range batches[1:] {
		d := b.LastDate()
		switch {
		case d.After(bestDate):
		case d.Equal(bestDate) && newerID(b.ID, best.ID):
		default:
			continue
		}
		best, bestDate = b, d
	}
	return best, true
}

func newerID(a, b string) bool {
	ta, tb := trailingToken(a), trailingToken(b)
	if ta != tb {
		return ta > tb
	}
	return a > b
}

func trailingToken(id string) string {
	if i := strings.LastIndex(id, "_"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// LeadingToken returns the part of a batch identifier before its first "_".
func LeadingToken(id string) string {
	if i := strings.Index(id, "_"); i >= 0 {
		return id[:i]
	}
	return id
}

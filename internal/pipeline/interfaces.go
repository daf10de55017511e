package pipeline

import (
	"context"

	"github.com/dvloznov/statement-ledger/internal/domain"
)

// BatchStore persists categorized statement tables.
// This interface enables mocking the ledger store in tests.
type BatchStore interface {
	// Save writes the table under batchID, replacing any earlier version.
	Save(ctx context.Context, batchID string, table []byte) error
}

// StatementArchive keeps a copy of every uploaded statement file.
type StatementArchive interface {
	Put(ctx context.Context, name string, data []byte) error
}

// LedgerMirror replicates a saved batch into a secondary store such as a
// data warehouse.
type LedgerMirror interface {
	// ReplaceBatch swaps the mirrored rows of batchID for txs.
	ReplaceBatch(ctx context.Context, batchID string, txs []domain.Transaction) error
}

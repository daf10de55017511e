package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/statement-ledger/internal/categorizer"
	"github.com/dvloznov/statement-ledger/internal/logger"
	"github.com/dvloznov/statement-ledger/internal/pdftext"
	"github.com/dvloznov/statement-ledger/internal/sanitize"
)

// TruncatedWarning is reported when the categorizer stopped at its output limit.
const TruncatedWarning = "The statement was too long to categorize completely; the saved batch may be missing transactions."

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// ExtractTextStep reads the text of every page of the statement.
type ExtractTextStep struct {
	Extractor pdftext.Extractor
}

func (s *ExtractTextStep) Name() string { return "extract_text" }

func (s *ExtractTextStep) Execute(ctx context.Context, state *PipelineState) error {
	text, err := s.Extractor.ExtractText(ctx, state.StatementPath)
	if err != nil {
		return fmt.Errorf("ExtractTextStep: %w", err)
	}
	state.RawText = text
	return nil
}

// SanitizeStep strips issuer boilerplate and trailing non-transaction text.
type SanitizeStep struct {
	Sanitizer *sanitize.Sanitizer
}

func (s *SanitizeStep) Name() string { return "sanitize" }

func (s *SanitizeStep) Execute(ctx context.Context, state *PipelineState) error {
	if s.Sanitizer == nil {
		state.CleanText = sanitize.Sanitize(state.RawText)
	} else {
		state.CleanText = s.Sanitizer.Sanitize(state.RawText)
	}
	log := logger.FromContext(ctx)
	log.Debug().
		Int("raw_chars", len(state.RawText)).
		Int("clean_chars", len(state.CleanText)).
		Msg("Statement text sanitized")
	return nil
}

// CategorizeStep turns the statement text into a categorized table.
// A truncated response is kept and flagged; any other failure aborts the run.
type CategorizeStep struct {
	Categorizer categorizer.Categorizer
	Now         func() time.Time
}

func (s *CategorizeStep) Name() string { return "categorize" }

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	table, err := s.Categorizer.Categorize(ctx, state.CleanText, now().Year())
	switch {
	case errors.Is(err, categorizer.ErrResponseTruncated):
		log := logger.FromContext(ctx)
		log.Warn().Str("batch_id", state.BatchID).Msg("Categorizer response truncated")
		state.Truncated = true
		state.warn(TruncatedWarning)
	case err != nil:
		return fmt.Errorf("CategorizeStep: %w", err)
	}

	state.Table = table
	return nil
}

// SaveBatchStep persists the categorized table as the statement's batch.
type SaveBatchStep struct {
	Store BatchStore
}

func (s *SaveBatchStep) Name() string { return "save_batch" }

func (s *SaveBatchStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	txs, warnings := validateTable(state.BatchID, state.Table)
	for _, w := range warnings {
		log.Warn().Str("batch_id", state.BatchID).Msg(w)
		state.warn(w)
	}
	state.Transactions = txs

	if err := s.Store.Save(ctx, state.BatchID, []byte(state.Table)); err != nil {
		return fmt.Errorf("SaveBatchStep: %w", err)
	}
	return nil
}

// ArchiveStatementStep copies the uploaded PDF to the statement archive.
// Failures only produce a warning; the batch is already saved.
type ArchiveStatementStep struct {
	Archive StatementArchive
}

func (s *ArchiveStatementStep) Name() string { return "archive_statement" }

func (s *ArchiveStatementStep) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	data, err := os.ReadFile(state.StatementPath)
	if err == nil {
		err = s.Archive.Put(ctx, state.BatchID+".pdf", data)
	}
	if err != nil {
		log.Warn().Err(err).Str("batch_id", state.BatchID).Msg("Failed to archive statement")
		state.warn("The statement file could not be archived.")
		return nil
	}

	log.Info().Str("batch_id", state.BatchID).Int("bytes", len(data)).Msg("Statement archived")
	return nil
}

// MirrorStep replicates the saved batch into a secondary store.
// Failures only produce a warning; the batch is already saved.
type MirrorStep struct {
	Mirror LedgerMirror
}

func (s *MirrorStep) Name() string { return "mirror" }

func (s *MirrorStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Mirror.ReplaceBatch(ctx, state.BatchID, state.Transactions); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("batch_id", state.BatchID).Msg("Failed to mirror batch")
		state.warn("The batch could not be copied to the warehouse.")
	}
	return nil
}

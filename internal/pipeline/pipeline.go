// Package pipeline turns an uploaded statement PDF into a stored ledger batch.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dvloznov/statement-ledger/internal/categorizer"
	"github.com/dvloznov/statement-ledger/internal/ledger"
	"github.com/dvloznov/statement-ledger/internal/logger"
	"github.com/dvloznov/statement-ledger/internal/pdftext"
	"github.com/dvloznov/statement-ledger/internal/sanitize"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially, stopping at the first error.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)

	for i, step := range p.steps {
		start := time.Now()
		if err := step.Execute(ctx, state); err != nil {
			log.Error().Err(err).Str("step", step.Name()).Str("batch_id", state.BatchID).Msg("Pipeline step failed")
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
		log.Debug().Str("step", step.Name()).Dur("elapsed", time.Since(start)).Msg("Pipeline step completed")
	}
	return nil
}

// Deps are the collaborators of the ingestion pipeline. Archive and Mirror are
// optional; their steps are left out when nil.
type Deps struct {
	Extractor   pdftext.Extractor
	Sanitizer   *sanitize.Sanitizer
	Categorizer categorizer.Categorizer
	Store       BatchStore
	Archive     StatementArchive
	Mirror      LedgerMirror
	Now         func() time.Time
}

// NewStatementIngestionPipeline creates the standard ingestion pipeline.
func NewStatementIngestionPipeline(deps Deps) *Pipeline {
	steps := []PipelineStep{
		&ExtractTextStep{Extractor: deps.Extractor},
		&SanitizeStep{Sanitizer: deps.Sanitizer},
		&CategorizeStep{Categorizer: deps.Categorizer, Now: deps.Now},
		&SaveBatchStep{Store: deps.Store},
	}
	if deps.Archive != nil {
		steps = append(steps, &ArchiveStatementStep{Archive: deps.Archive})
	}
	if deps.Mirror != nil {
		steps = append(steps, &MirrorStep{Mirror: deps.Mirror})
	}
	return NewPipeline(steps...)
}

// IngestStatement processes a single statement PDF stored at statementPath.
// filename is the name it was uploaded under and determines the batch id.
func IngestStatement(ctx context.Context, deps Deps, statementPath, filename string) (*Outcome, error) {
	if filename == "" {
		filename = filepath.Base(statementPath)
	}
	batchID, err := ledger.DeriveBatchID(filename)
	if err != nil {
		return nil, fmt.Errorf("IngestStatement: %w", err)
	}

	ctx = logger.WithContext(ctx, logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
		"batch_id": batchID,
		"file":     filename,
	}))

	state := &PipelineState{
		StatementPath: statementPath,
		Filename:      filename,
		BatchID:       batchID,
	}
	if err := NewStatementIngestionPipeline(deps).Execute(ctx, state); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("rows", len(state.Transactions)).
		Bool("truncated", state.Truncated).
		Msg("Statement ingested")

	return &Outcome{
		BatchID:   batchID,
		Rows:      len(state.Transactions),
		Truncated: state.Truncated,
		Warnings:  state.Warnings,
	}, nil
}

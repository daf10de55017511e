package pipeline

import (
	"github.com/dvloznov/statement-ledger/internal/domain"
)

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	// StatementPath is the local path of the uploaded PDF.
	StatementPath string
	// Filename is the name the statement was uploaded under.
	Filename string
	BatchID  string

	RawText   string
	CleanText string

	// Table is the categorized CSV exactly as returned by the categorizer.
	Table        string
	Truncated    bool
	Transactions []domain.Transaction

	Warnings []string
}

func (s *PipelineState) warn(msg string) {
	s.Warnings = append(s.Warnings, msg)
}

// Outcome summarizes a finished ingestion.
type Outcome struct {
	BatchID   string   `json:"batch_id"`
	Rows      int      `json:"rows"`
	Truncated bool     `json:"truncated"`
	Warnings  []string `json:"warnings,omitempty"`
}

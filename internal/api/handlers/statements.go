package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dvloznov/statement-ledger/internal/api/middleware"
	"github.com/dvloznov/statement-ledger/internal/jobs"
	"github.com/dvloznov/statement-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/statement-ledger/internal/ledger"
	"github.com/dvloznov/statement-ledger/internal/logger"
)

// MaxStatementBytes bounds the size of an uploaded statement.
const MaxStatementBytes = 20 << 20

// StatementsHandler accepts statement uploads and queues them for ingestion.
type StatementsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	dir       string
}

// NewStatementsHandler creates a handler that stores uploads under dir.
func NewStatementsHandler(publisher jobs.Publisher, store jobs.JobStore, dir string) *StatementsHandler {
	return &StatementsHandler{
		publisher: publisher,
		store:     store,
		dir:       dir,
	}
}

// Upload handles POST /api/statements
// The PDF is sent as the multipart field "file"; its name becomes the batch id.
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, MaxStatementBytes)
	if err := r.ParseMultipartForm(MaxStatementBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(strings.ReplaceAll(header.Filename, "\\", "/"))
	if !isPDF(filename, header.Header.Get("Content-Type")) {
		middleware.WriteError(w, http.StatusBadRequest, "Please upload a PDF statement")
		return
	}
	batchID, err := ledger.DeriveBatchID(filename)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid statement file name")
		return
	}

	jobID := uuid.New().String()
	path, err := h.saveUpload(jobID, file)
	if err != nil {
		log.Error().Err(err).Str("file", filename).Msg("Failed to store uploaded statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store statement")
		return
	}

	job := &jobs.IngestStatementJob{
		JobID:         jobID,
		StatementPath: path,
		Filename:      filename,
	}
	if err := h.publisher.PublishIngestStatement(ctx, job); err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("Failed to enqueue ingestion job")
		os.Remove(path)
		// The job may already be recorded as pending.
		markErr := h.store.UpdateJobStatus(context.WithoutCancel(ctx), jobID, jobs.JobStatusFailed, err.Error())
		if markErr != nil && !errors.Is(markErr, inmemory.ErrJobNotFound) {
			log.Error().Err(markErr).Str("job_id", jobID).Msg("Failed to mark job as failed")
		}
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingestion job")
		return
	}

	log.Info().Str("job_id", jobID).Str("batch_id", batchID).Msg("Ingestion job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":   job.JobID,
		"batch_id": batchID,
		"status":   string(job.Status),
	})
}

func (h *StatementsHandler) saveUpload(jobID string, src io.Reader) (string, error) {
	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		return "", fmt.Errorf("saveUpload: create dir: %w", err)
	}

	path := filepath.Join(h.dir, jobID+".pdf")
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("saveUpload: create file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("saveUpload: write file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("saveUpload: close file: %w", err)
	}
	return path, nil
}

func isPDF(filename, contentType string) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return strings.HasPrefix(contentType, "application/pdf")
}

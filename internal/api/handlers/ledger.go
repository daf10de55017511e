package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dvloznov/statement-ledger/internal/api/middleware"
	"github.com/dvloznov/statement-ledger/internal/logger"
	"github.com/dvloznov/statement-ledger/internal/service"
)

// LedgerQueries answers the read-only ledger commands.
// This interface enables mocking the service in tests.
type LedgerQueries interface {
	LastMonthStats(ctx context.Context) (string, error)
	LastStatementStats(ctx context.Context) (string, error)
	LatestListing(ctx context.Context) (*service.ListingResult, error)
	BatchIDs(ctx context.Context) ([]string, error)
	DataMonths(ctx context.Context) ([]string, error)
}

// LedgerHandler serves statistics and listings of the stored ledger.
type LedgerHandler struct {
	queries LedgerQueries
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(queries LedgerQueries) *LedgerHandler {
	return &LedgerHandler{queries: queries}
}

// LastMonthStats handles GET /api/stats/last-month
func (h *LedgerHandler) LastMonthStats(w http.ResponseWriter, r *http.Request) {
	h.writeText(w, r, h.queries.LastMonthStats)
}

// LastStatementStats handles GET /api/stats/last-statement
func (h *LedgerHandler) LastStatementStats(w http.ResponseWriter, r *http.Request) {
	h.writeText(w, r, h.queries.LastStatementStats)
}

func (h *LedgerHandler) writeText(w http.ResponseWriter, r *http.Request, fn func(context.Context) (string, error)) {
	text, err := fn(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to compute statistics")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"text": text})
}

// LatestTransactions handles GET /api/transactions/latest
func (h *LedgerHandler) LatestTransactions(w http.ResponseWriter, r *http.Request) {
	res, err := h.queries.LatestListing(r.Context())
	if err != nil {
		h.fail(w, r, err, "Failed to list transactions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res)
}

// ListBatches handles GET /api/batches
func (h *LedgerHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ids, err := h.queries.BatchIDs(ctx)
	if err != nil {
		h.fail(w, r, err, "Failed to list batches")
		return
	}
	months, err := h.queries.DataMonths(ctx)
	if err != nil {
		h.fail(w, r, err, "Failed to list batches")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"batches": ids,
		"months":  months,
		"count":   len(ids),
	})
}

// Help handles GET /api/help
func (h *LedgerHandler) Help(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"text": service.HelpText()})
}

func (h *LedgerHandler) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, service.ErrNoData) {
		middleware.WriteError(w, http.StatusNotFound, service.ErrNoData.Error())
		return
	}
	log := logger.FromContext(r.Context())
	log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	middleware.WriteError(w, http.StatusInternalServerError, msg)
}

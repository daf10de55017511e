// Package api assembles the HTTP surface of the ledger service.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/statement-ledger/internal/api/handlers"
	"github.com/dvloznov/statement-ledger/internal/api/middleware"
	"github.com/dvloznov/statement-ledger/internal/jobs"
)

// RouterDeps are the collaborators served by the router.
type RouterDeps struct {
	Queries      handlers.LedgerQueries
	Publisher    jobs.Publisher
	JobStore     jobs.JobStore
	StatementDir string
	Log          zerolog.Logger
}

// NewRouter builds the routed and middleware-wrapped HTTP handler.
func NewRouter(deps RouterDeps) http.Handler {
	statementsHandler := handlers.NewStatementsHandler(deps.Publisher, deps.JobStore, deps.StatementDir)
	ledgerHandler := handlers.NewLedgerHandler(deps.Queries)
	jobsHandler := handlers.NewJobsHandler(deps.JobStore)

	mux := http.NewServeMux()

	// Statements endpoints
	mux.HandleFunc("/api/statements", only(http.MethodPost, statementsHandler.Upload))

	// Ledger endpoints
	mux.HandleFunc("/api/stats/last-month", only(http.MethodGet, ledgerHandler.LastMonthStats))
	mux.HandleFunc("/api/stats/last-statement", only(http.MethodGet, ledgerHandler.LastStatementStats))
	mux.HandleFunc("/api/batches", only(http.MethodGet, ledgerHandler.ListBatches))
	mux.HandleFunc("/api/transactions/latest", only(http.MethodGet, ledgerHandler.LatestTransactions))
	mux.HandleFunc("/api/help", only(http.MethodGet, ledgerHandler.Help))

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", only(http.MethodGet, jobsHandler.ListJobs))
	mux.HandleFunc("/api/jobs/", only(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		// Extract job ID from path
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	}))

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Recovery(deps.Log)(
		middleware.RequestID(deps.Log)(
			middleware.Logger(deps.Log)(
				middleware.CORS(mux),
			),
		),
	)
}

func only(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}

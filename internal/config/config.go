// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Ledger backends.
const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
)

// DefaultEssentialCategories are the categories counted as essential spending.
var DefaultEssentialCategories = []string{"Groceries", "Utilities", "Rent", "Transportation"}

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Storage
	DataDir                string
	StatementDir           string
	LedgerBackend          string
	GCSBucket              string
	GCSPrefix              string
	StatementArchivePrefix string

	// Categorization
	GeminiModel           string
	GeminiMaxOutputTokens int

	// Mirrors
	BigQueryProject  string
	BigQueryDataset  string
	NotionToken      string
	NotionDatabaseID string

	// Analytics and rendering
	EssentialCategories []string
	RecurringThreshold  int
	TopMerchants        int
	ChunkLimit          int
	CurrencySymbol      string

	// Worker
	JobWorkers int
}

// Load reads .env (if present) and then the process environment.
// Variables already set in the environment take precedence over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("Load: read .env: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the process environment only.
func FromEnv() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataDir:                getEnv("DATA_DIR", "./data/transactions"),
		StatementDir:           getEnv("STATEMENT_DIR", "./data/statements"),
		LedgerBackend:          getEnv("LEDGER_BACKEND", BackendLocal),
		GCSBucket:              getEnv("GCS_BUCKET", ""),
		GCSPrefix:              getEnv("GCS_PREFIX", "ledger/"),
		StatementArchivePrefix: getEnv("STATEMENT_ARCHIVE_PREFIX", "statements/"),

		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiMaxOutputTokens: getEnvInt("GEMINI_MAX_OUTPUT_TOKENS", 8192),

		BigQueryProject:  getEnv("BIGQUERY_PROJECT", ""),
		BigQueryDataset:  getEnv("BIGQUERY_DATASET", "finance"),
		NotionToken:      getEnv("NOTION_TOKEN", ""),
		NotionDatabaseID: getEnv("NOTION_DATABASE_ID", ""),

		EssentialCategories: getEnvList("ESSENTIAL_CATEGORIES", DefaultEssentialCategories),
		RecurringThreshold:  getEnvInt("RECURRING_THRESHOLD", 2),
		TopMerchants:        getEnvInt("TOP_MERCHANTS", 10),
		ChunkLimit:          getEnvInt("CHUNK_LIMIT", 4096),
		CurrencySymbol:      getEnv("CURRENCY_SYMBOL", "$"),

		JobWorkers: getEnvInt("JOB_WORKERS", 1),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.LedgerBackend {
	case BackendLocal:
		if c.DataDir == "" {
			errs = append(errs, "DATA_DIR cannot be empty when using local backend")
		}
	case BackendGCS:
		if c.GCSBucket == "" {
			errs = append(errs, "GCS_BUCKET is required when using gcs backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid ledger backend '%s': must be one of [%s %s]", c.LedgerBackend, BackendLocal, BackendGCS))
	}

	if c.GeminiMaxOutputTokens < 1 {
		errs = append(errs, fmt.Sprintf("invalid gemini max output tokens %d: must be at least 1", c.GeminiMaxOutputTokens))
	}
	if c.RecurringThreshold < 1 {
		errs = append(errs, fmt.Sprintf("invalid recurring threshold %d: must be at least 1", c.RecurringThreshold))
	}
	if c.TopMerchants < 1 {
		errs = append(errs, fmt.Sprintf("invalid top merchants %d: must be at least 1", c.TopMerchants))
	}
	// A chunk must fit the <pre> wrapper plus at least one character.
	if c.ChunkLimit < 32 {
		errs = append(errs, fmt.Sprintf("invalid chunk limit %d: must be at least 32", c.ChunkLimit))
	}
	if c.JobWorkers < 1 {
		errs = append(errs, fmt.Sprintf("invalid job workers %d: must be at least 1", c.JobWorkers))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

// NotionEnabled reports whether Notion export is configured.
func (c *Config) NotionEnabled() bool {
	return c.NotionToken != "" && c.NotionDatabaseID != ""
}

// BigQueryEnabled reports whether the BigQuery mirror is configured.
func (c *Config) BigQueryEnabled() bool {
	return c.BigQueryProject != ""
}

// ArchiveEnabled reports whether uploaded statements are archived to GCS.
func (c *Config) ArchiveEnabled() bool {
	return c.GCSBucket != "" && c.StatementArchivePrefix != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

package config

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func validConfig() Config {
	return Config{
		Port:                  "8080",
		DataDir:               "./data/transactions",
		LedgerBackend:         BackendLocal,
		GeminiMaxOutputTokens: 8192,
		RecurringThreshold:    2,
		TopMerchants:          10,
		ChunkLimit:            4096,
		JobWorkers:            1,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid local backend config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			modify:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			modify:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid ledger backend",
			modify:      func(c *Config) { c.LedgerBackend = "s3" },
			wantErr:     true,
			errorString: "invalid ledger backend 's3': must be one of [local gcs]",
		},
		{
			name:        "gcs backend missing bucket",
			modify:      func(c *Config) { c.LedgerBackend = BackendGCS },
			wantErr:     true,
			errorString: "GCS_BUCKET is required when using gcs backend",
		},
		{
			name: "valid gcs backend",
			modify: func(c *Config) {
				c.LedgerBackend = BackendGCS
				c.GCSBucket = "my-ledger"
			},
			wantErr: false,
		},
		{
			name:        "chunk limit too small",
			modify:      func(c *Config) { c.ChunkLimit = 10 },
			wantErr:     true,
			errorString: "invalid chunk limit 10: must be at least 32",
		},
		{
			name:        "no workers",
			modify:      func(c *Config) { c.JobWorkers = 0 },
			wantErr:     true,
			errorString: "invalid job workers 0: must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "0"
	cfg.TopMerchants = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"invalid port 0", "invalid top merchants 0"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err.Error(), want)
		}
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "LEDGER_BACKEND", "ESSENTIAL_CATEGORIES", "CHUNK_LIMIT", "JOB_WORKERS", "GEMINI_MAX_OUTPUT_TOKENS"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.LedgerBackend != BackendLocal {
		t.Errorf("LedgerBackend = %q, want local", cfg.LedgerBackend)
	}
	if cfg.ChunkLimit != 4096 || cfg.JobWorkers != 1 || cfg.GeminiMaxOutputTokens != 8192 {
		t.Errorf("unexpected numeric defaults: %+v", cfg)
	}
	if diff := cmp.Diff(DefaultEssentialCategories, cfg.EssentialCategories); diff != "" {
		t.Errorf("EssentialCategories mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ESSENTIAL_CATEGORIES", " Rent , Insurance,,")
	t.Setenv("TOP_MERCHANTS", "3")
	t.Setenv("RECURRING_THRESHOLD", "not-a-number")

	cfg := FromEnv()
	if diff := cmp.Diff([]string{"Rent", "Insurance"}, cfg.EssentialCategories); diff != "" {
		t.Errorf("EssentialCategories mismatch (-want +got):\n%s", diff)
	}
	if cfg.TopMerchants != 3 {
		t.Errorf("TopMerchants = %d, want 3", cfg.TopMerchants)
	}
	if cfg.RecurringThreshold != 2 {
		t.Errorf("RecurringThreshold = %d, want default 2", cfg.RecurringThreshold)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "WORKER_COUNT", "JOB_TTL", "REPAIR_ENGINE", "FIELD_NAMES", "CORS_ALLOWED_ORIGINS", "PATHSTORE_URL"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 || cfg.MaxConcurrentBeautify != 8 {
		t.Errorf("unexpected pool defaults %d/%d", cfg.WorkerCount, cfg.MaxConcurrentBeautify)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h ttl, got %v", cfg.JobTTL)
	}
	if cfg.RepairEngine != "truncation" || cfg.RepairTruncatedJSON {
		t.Errorf("unexpected repair defaults %q/%v", cfg.RepairEngine, cfg.RepairTruncatedJSON)
	}
	if len(cfg.FieldNames) != 0 {
		t.Errorf("expected no field names, got %v", cfg.FieldNames)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("expected wildcard origin, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WORKER_COUNT", "2")
	t.Setenv("MAX_CONCURRENT_BEAUTIFY", "-1")
	t.Setenv("JOB_TTL", "90s")
	t.Setenv("REPAIR_TRUNCATED_JSON", "true")
	t.Setenv("FIELD_NAMES", " message, payload ,,")
	t.Setenv("URL_PATTERNS", "kibana")

	cfg := Load()
	if cfg.WorkerCount != 2 {
		t.Errorf("expected 2 workers, got %d", cfg.WorkerCount)
	}
	if cfg.MaxConcurrentBeautify != 8 {
		t.Errorf("expected out-of-range value to fall back, got %d", cfg.MaxConcurrentBeautify)
	}
	if cfg.JobTTL != 90*time.Second {
		t.Errorf("expected 90s, got %v", cfg.JobTTL)
	}
	if !cfg.RepairTruncatedJSON {
		t.Error("expected repair on")
	}
	if len(cfg.FieldNames) != 2 || cfg.FieldNames[0] != "message" || cfg.FieldNames[1] != "payload" {
		t.Errorf("unexpected field names %v", cfg.FieldNames)
	}
	if len(cfg.URLPatterns) != 1 {
		t.Errorf("unexpected url patterns %v", cfg.URLPatterns)
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Error("expected missing api key to fail")
	}
	if err := (Config{APIKey: "k", PathstoreURL: "http://ps"}).Validate(); err == nil {
		t.Error("expected pathstore without key to fail")
	}
	if err := (Config{APIKey: "k"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	if err := os.WriteFile(path, []byte("JSONLENS_TEST_FROM_FILE=yes\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", path)
	t.Setenv("JSONLENS_TEST_FROM_FILE", "")
	os.Unsetenv("JSONLENS_TEST_FROM_FILE")

	if err := LoadEnvFile(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("JSONLENS_TEST_FROM_FILE"); got != "yes" {
		t.Errorf("expected value from env file, got %q", got)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	if err := LoadEnvFile(); err != nil {
		t.Errorf("expected missing file to be ignored, got %v", err)
	}
}

package application

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DEVICE_DATA_CONFIG", "")
	t.Setenv("DEVICE_DATA_EXPORT_MAX_POINTS", "")
	t.Setenv("DEVICE_DATA_INGEST_MAX_BATCH", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ExportMaxPoints != 10000 {
		t.Fatalf("expected export cap 10000, got %d", cfg.ExportMaxPoints)
	}
	if cfg.IngestMaxBatch != 1000 {
		t.Fatalf("expected ingest cap 1000, got %d", cfg.IngestMaxBatch)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("DEVICE_DATA_CONFIG", "")
	t.Setenv("DEVICE_DATA_EXPORT_MAX_POINTS", "250")
	t.Setenv("DEVICE_DATA_INGEST_MAX_BATCH", "50")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ExportMaxPoints != 250 || cfg.IngestMaxBatch != 50 {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
}

func TestLoadConfigYAMLOverridesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devicedata.yaml")
	if err := os.WriteFile(path, []byte("export_max_points: 123\ningest_max_batch: 7\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("DEVICE_DATA_CONFIG", path)
	t.Setenv("DEVICE_DATA_EXPORT_MAX_POINTS", "999")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ExportMaxPoints != 123 || cfg.IngestMaxBatch != 7 {
		t.Fatalf("expected yaml values to win, got %+v", cfg)
	}
}

func TestLoadConfigRejectsNonPositiveCaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devicedata.yaml")
	if err := os.WriteFile(path, []byte("export_max_points: -5\n"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("DEVICE_DATA_CONFIG", path)

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for negative export cap")
	}
}

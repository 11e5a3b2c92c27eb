package application

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines device data service limits.
type Config struct {
	ExportMaxPoints int `yaml:"export_max_points"`
	IngestMaxBatch  int `yaml:"ingest_max_batch"`
}

// LoadConfig loads config from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		ExportMaxPoints: getenvIntDefault("DEVICE_DATA_EXPORT_MAX_POINTS", 10000),
		IngestMaxBatch:  getenvIntDefault("DEVICE_DATA_INGEST_MAX_BATCH", 1000),
	}

	if path := os.Getenv("DEVICE_DATA_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.ExportMaxPoints <= 0 {
		return cfg, errors.New("device data: export_max_points must be positive")
	}
	if cfg.IngestMaxBatch <= 0 {
		return cfg, errors.New("device data: ingest_max_batch must be positive")
	}
	return cfg, nil
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

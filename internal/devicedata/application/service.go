package application

import (
	"context"
	"errors"
	"fmt"

	devicedata "github.com/lekien2k2/viot/internal/devicedata/domain"
)

// Service answers device telemetry queries and accepts ingested
// samples through the validated query contract.
type Service struct {
	repo devicedata.Repository
	cfg  Config
}

// NewService constructs a device data service.
func NewService(repo devicedata.Repository, cfg Config) (*Service, error) {
	if repo == nil {
		return nil, errors.New("device data service: nil repository")
	}
	return &Service{repo: repo, cfg: cfg}, nil
}

// Timeseries runs a validated query and groups results per key.
// Aggregate queries return bucketed reductions, raw queries return
// stored samples.
func (s *Service) Timeseries(ctx context.Context, deviceID string, q *devicedata.TimeseriesQuery) (map[string][]devicedata.DataPoint, error) {
	if q == nil {
		return nil, errors.New("device data service: nil query")
	}
	if q.Aggregate {
		points, err := s.repo.QueryAggregated(ctx, deviceID, q)
		if err != nil {
			return nil, err
		}
		return devicedata.GroupAggregated(points), nil
	}
	samples, err := s.repo.QuerySeries(ctx, deviceID, q)
	if err != nil {
		return nil, err
	}
	return devicedata.GroupSeries(samples), nil
}

// Latest resolves the newest reading per requested key. The raw key
// list tolerates whitespace around separators.
func (s *Service) Latest(ctx context.Context, deviceID, rawKeys string) ([]devicedata.LatestDataPoint, error) {
	keys, err := devicedata.ParseKeySet(rawKeys)
	if err != nil {
		return nil, err
	}
	return s.repo.QueryLatest(ctx, deviceID, keys)
}

// Ingest validates and stores a batch of samples, returning the number
// written.
func (s *Service) Ingest(ctx context.Context, deviceID string, samples []devicedata.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, &devicedata.ValidationError{Field: "data", Message: "at least one sample is required"}
	}
	if len(samples) > s.cfg.IngestMaxBatch {
		return 0, &devicedata.ValidationError{Field: "data", Message: fmt.Sprintf("batch exceeds %d samples", s.cfg.IngestMaxBatch)}
	}
	for _, smp := range samples {
		if !devicedata.ValidKey(smp.Key) {
			return 0, &devicedata.ParseError{Field: "key", Message: fmt.Sprintf("malformed key %q", smp.Key)}
		}
		if smp.TS.IsZero() {
			return 0, &devicedata.ParseError{Field: "ts", Message: "a timestamp is required"}
		}
	}
	if err := s.repo.InsertSamples(ctx, deviceID, samples); err != nil {
		return 0, err
	}
	return len(samples), nil
}

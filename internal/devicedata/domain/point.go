package devicedata

import (
	"context"
	"time"
)

// Sample is a single stored reading for one device key.
type Sample struct {
	Key   string
	TS    time.Time
	Value Value
}

// DataPoint is one element of a per-key series in query responses.
type DataPoint struct {
	TS    time.Time `json:"ts"`
	Value Value     `json:"value"`
}

// LatestDataPoint is the newest reading for one key.
type LatestDataPoint struct {
	TS    time.Time `json:"ts"`
	Key   string    `json:"key"`
	Value Value     `json:"value"`
}

// AggregatedPoint is one bucketed aggregate for one key. TS is the
// bucket start.
type AggregatedPoint struct {
	Key   string
	TS    time.Time
	Value Value
}

// Repository is the storage port for device telemetry.
type Repository interface {
	InsertSamples(ctx context.Context, deviceID string, samples []Sample) error
	QuerySeries(ctx context.Context, deviceID string, q *TimeseriesQuery) ([]Sample, error)
	QueryAggregated(ctx context.Context, deviceID string, q *TimeseriesQuery) ([]AggregatedPoint, error)
	QueryLatest(ctx context.Context, deviceID string, keys []string) ([]LatestDataPoint, error)
}

// GroupSeries arranges raw samples into per-key series, preserving the
// repository's timestamp order within each key.
func GroupSeries(samples []Sample) map[string][]DataPoint {
	out := make(map[string][]DataPoint, 4)
	for _, s := range samples {
		out[s.Key] = append(out[s.Key], DataPoint{TS: s.TS, Value: s.Value})
	}
	return out
}

// GroupAggregated arranges bucketed aggregates into per-key series.
func GroupAggregated(points []AggregatedPoint) map[string][]DataPoint {
	out := make(map[string][]DataPoint, 4)
	for _, p := range points {
		out[p.Key] = append(out[p.Key], DataPoint{TS: p.TS, Value: p.Value})
	}
	return out
}

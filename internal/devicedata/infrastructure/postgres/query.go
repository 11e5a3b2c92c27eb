package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lekien2k2/viot/internal/devicedata/domain"
)

var aggregateExpr = map[devicedata.AggregationType]string{
	devicedata.AggregationAvg:   "avg((value #>> '{}')::double precision)",
	devicedata.AggregationMin:   "min((value #>> '{}')::double precision)",
	devicedata.AggregationMax:   "max((value #>> '{}')::double precision)",
	devicedata.AggregationSum:   "sum((value #>> '{}')::double precision)",
	devicedata.AggregationCount: "count(*)",
}

// QuerySeries returns raw samples within [start, end) for the query's
// keys, at most limit rows per key in the requested timestamp order.
func (r *DataRepository) QuerySeries(ctx context.Context, deviceID string, q *devicedata.TimeseriesQuery) ([]devicedata.Sample, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device data repo: nil db")
	}
	if deviceID == "" || q == nil || len(q.Keys) == 0 {
		return nil, errors.New("device data repo: invalid arguments")
	}

	dir := "ASC"
	if q.Order() == devicedata.SortDesc {
		dir = "DESC"
	}

	args := []any{deviceID, q.StartDate, q.EndDate}
	keyList := keyPlaceholders(len(args)+1, len(q.Keys))
	for _, key := range q.Keys {
		args = append(args, key)
	}
	args = append(args, q.Limit)

	query := fmt.Sprintf(`
SELECT key, ts, value FROM (
	SELECT key, ts, value,
		row_number() OVER (PARTITION BY key ORDER BY ts %s) AS rn
	FROM %s
	WHERE device_id = $1
		AND ts >= $2
		AND ts < $3
		AND key IN (%s)
) ranked
WHERE rn <= $%d
ORDER BY key ASC, ts %s`, dir, r.dataTable, keyList, len(args), dir)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make([]devicedata.Sample, 0, 64)
	for rows.Next() {
		var (
			key string
			ts  sql.NullTime
			raw []byte
		)
		if err := rows.Scan(&key, &ts, &raw); err != nil {
			return nil, err
		}
		if !ts.Valid {
			continue
		}
		var value devicedata.Value
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("device data repo: decode value for %s: %w", key, err)
		}
		samples = append(samples, devicedata.Sample{Key: key, TS: ts.Time.UTC(), Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// QueryAggregated reduces samples into buckets aligned to the query's
// start date. Numeric aggregations consider numeric JSON scalars only,
// count considers every sample.
func (r *DataRepository) QueryAggregated(ctx context.Context, deviceID string, q *devicedata.TimeseriesQuery) ([]devicedata.AggregatedPoint, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device data repo: nil db")
	}
	if deviceID == "" || q == nil || len(q.Keys) == 0 {
		return nil, errors.New("device data repo: invalid arguments")
	}
	if !q.Aggregate || q.Bucket <= 0 {
		return nil, errors.New("device data repo: not an aggregate query")
	}
	expr, ok := aggregateExpr[q.Agg]
	if !ok {
		return nil, errors.New("device data repo: unknown aggregation")
	}

	typeFilter := "AND jsonb_typeof(value) = 'number'"
	if q.Agg == devicedata.AggregationCount {
		typeFilter = ""
	}

	args := []any{deviceID, q.StartDate, q.EndDate, q.Bucket.Seconds()}
	keyList := keyPlaceholders(len(args)+1, len(q.Keys))
	for _, key := range q.Keys {
		args = append(args, key)
	}

	query := fmt.Sprintf(`
SELECT key,
	to_timestamp(extract(epoch from $2::timestamptz) + floor((extract(epoch from ts) - extract(epoch from $2::timestamptz)) / $4) * $4) AS bucket,
	%s AS agg_value
FROM %s
WHERE device_id = $1
	AND ts >= $2
	AND ts < $3
	AND key IN (%s)
	%s
GROUP BY key, bucket
ORDER BY key ASC, bucket ASC`, expr, r.dataTable, keyList, typeFilter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]devicedata.AggregatedPoint, 0, 64)
	for rows.Next() {
		var (
			key    string
			bucket sql.NullTime
		)
		if q.Agg == devicedata.AggregationCount {
			var count int64
			if err := rows.Scan(&key, &bucket, &count); err != nil {
				return nil, err
			}
			if !bucket.Valid {
				continue
			}
			points = append(points, devicedata.AggregatedPoint{Key: key, TS: bucket.Time.UTC(), Value: devicedata.IntValue(count)})
			continue
		}
		var value sql.NullFloat64
		if err := rows.Scan(&key, &bucket, &value); err != nil {
			return nil, err
		}
		if !bucket.Valid || !value.Valid {
			continue
		}
		points = append(points, devicedata.AggregatedPoint{Key: key, TS: bucket.Time.UTC(), Value: devicedata.FloatValue(value.Float64)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// QueryLatest returns the newest reading per requested key.
func (r *DataRepository) QueryLatest(ctx context.Context, deviceID string, keys []string) ([]devicedata.LatestDataPoint, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device data repo: nil db")
	}
	if deviceID == "" || len(keys) == 0 {
		return nil, errors.New("device data repo: invalid arguments")
	}

	args := []any{deviceID}
	keyList := keyPlaceholders(len(args)+1, len(keys))
	for _, key := range keys {
		args = append(args, key)
	}

	query := fmt.Sprintf(`
SELECT key, ts, value
FROM %s
WHERE device_id = $1
	AND key IN (%s)
ORDER BY key ASC`, r.latestTable, keyList)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]devicedata.LatestDataPoint, 0, len(keys))
	for rows.Next() {
		var (
			key string
			ts  sql.NullTime
			raw []byte
		)
		if err := rows.Scan(&key, &ts, &raw); err != nil {
			return nil, err
		}
		if !ts.Valid {
			continue
		}
		var value devicedata.Value
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("device data repo: decode value for %s: %w", key, err)
		}
		points = append(points, devicedata.LatestDataPoint{Key: key, TS: ts.Time.UTC(), Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

func keyPlaceholders(first, count int) string {
	parts := make([]string, count)
	for i := 0; i < count; i++ {
		parts[i] = fmt.Sprintf("$%d", first+i)
	}
	return strings.Join(parts, ", ")
}

package devicedata

import (
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultLimit caps per-key rows when the caller does not ask for
	// an explicit limit.
	DefaultLimit = 100
	// MaxLimit is the hard ceiling for per-key rows in raw queries.
	MaxLimit = 500
)

// QueryParams carries the raw wire values of a timeseries query before
// validation. Empty strings mean the parameter was absent.
type QueryParams struct {
	Keys         string
	StartDate    string
	EndDate      string
	IntervalType string
	Interval     string
	Agg          string
	Limit        string
	Timezone     string
	OrderBy      string
}

// TimeseriesQuery is a fully validated query. Construction is atomic:
// NewTimeseriesQuery either returns a query satisfying every invariant
// or an error, never a partial object.
type TimeseriesQuery struct {
	Keys         []string
	StartDate    time.Time
	EndDate      time.Time
	IntervalType IntervalType
	Interval     int
	Agg          AggregationType
	Limit        int
	Timezone     Timezone
	OrderBy      SortDirection

	// Aggregate holds whether the query asks for bucketed aggregation,
	// and Bucket the resolved bucket width. Both are derived once at
	// construction.
	Aggregate bool
	Bucket    time.Duration
}

// NewTimeseriesQuery validates raw wire values and builds the query.
// Field-level parsing runs first, then cross-field checks: start must
// precede end strictly, and interval, intervalType and agg come as all
// or nothing.
func NewTimeseriesQuery(p QueryParams) (*TimeseriesQuery, error) {
	q := &TimeseriesQuery{
		Limit:    DefaultLimit,
		Timezone: TimezoneUTC,
		OrderBy:  SortAsc,
	}

	rawKeys := strings.TrimSpace(p.Keys)
	if rawKeys == "" {
		return nil, &ValidationError{Field: "keys", Message: "at least one key is required"}
	}
	if !keyListPattern.MatchString(rawKeys) {
		return nil, &ParseError{Field: "keys", Message: "only letters, digits, underscore, hyphen and comma are allowed"}
	}
	keys, err := ParseKeySet(rawKeys)
	if err != nil {
		return nil, err
	}
	q.Keys = keys

	start, err := ParseNaiveTime(p.StartDate)
	if err != nil {
		return nil, &ParseError{Field: "startDate", Message: err.Error()}
	}
	q.StartDate = start

	end, err := ParseNaiveTime(p.EndDate)
	if err != nil {
		return nil, &ParseError{Field: "endDate", Message: err.Error()}
	}
	q.EndDate = end

	if p.IntervalType != "" {
		it, ok := ParseIntervalType(p.IntervalType)
		if !ok {
			return nil, &ParseError{Field: "intervalType", Message: "invalid interval type"}
		}
		q.IntervalType = it
	}

	if p.Agg != "" {
		agg, ok := ParseAggregationType(p.Agg)
		if !ok {
			return nil, &ParseError{Field: "agg", Message: "invalid aggregation type"}
		}
		q.Agg = agg
	}

	if p.Timezone != "" {
		tz, ok := ParseTimezone(p.Timezone)
		if !ok {
			return nil, &ParseError{Field: "timezone", Message: "unknown timezone"}
		}
		q.Timezone = tz
	}

	if p.OrderBy != "" {
		dir, ok := ParseSortDirection(p.OrderBy)
		if !ok {
			return nil, &ParseError{Field: "orderBy", Message: "must be asc or desc"}
		}
		q.OrderBy = dir
	}

	if p.Interval != "" {
		n, err := strconv.Atoi(p.Interval)
		if err != nil {
			return nil, &ParseError{Field: "interval", Message: "must be an integer"}
		}
		if n < 0 {
			return nil, &ParseError{Field: "interval", Message: "must not be negative"}
		}
		q.Interval = n
	}

	if p.Limit != "" {
		n, err := strconv.Atoi(p.Limit)
		if err != nil {
			return nil, &ParseError{Field: "limit", Message: "must be an integer"}
		}
		if n < 0 || n > MaxLimit {
			return nil, &ParseError{Field: "limit", Message: "must be between 0 and 500"}
		}
		q.Limit = n
	}

	if !q.StartDate.Before(q.EndDate) {
		return nil, &ValidationError{Field: "endDate", Message: "end date must be greater than start date"}
	}

	hasInterval := q.Interval > 0
	hasType := q.IntervalType != ""
	hasAgg := q.Agg != ""
	if hasInterval || hasType || hasAgg {
		var missing []string
		if !hasInterval {
			missing = append(missing, "interval")
		}
		if !hasType {
			missing = append(missing, "intervalType")
		}
		if !hasAgg {
			missing = append(missing, "agg")
		}
		if len(missing) > 0 {
			return nil, &ValidationError{
				Message: "when using aggregation, 'interval', 'intervalType' and 'agg' must be provided (missing " + strings.Join(missing, ", ") + ")",
			}
		}
		bucket, err := q.IntervalType.Duration(q.Interval)
		if err != nil {
			return nil, err
		}
		q.Aggregate = true
		q.Bucket = bucket
	}

	return q, nil
}

// Order reports the effective sort direction, defaulting to ascending
// for queries built without the constructor.
func (q *TimeseriesQuery) Order() SortDirection {
	if q.OrderBy == "" {
		return SortAsc
	}
	return q.OrderBy
}

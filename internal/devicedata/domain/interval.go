package devicedata

import "time"

// IntervalType is the unit an aggregation bucket width is counted in.
type IntervalType string

const (
	IntervalMillisecond IntervalType = "millisecond"
	IntervalHour        IntervalType = "hour"
	IntervalDay         IntervalType = "day"
	IntervalWeek        IntervalType = "week"
	IntervalMonth       IntervalType = "month"
	IntervalYear        IntervalType = "year"
)

// ParseIntervalType validates an interval type string.
func ParseIntervalType(value string) (IntervalType, bool) {
	switch IntervalType(value) {
	case IntervalMillisecond, IntervalHour, IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return IntervalType(value), true
	default:
		return "", false
	}
}

// Duration resolves the concrete bucket width for interval units of
// this type. Months and years are fixed 30 and 365 day approximations,
// not calendar-aware.
func (t IntervalType) Duration(interval int) (time.Duration, error) {
	if t == "" || interval == 0 {
		return 0, &ValidationError{Field: "interval", Message: "interval and interval type must be provided"}
	}
	if interval < 0 {
		return 0, &ValidationError{Field: "interval", Message: "must not be negative"}
	}

	var unit time.Duration
	switch t {
	case IntervalMillisecond:
		unit = time.Millisecond
	case IntervalHour:
		unit = time.Hour
	case IntervalDay:
		unit = 24 * time.Hour
	case IntervalWeek:
		unit = 7 * 24 * time.Hour
	case IntervalMonth:
		unit = 30 * 24 * time.Hour
	case IntervalYear:
		unit = 365 * 24 * time.Hour
	default:
		return 0, &ValidationError{Field: "intervalType", Message: "invalid interval type"}
	}

	width := time.Duration(interval) * unit
	if width/unit != time.Duration(interval) {
		return 0, &ValidationError{Field: "interval", Message: "interval too large"}
	}
	return width, nil
}

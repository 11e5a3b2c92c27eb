package devicedata

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// naiveTimeLayouts covers ISO-8601 inputs with optional fractional
// seconds and optional zone offset, in match order.
var naiveTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseNaiveTime parses an ISO-8601 datetime and discards any zone
// offset. The wall-clock reading is kept as-is and interpreted as UTC,
// never converted.
func ParseNaiveTime(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, errors.New("empty datetime")
	}
	for _, layout := range naiveTimeLayouts {
		parsed, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return stripZone(parsed), nil
	}
	return time.Time{}, fmt.Errorf("not an ISO-8601 datetime: %q", raw)
}

func stripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

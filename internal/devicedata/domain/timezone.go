package devicedata

import "time"

// Timezone is a display timezone for rendered results. It never
// affects stored timestamps.
type Timezone string

const (
	TimezoneUTC        Timezone = "UTC"
	TimezoneHoChiMinh  Timezone = "Asia/Ho_Chi_Minh"
	TimezoneBangkok    Timezone = "Asia/Bangkok"
	TimezoneSingapore  Timezone = "Asia/Singapore"
	TimezoneTokyo      Timezone = "Asia/Tokyo"
	TimezoneShanghai   Timezone = "Asia/Shanghai"
	TimezoneLondon     Timezone = "Europe/London"
	TimezoneBerlin     Timezone = "Europe/Berlin"
	TimezoneNewYork    Timezone = "America/New_York"
	TimezoneLosAngeles Timezone = "America/Los_Angeles"
	TimezoneSydney     Timezone = "Australia/Sydney"
)

// ParseTimezone validates a timezone string against the supported set.
func ParseTimezone(value string) (Timezone, bool) {
	switch Timezone(value) {
	case TimezoneUTC, TimezoneHoChiMinh, TimezoneBangkok, TimezoneSingapore,
		TimezoneTokyo, TimezoneShanghai, TimezoneLondon, TimezoneBerlin,
		TimezoneNewYork, TimezoneLosAngeles, TimezoneSydney:
		return Timezone(value), true
	default:
		return "", false
	}
}

// Location resolves the IANA location, falling back to UTC when zone
// data is unavailable at runtime.
func (tz Timezone) Location() *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(string(tz))
	if err != nil {
		return time.UTC
	}
	return loc
}

package devicedata

import (
	"regexp"
	"sort"
	"strings"
)

// keyListPattern restricts the raw keys parameter to letters, digits,
// underscore, hyphen and the comma separator.
var keyListPattern = regexp.MustCompile(`^[a-zA-Z0-9_,-]+$`)

// keyPattern is the shape of a single telemetry key.
var keyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidKey reports whether a single key is well formed.
func ValidKey(key string) bool {
	return keyPattern.MatchString(key)
}

// ParseKeySet splits a comma-separated key list into a deduplicated,
// sorted set. Whitespace around separators is tolerated and empty
// fragments are dropped.
func ParseKeySet(raw string) ([]string, error) {
	seen := make(map[string]struct{})
	keys := make([]string, 0, 4)
	for _, part := range strings.Split(raw, ",") {
		key := strings.TrimSpace(part)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, &ValidationError{Field: "keys", Message: "at least one key is required"}
	}
	sort.Strings(keys)
	return keys, nil
}

// CanonicalKeyList rebuilds the canonical comma-separated form of a
// parsed key set.
func CanonicalKeyList(keys []string) string {
	return strings.Join(keys, ",")
}

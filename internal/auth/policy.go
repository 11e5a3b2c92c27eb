package auth

import (
	"net/http"
	"strings"
)

// Policy determines required scopes by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth checks.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredScope resolves the scope guarding the request.
func (p Policy) RequiredScope(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	method := r.Method

	switch {
	case strings.HasPrefix(path, "/api/v1/devices/") && strings.Contains(path, "/data/"):
		if strings.Contains(path, "/export.") {
			return ScopeDeviceDataExport, true
		}
		return ScopeDeviceDataRead, true
	case strings.HasPrefix(path, "/api/v1/devices/"):
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			return ScopeDeviceRead, true
		}
		return ScopeDeviceManage, true
	}

	if strings.HasPrefix(path, "/api/") {
		if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
			return ScopeDeviceDataRead, true
		}
		return ScopeDeviceManage, true
	}
	return "", false
}

package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestAuthMiddleware_NoToken(t *testing.T) {
	secret := []byte("test-secret")
	policy := NewDefaultPolicy(nil, nil)
	mw := NewMiddleware(secret, policy)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev-1/data/timeseries", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_MissingExportScope(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "team-a", "Analyst", []string{ScopeDeviceDataRead})
	policy := NewDefaultPolicy(nil, nil)
	mw := NewMiddleware(secret, policy)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev-1/data/export.xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ScopeAllowed(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "team-a", "Analyst", []string{ScopeDeviceDataRead})
	policy := NewDefaultPolicy(nil, nil)
	mw := NewMiddleware(secret, policy)

	var gotTeam, gotRole string
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTeam = TeamIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev-1/data/timeseries", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotTeam != "team-a" || gotRole != "Analyst" {
		t.Fatalf("expected identity in context, got team=%q role=%q", gotTeam, gotRole)
	}
}

func TestAuthMiddleware_OwnerBypassesScopes(t *testing.T) {
	secret := []byte("test-secret")
	token := mustToken(t, secret, "team-a", TeamRoleOwner, nil)
	policy := NewDefaultPolicy(nil, nil)
	mw := NewMiddleware(secret, policy)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/dev-1/data/export.pdf", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ExemptPath(t *testing.T) {
	secret := []byte("test-secret")
	policy := NewDefaultPolicy([]string{"/healthz"}, []string{"/ingest/"})
	mw := NewMiddleware(secret, policy)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for exempt path, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/ingest/devices/dev-1/data", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for exempt prefix, got %d", resp.Code)
	}
}

func TestIngestAuthMiddleware_ValidSignature(t *testing.T) {
	secret := []byte("ingest-secret")
	mw := NewIngestAuthMiddleware(secret, time.Minute)

	var gotBody string
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))

	body := `{"key":"temp","value":21}`
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/ingest/devices/dev-1/data", strings.NewReader(body))
	req.Header.Set("X-Ingest-Timestamp", timestamp)
	req.Header.Set("X-Ingest-Signature", ComputeIngestSignature(secret, timestamp, []byte(body)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if gotBody != body {
		t.Fatalf("expected body to be replayed to handler, got %q", gotBody)
	}
}

func TestIngestAuthMiddleware_BadSignature(t *testing.T) {
	secret := []byte("ingest-secret")
	mw := NewIngestAuthMiddleware(secret, time.Minute)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/ingest/devices/dev-1/data", strings.NewReader("{}"))
	req.Header.Set("X-Ingest-Timestamp", timestamp)
	req.Header.Set("X-Ingest-Signature", "deadbeef")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestIngestAuthMiddleware_ExpiredTimestamp(t *testing.T) {
	secret := []byte("ingest-secret")
	mw := NewIngestAuthMiddleware(secret, time.Minute)
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	body := "{}"
	timestamp := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	req := httptest.NewRequest(http.MethodPost, "/ingest/devices/dev-1/data", strings.NewReader(body))
	req.Header.Set("X-Ingest-Timestamp", timestamp)
	req.Header.Set("X-Ingest-Signature", ComputeIngestSignature(secret, timestamp, []byte(body)))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func mustToken(t *testing.T, secret []byte, teamID, role string, scopes []string) string {
	t.Helper()
	claims := Claims{
		TeamID: teamID,
		Role:   role,
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

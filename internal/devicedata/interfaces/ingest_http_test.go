package interfaces

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dataapp "github.com/lekien2k2/viot/internal/devicedata/application"
	devicedata "github.com/lekien2k2/viot/internal/devicedata/domain"
	devices "github.com/lekien2k2/viot/internal/devices/domain"
)

type fakeDeviceRepo struct {
	device *devices.Device
	err    error
}

func (f *fakeDeviceRepo) Get(ctx context.Context, id string) (*devices.Device, error) {
	return f.device, f.err
}

func (f *fakeDeviceRepo) ListByTeam(ctx context.Context, teamID string) ([]devices.Device, error) {
	return nil, nil
}

func (f *fakeDeviceRepo) Save(ctx context.Context, device *devices.Device) error {
	return nil
}

func newIngestHandler(t *testing.T, repo *fakeDataRepo, deviceRepo *fakeDeviceRepo, cfg dataapp.Config) *IngestHandler {
	t.Helper()
	service, err := dataapp.NewService(repo, cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	var devRepo devices.DeviceRepository
	if deviceRepo != nil {
		devRepo = deviceRepo
	}
	handler, err := NewIngestHandler(service, devRepo, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	return handler
}

func TestIngestHandlerBatch(t *testing.T) {
	repo := &fakeDataRepo{}
	deviceRepo := &fakeDeviceRepo{device: &devices.Device{ID: "dev-1", TeamID: "team-a"}}
	handler := newIngestHandler(t, repo, deviceRepo, dataapp.Config{ExportMaxPoints: 100, IngestMaxBatch: 100})

	body := `{"data":[{"key":"temp","ts":1714557600000,"value":21},{"key":"soc","ts":1714557600,"value":87.5}]}`
	req := httptest.NewRequest(http.MethodPost, "/ingest/devices/dev-1/data", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["inserted"] != 2 {
		t.Fatalf("expected inserted 2, got %d", resp["inserted"])
	}
	if repo.insertedDevice != "dev-1" {
		t.Fatalf("expected device dev-1, got %q", repo.insertedDevice)
	}
	if len(repo.inserted) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(repo.inserted))
	}
	wantMilli := time.UnixMilli(1714557600000).UTC()
	if !repo.inserted[0].TS.Equal(wantMilli) {
		t.Fatalf("expected millisecond ts %v, got %v", wantMilli, repo.inserted[0].TS)
	}
	wantSec := time.Unix(1714557600, 0).UTC()
	if !repo.inserted[1].TS.Equal(wantSec) {
		t.Fatalf("expected second ts %v, got %v", wantSec, repo.inserted[1].TS)
	}
	if repo.inserted[0].Value.Kind != devicedata.KindInt || repo.inserted[0].Value.Int != 21 {
		t.Fatalf("expected int 21, got %+v", repo.inserted[0].Value)
	}
	if repo.inserted[1].Value.Kind != devicedata.KindFloat || repo.inserted[1].Value.Float != 87.5 {
		t.Fatalf("expected float 87.5, got %+v", repo.inserted[1].Value)
	}
}

func TestIngestHandlerSingleSample(t *testing.T) {
	repo := &fakeDataRepo{}
	deviceRepo := &fakeDeviceRepo{device: &devices.Device{ID: "dev-1", TeamID: "team-a"}}
	handler := newIngestHandler(t, repo, deviceRepo, dataapp.Config{ExportMaxPoints: 100, IngestMaxBatch: 100})

	body := `{"key":"temp","ts":1714557600,"value":3.5}`
	req := httptest.NewRequest(http.MethodPost, "/ingest/devices/dev-1/data", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.inserted) != 1 || repo.inserted[0].Key != "temp" {
		t.Fatalf("expected single temp sample, got %v", repo.inserted)
	}
}

func TestIngestHandlerDeviceToken(t *testing.T) {
	repo := &fakeDataRepo{}
	deviceRepo := &fakeDeviceRepo{device: &devices.Device{ID: "dev-1", TeamID: "team-a", Token: "secret-token"}}
	handler := newIngestHandler(t, repo, deviceRepo, dataapp.Config{ExportMaxPoints: 100, IngestMaxBatch: 100})

	body := `{"key":"temp","ts":1714557600,"value":1}`
	req := httptest.NewRequest(http.MethodPost, "/ingest/devices/dev-1/data", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/ingest/devices/dev-1/data", strings.NewReader(body))
	req.Header.Set("X-Device-Token", "secret-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestIngestHandlerUnknownDevice(t *testing.T) {
	handler := newIngestHandler(t, &fakeDataRepo{}, &fakeDeviceRepo{}, dataapp.Config{ExportMaxPoints: 100, IngestMaxBatch: 100})

	body := `{"key":"temp","ts":1714557600,"value":1}`
	req := httptest.NewRequest(http.MethodPost, "/ingest/devices/dev-9/data", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestIngestHandlerRejectsNullValue(t *testing.T) {
	handler := newIngestHandler(t, &fakeDataRepo{}, nil, dataapp.Config{ExportMaxPoints: 100, IngestMaxBatch: 100})

	body := `{"data":[{"key":"temp","ts":1714557600,"value":null}]}`
	req := httptest.NewRequest(http.MethodPost, "/ingest/devices/dev-1/data", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid payload") {
		t.Fatalf("expected invalid payload, got %q", rec.Body.String())
	}
}

func TestIngestHandlerRejectsOversizedBatch(t *testing.T) {
	handler := newIngestHandler(t, &fakeDataRepo{}, nil, dataapp.Config{ExportMaxPoints: 100, IngestMaxBatch: 2})

	body := `{"data":[{"key":"a","ts":1714557600,"value":1},{"key":"b","ts":1714557600,"value":2},{"key":"c","ts":1714557600,"value":3}]}`
	req := httptest.NewRequest(http.MethodPost, "/ingest/devices/dev-1/data", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "batch exceeds 2 samples") {
		t.Fatalf("expected batch cap message, got %q", rec.Body.String())
	}
}

func TestIngestHandlerRejectsMalformedKey(t *testing.T) {
	handler := newIngestHandler(t, &fakeDataRepo{}, nil, dataapp.Config{ExportMaxPoints: 100, IngestMaxBatch: 100})

	body := `{"data":[{"key":"te mp","ts":1714557600,"value":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/ingest/devices/dev-1/data", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "malformed key") {
		t.Fatalf("expected malformed key message, got %q", rec.Body.String())
	}
}

func TestIngestHandlerRejectsBadJSON(t *testing.T) {
	handler := newIngestHandler(t, &fakeDataRepo{}, nil, dataapp.Config{ExportMaxPoints: 100, IngestMaxBatch: 100})

	req := httptest.NewRequest(http.MethodPost, "/ingest/devices/dev-1/data", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid json") {
		t.Fatalf("expected invalid json, got %q", rec.Body.String())
	}
}

func TestIngestHandlerMethodNotAllowed(t *testing.T) {
	handler := newIngestHandler(t, &fakeDataRepo{}, nil, dataapp.Config{ExportMaxPoints: 100, IngestMaxBatch: 100})

	req := httptest.NewRequest(http.MethodGet, "/ingest/devices/dev-1/data", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

package interfaces

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	dataapp "github.com/lekien2k2/viot/internal/devicedata/application"
	devicedata "github.com/lekien2k2/viot/internal/devicedata/domain"
	devices "github.com/lekien2k2/viot/internal/devices/domain"
	"github.com/lekien2k2/viot/internal/observability/metrics"
)

// IngestHandler handles device data ingestion from connected devices.
type IngestHandler struct {
	service *dataapp.Service
	devices devices.DeviceRepository
	logger  *log.Logger
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(service *dataapp.Service, deviceRepo devices.DeviceRepository, logger *log.Logger) (*IngestHandler, error) {
	if service == nil {
		return nil, errors.New("device ingest: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestHandler{service: service, devices: deviceRepo, logger: logger}, nil
}

// ServeHTTP ingests device data batches on /ingest/devices/{deviceID}/data.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/ingest/devices/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "data" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	deviceID := parts[0]

	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveIngest(result, time.Since(start))
	}()

	if h.devices != nil {
		device, err := h.devices.Get(r.Context(), deviceID)
		if err != nil {
			result = metrics.ResultError
			metrics.IncIngestError("device")
			h.logger.Printf("device ingest: lookup error: %v", err)
			http.Error(w, "device lookup error", http.StatusInternalServerError)
			return
		}
		if device == nil {
			result = metrics.ResultError
			metrics.IncIngestError("device")
			http.Error(w, "unknown device", http.StatusNotFound)
			return
		}
		if device.Token != "" && r.Header.Get("X-Device-Token") != device.Token {
			result = metrics.ResultError
			metrics.IncIngestError("auth")
			http.Error(w, "invalid device token", http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		result = metrics.ResultError
		metrics.IncIngestError("payload")
		h.logger.Printf("device ingest: read body error: %v", err)
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req ingestRequest
	if err := json.Unmarshal(body, &req); err != nil {
		result = metrics.ResultError
		metrics.IncIngestError("payload")
		h.logger.Printf("device ingest: decode error: %v", err)
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	samples, err := req.toSamples()
	if err != nil {
		result = metrics.ResultError
		metrics.IncIngestError("payload")
		h.logger.Printf("device ingest: invalid payload: %v", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	inserted, err := h.service.Ingest(r.Context(), deviceID, samples)
	if err != nil {
		result = metrics.ResultError
		var perr *devicedata.ParseError
		var verr *devicedata.ValidationError
		if errors.As(err, &perr) || errors.As(err, &verr) {
			metrics.IncIngestError("contract")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		metrics.IncIngestError("storage")
		h.logger.Printf("device ingest: insert error: %v", err)
		http.Error(w, "insert error", http.StatusInternalServerError)
		return
	}
	metrics.AddIngestSamples(inserted)

	resp := map[string]any{"inserted": inserted}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type ingestRequest struct {
	Key   string          `json:"key"`
	TS    int64           `json:"ts"`
	Value json.RawMessage `json:"value"`
	Data  []ingestSample  `json:"data"`
}

type ingestSample struct {
	Key   string          `json:"key"`
	TS    int64           `json:"ts"`
	Value json.RawMessage `json:"value"`
}

func (r ingestRequest) toSamples() ([]devicedata.Sample, error) {
	data := r.Data
	if len(data) == 0 && r.Key != "" {
		data = []ingestSample{{Key: r.Key, TS: r.TS, Value: r.Value}}
	}
	if len(data) == 0 {
		return nil, errors.New("no data samples")
	}

	samples := make([]devicedata.Sample, 0, len(data))
	for _, s := range data {
		ts, err := parseTimestamp(s.TS)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", s.Key, err)
		}
		var value devicedata.Value
		if err := json.Unmarshal(s.Value, &value); err != nil {
			return nil, fmt.Errorf("key %q: %w", s.Key, err)
		}
		samples = append(samples, devicedata.Sample{Key: s.Key, TS: ts, Value: value})
	}
	return samples, nil
}

func parseTimestamp(value int64) (time.Time, error) {
	if value <= 0 {
		return time.Time{}, errors.New("invalid ts")
	}
	// Accept milliseconds or seconds.
	if value > 1_000_000_000_000 {
		return time.UnixMilli(value).UTC(), nil
	}
	return time.Unix(value, 0).UTC(), nil
}

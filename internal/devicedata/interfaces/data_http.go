package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lekien2k2/viot/internal/audit"
	"github.com/lekien2k2/viot/internal/auth"
	dataapp "github.com/lekien2k2/viot/internal/devicedata/application"
	devicedata "github.com/lekien2k2/viot/internal/devicedata/domain"
	"github.com/lekien2k2/viot/internal/observability/metrics"
)

// DataHandler handles device data query APIs.
type DataHandler struct {
	service       *dataapp.Service
	deviceChecker auth.DeviceTeamChecker
	auditLogger   audit.Logger
	cfg           dataapp.Config
}

// NewDataHandler constructs a handler.
func NewDataHandler(service *dataapp.Service, deviceChecker auth.DeviceTeamChecker, auditLogger audit.Logger, cfg dataapp.Config) (*DataHandler, error) {
	if service == nil {
		return nil, errors.New("data handler: nil service")
	}
	return &DataHandler{service: service, deviceChecker: deviceChecker, auditLogger: auditLogger, cfg: cfg}, nil
}

// ServeHTTP handles device data routes under /api/v1/devices.
func (h *DataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/devices/")
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] != "data" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	deviceID := parts[0]

	teamID := auth.TeamIDFromContext(r.Context())
	if teamID != "" && h.deviceChecker != nil {
		if err := h.deviceChecker.EnsureDeviceTeam(r.Context(), teamID, deviceID); err != nil {
			respondTeamError(w, err)
			return
		}
	}

	switch parts[2] {
	case "timeseries":
		h.handleTimeseries(w, r, deviceID)
	case "latest":
		h.handleLatest(w, r, deviceID)
	case "export.xlsx":
		h.handleExport(w, r, deviceID, "xlsx")
	case "export.pdf":
		h.handleExport(w, r, deviceID, "pdf")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *DataHandler) handleTimeseries(w http.ResponseWriter, r *http.Request, deviceID string) {
	start := time.Now()
	kind := metrics.QueryKindTimeseries
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveQuery(kind, result, time.Since(start))
	}()

	q, err := devicedata.NewTimeseriesQuery(queryParams(r))
	if err != nil {
		result = metrics.ResultError
		respondQueryError(w, err)
		return
	}
	if q.Aggregate {
		kind = metrics.QueryKindAggregated
	}

	series, err := h.service.Timeseries(r.Context(), deviceID, q)
	if err != nil {
		result = metrics.ResultError
		respondQueryError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(series)
}

func (h *DataHandler) handleLatest(w http.ResponseWriter, r *http.Request, deviceID string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveQuery(metrics.QueryKindLatest, result, time.Since(start))
	}()

	points, err := h.service.Latest(r.Context(), deviceID, r.URL.Query().Get("keys"))
	if err != nil {
		result = metrics.ResultError
		respondQueryError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(points)
}

func (h *DataHandler) handleExport(w http.ResponseWriter, r *http.Request, deviceID, format string) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveExport(format, result, time.Since(start))
	}()

	q, err := devicedata.NewTimeseriesQuery(queryParams(r))
	if err != nil {
		result = metrics.ResultError
		respondQueryError(w, err)
		return
	}

	series, err := h.service.Timeseries(r.Context(), deviceID, q)
	if err != nil {
		result = metrics.ResultError
		respondQueryError(w, err)
		return
	}

	total := 0
	for _, points := range series {
		total += len(points)
	}
	if h.cfg.ExportMaxPoints > 0 && total > h.cfg.ExportMaxPoints {
		result = metrics.ResultError
		http.Error(w, "result too large to export", http.StatusRequestEntityTooLarge)
		return
	}

	var data []byte
	switch format {
	case "xlsx":
		data, err = BuildDataXLSX(deviceID, q, series)
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	case "pdf":
		data, err = BuildDataPDF(deviceID, q, series)
		w.Header().Set("Content-Type", "application/pdf")
	}
	if err != nil {
		result = metrics.ResultError
		http.Error(w, "export "+format+" error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	h.logAudit(r, deviceID, "device_data.export", map[string]any{
		"format": format,
		"keys":   devicedata.CanonicalKeyList(q.Keys),
		"from":   q.StartDate.Format(time.RFC3339),
		"to":     q.EndDate.Format(time.RFC3339),
		"points": total,
	})
}

func (h *DataHandler) logAudit(r *http.Request, deviceID, action string, meta map[string]any) {
	if h.auditLogger == nil {
		return
	}
	teamID := auth.TeamIDFromContext(r.Context())
	if teamID == "" {
		return
	}
	payload, _ := json.Marshal(meta)
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		TeamID:       teamID,
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         auth.RoleFromContext(r.Context()),
		Action:       action,
		ResourceType: "device_data",
		ResourceID:   deviceID,
		DeviceID:     deviceID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}

func queryParams(r *http.Request) devicedata.QueryParams {
	query := r.URL.Query()
	return devicedata.QueryParams{
		Keys:         query.Get("keys"),
		StartDate:    query.Get("startDate"),
		EndDate:      query.Get("endDate"),
		IntervalType: query.Get("intervalType"),
		Interval:     query.Get("interval"),
		Agg:          query.Get("agg"),
		Limit:        query.Get("limit"),
		Timezone:     query.Get("timezone"),
		OrderBy:      query.Get("orderBy"),
	}
}

func respondQueryError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	var perr *devicedata.ParseError
	if errors.As(err, &perr) {
		metrics.IncQueryRejected(perr.Field)
		http.Error(w, perr.Error(), http.StatusBadRequest)
		return
	}
	var verr *devicedata.ValidationError
	if errors.As(err, &verr) {
		metrics.IncQueryRejected(verr.Field)
		http.Error(w, verr.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, "query error", http.StatusInternalServerError)
}

func respondTeamError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, auth.ErrTeamMismatch) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if errors.Is(err, auth.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, "team check failed", http.StatusInternalServerError)
}

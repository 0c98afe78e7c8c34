package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"weather-history/internal/analyzer"
	"weather-history/internal/services"
	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

// ReportHandler handles analyzer report endpoints.
type ReportHandler struct {
	reports *services.ReportService
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewReportHandler creates a report handler.
func NewReportHandler(reports *services.ReportService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger,
		metrics: metricsCollector,
	}
}

func parseKind(r *http.Request) (services.RecordKind, bool) {
	switch r.URL.Query().Get("kind") {
	case "", "current":
		return services.KindCurrent, true
	case "historical":
		return services.KindHistorical, true
	default:
		return services.KindCurrent, false
	}
}

// GetSummary handles GET /api/reports/summary
func (h *ReportHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/reports/summary").Observe(time.Since(startTime).Seconds())
	}()

	kind, ok := parseKind(r)
	if !ok {
		h.sendError(w, r, "invalid kind, expected current or historical", http.StatusBadRequest)
		return
	}

	summary, err := h.reports.Summary(ctx, kind)
	if err != nil {
		h.sendReportError(w, r, "/api/reports/summary", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/reports/summary", "GET", "200")
	h.sendJSON(w, summary, http.StatusOK)
}

// GetLocationReport handles GET /api/reports/location/{location}
func (h *ReportHandler) GetLocationReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/reports/location").Observe(time.Since(startTime).Seconds())
	}()

	kind, ok := parseKind(r)
	if !ok {
		h.sendError(w, r, "invalid kind, expected current or historical", http.StatusBadRequest)
		return
	}

	location := mux.Vars(r)["location"]

	report, err := h.reports.LocationReport(ctx, kind, location)
	if err != nil {
		h.sendReportError(w, r, "/api/reports/location", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/reports/location", "GET", "200")
	h.sendJSON(w, report, http.StatusOK)
}

// GetComparison handles GET /api/reports/compare
func (h *ReportHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/reports/compare").Observe(time.Since(startTime).Seconds())
	}()

	kind, ok := parseKind(r)
	if !ok {
		h.sendError(w, r, "invalid kind, expected current or historical", http.StatusBadRequest)
		return
	}

	locationA := r.URL.Query().Get("a")
	locationB := r.URL.Query().Get("b")
	if locationA == "" || locationB == "" {
		h.sendError(w, r, "both a and b location parameters are required", http.StatusBadRequest)
		return
	}

	comparison, err := h.reports.Compare(ctx, kind, locationA, locationB)
	if err != nil {
		h.sendReportError(w, r, "/api/reports/compare", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/reports/compare", "GET", "200")
	h.sendJSON(w, comparison, http.StatusOK)
}

// GetTrend handles GET /api/reports/trend/{location}
func (h *ReportHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/reports/trend").Observe(time.Since(startTime).Seconds())
	}()

	kind, ok := parseKind(r)
	if !ok {
		h.sendError(w, r, "invalid kind, expected current or historical", http.StatusBadRequest)
		return
	}

	location := mux.Vars(r)["location"]

	trend, err := h.reports.Trend(ctx, kind, location)
	if err != nil {
		h.sendReportError(w, r, "/api/reports/trend", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/reports/trend", "GET", "200")
	h.sendJSON(w, trend, http.StatusOK)
}

func (h *ReportHandler) sendReportError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	switch {
	case errors.Is(err, analyzer.ErrEmptyInput):
		h.metrics.RecordAPIError("empty_input", endpoint)
		h.sendError(w, r, "no records match the request", http.StatusNotFound)
	case errors.Is(err, analyzer.ErrInsufficientData):
		h.metrics.RecordAPIError("insufficient_data", endpoint)
		h.sendError(w, r, "at least two records are required", http.StatusUnprocessableEntity)
	default:
		h.logger.Error(r.Context(), "[API_REPORT_ERROR] Report generation failed", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, "failed to generate report", http.StatusInternalServerError)
	}
}

func (h *ReportHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *ReportHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all report API routes
func (h *ReportHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/reports/summary", h.GetSummary).Methods("GET")
	router.HandleFunc("/api/reports/location/{location}", h.GetLocationReport).Methods("GET")
	router.HandleFunc("/api/reports/compare", h.GetComparison).Methods("GET")
	router.HandleFunc("/api/reports/trend/{location}", h.GetTrend).Methods("GET")
}

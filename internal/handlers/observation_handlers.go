// Package handlers exposes the HTTP API. Handlers translate requests
// into service and storage calls and map the error taxonomy onto
// status codes: validation failures are 400, absent identifiers 404,
// upstream and storage failures 502 and 500.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"weather-history/internal/fetch"
	"weather-history/internal/filters"
	"weather-history/internal/models"
	"weather-history/internal/services"
	"weather-history/internal/storage"
	"weather-history/pkg/logging"
	"weather-history/pkg/metrics"
)

// ObservationHandler handles observation CRUD and ingestion endpoints.
type ObservationHandler struct {
	store     storage.Port
	ingestion *services.IngestionService
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
}

// NewObservationHandler creates an observation handler.
func NewObservationHandler(
	store storage.Port,
	ingestion *services.IngestionService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ObservationHandler {
	return &ObservationHandler{
		store:     store,
		ingestion: ingestion,
		logger:    logger,
		metrics:   metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ListResponse wraps a record list with its count.
type ListResponse struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

func parseSortKey(r *http.Request) (storage.SortKey, bool) {
	switch r.URL.Query().Get("sort") {
	case "":
		return storage.SortNone, true
	case "time":
		return storage.SortByTime, true
	case "temperature":
		return storage.SortByTemperature, true
	default:
		return storage.SortNone, false
	}
}

// GetCurrent handles GET /api/observations/current
func (h *ObservationHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/observations/current").Observe(time.Since(startTime).Seconds())
	}()

	sortKey, ok := parseSortKey(r)
	if !ok {
		h.sendError(w, r, "invalid sort, expected time or temperature", http.StatusBadRequest)
		return
	}

	preds := make([]filters.Current, 0, 2)

	if location := r.URL.Query().Get("location"); location != "" {
		preds = append(preds, filters.CurrentLocationEquals(location))
	}

	minTemp, err := parseFloatParam(r, "min_temp")
	if err != nil {
		h.sendError(w, r, "invalid min_temp, expected a number", http.StatusBadRequest)
		return
	}
	maxTemp, err := parseFloatParam(r, "max_temp")
	if err != nil {
		h.sendError(w, r, "invalid max_temp, expected a number", http.StatusBadRequest)
		return
	}
	if minTemp != nil || maxTemp != nil {
		rangePred, err := filters.TemperatureInRange(minTemp, maxTemp)
		if err != nil {
			h.sendError(w, r, err.Error(), http.StatusBadRequest)
			return
		}
		preds = append(preds, rangePred)
	}

	observations, err := h.store.FindCurrent(ctx, filters.CurrentAll(preds...), sortKey)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_CURRENT_ERROR] Failed to list current observations", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/observations/current")
		h.sendError(w, r, "failed to retrieve observations", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/observations/current", "GET", "200")
	h.sendJSON(w, ListResponse{Data: observations, Count: len(observations)}, http.StatusOK)
}

// GetHistorical handles GET /api/observations/historical
func (h *ObservationHandler) GetHistorical(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/observations/historical").Observe(time.Since(startTime).Seconds())
	}()

	sortKey, ok := parseSortKey(r)
	if !ok {
		h.sendError(w, r, "invalid sort, expected time or temperature", http.StatusBadRequest)
		return
	}

	preds := make([]filters.Historical, 0, 2)

	if location := r.URL.Query().Get("location"); location != "" {
		preds = append(preds, filters.HistoricalLocationEquals(location))
	}

	startDate, err := parseDateParam(r, "start_date")
	if err != nil {
		h.sendError(w, r, "invalid start_date format, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	endDate, err := parseDateParam(r, "end_date")
	if err != nil {
		h.sendError(w, r, "invalid end_date format, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if startDate != nil || endDate != nil {
		preds = append(preds, filters.DateInRange(startDate, endDate))
	}

	observations, err := h.store.FindHistorical(ctx, filters.HistoricalAll(preds...), sortKey)
	if err != nil {
		h.logger.Error(ctx, "[API_LIST_HISTORICAL_ERROR] Failed to list historical observations", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/observations/historical")
		h.sendError(w, r, "failed to retrieve observations", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/observations/historical", "GET", "200")
	h.sendJSON(w, ListResponse{Data: observations, Count: len(observations)}, http.StatusOK)
}

// IngestCurrent handles POST /api/ingest/current/{location}
func (h *ObservationHandler) IngestCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	location := mux.Vars(r)["location"]

	obs, err := h.ingestion.IngestCurrent(ctx, location)
	if err != nil {
		h.sendIngestError(w, r, "/api/ingest/current", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/ingest/current", "POST", "201")
	h.sendJSON(w, obs, http.StatusCreated)
}

// IngestHistorical handles POST /api/ingest/historical/{location}
func (h *ObservationHandler) IngestHistorical(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	location := mux.Vars(r)["location"]

	days := 7
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed < 1 || parsed > 92 {
			h.sendError(w, r, "invalid days, expected integer between 1 and 92", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	result, err := h.ingestion.IngestHistorical(ctx, location, days)
	if err != nil {
		h.sendIngestError(w, r, "/api/ingest/historical", err)
		return
	}

	h.metrics.RecordAPIRequest("/api/ingest/historical", "POST", "201")
	h.sendJSON(w, result, http.StatusCreated)
}

// UpdateCurrent handles PATCH /api/observations/current/{id}
func (h *ObservationHandler) UpdateCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	var patch models.CurrentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.sendError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	found, err := h.store.UpdateCurrent(ctx, id, patch)
	if err != nil {
		h.sendStorageError(w, r, "/api/observations/current", err)
		return
	}
	if !found {
		h.sendError(w, r, "observation not found", http.StatusNotFound)
		return
	}

	h.metrics.RecordAPIRequest("/api/observations/current", "PATCH", "204")
	w.WriteHeader(http.StatusNoContent)
}

// UpdateHistorical handles PATCH /api/observations/historical/{id}
func (h *ObservationHandler) UpdateHistorical(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	var patch models.HistoricalPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.sendError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}

	found, err := h.store.UpdateHistorical(ctx, id, patch)
	if err != nil {
		h.sendStorageError(w, r, "/api/observations/historical", err)
		return
	}
	if !found {
		h.sendError(w, r, "observation not found", http.StatusNotFound)
		return
	}

	h.metrics.RecordAPIRequest("/api/observations/historical", "PATCH", "204")
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCurrent handles DELETE /api/observations/current/{id}
func (h *ObservationHandler) DeleteCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	found, err := h.store.DeleteCurrent(ctx, id)
	if err != nil {
		h.sendStorageError(w, r, "/api/observations/current", err)
		return
	}
	if !found {
		h.sendError(w, r, "observation not found", http.StatusNotFound)
		return
	}

	h.metrics.RecordAPIRequest("/api/observations/current", "DELETE", "204")
	w.WriteHeader(http.StatusNoContent)
}

// DeleteHistorical handles DELETE /api/observations/historical/{id}
func (h *ObservationHandler) DeleteHistorical(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	found, err := h.store.DeleteHistorical(ctx, id)
	if err != nil {
		h.sendStorageError(w, r, "/api/observations/historical", err)
		return
	}
	if !found {
		h.sendError(w, r, "observation not found", http.StatusNotFound)
		return
	}

	h.metrics.RecordAPIRequest("/api/observations/historical", "DELETE", "204")
	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/observations
func (h *ObservationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.store.Clear(ctx); err != nil {
		h.sendStorageError(w, r, "/api/observations", err)
		return
	}

	h.logger.Info(ctx, "[API_CLEAR] All observations removed", logging.Fields{})
	h.metrics.RecordAPIRequest("/api/observations", "DELETE", "204")
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health
func (h *ObservationHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]interface{}{
		"status":            "healthy",
		"storage_connected": h.store.IsConnected(),
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{
		"storage_connected": h.store.IsConnected(),
	})
	h.sendJSON(w, status, http.StatusOK)
}

func (h *ObservationHandler) sendIngestError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var validationErr *models.ValidationError
	var notFound *fetch.LocationNotFoundError

	switch {
	case errors.As(err, &validationErr):
		h.metrics.RecordAPIError("validation_error", endpoint)
		h.sendError(w, r, validationErr.Message, http.StatusBadRequest)
	case errors.As(err, &notFound):
		h.metrics.RecordAPIError("location_not_found", endpoint)
		h.sendError(w, r, notFound.Error(), http.StatusNotFound)
	default:
		h.logger.Error(r.Context(), "[API_INGEST_ERROR] Ingestion failed", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.metrics.RecordAPIError("upstream_error", endpoint)
		h.sendError(w, r, "failed to ingest observations", http.StatusBadGateway)
	}
}

func (h *ObservationHandler) sendStorageError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		h.metrics.RecordAPIError("validation_error", endpoint)
		h.sendError(w, r, validationErr.Message, http.StatusBadRequest)
		return
	}

	h.logger.Error(r.Context(), "[API_STORAGE_ERROR] Storage operation failed", logging.Fields{
		"endpoint": endpoint,
	}, err)
	h.metrics.RecordAPIError("internal_error", endpoint)
	h.sendError(w, r, "storage operation failed", http.StatusInternalServerError)
}

// sendJSON sends a JSON response
func (h *ObservationHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *ObservationHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all observation API routes
func (h *ObservationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/observations/current", h.GetCurrent).Methods("GET")
	router.HandleFunc("/api/observations/current/{id}", h.UpdateCurrent).Methods("PATCH")
	router.HandleFunc("/api/observations/current/{id}", h.DeleteCurrent).Methods("DELETE")
	router.HandleFunc("/api/observations/historical", h.GetHistorical).Methods("GET")
	router.HandleFunc("/api/observations/historical/{id}", h.UpdateHistorical).Methods("PATCH")
	router.HandleFunc("/api/observations/historical/{id}", h.DeleteHistorical).Methods("DELETE")
	router.HandleFunc("/api/observations", h.Clear).Methods("DELETE")
	router.HandleFunc("/api/ingest/current/{location}", h.IngestCurrent).Methods("POST")
	router.HandleFunc("/api/ingest/historical/{location}", h.IngestHistorical).Methods("POST")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}

func parseFloatParam(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseDateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

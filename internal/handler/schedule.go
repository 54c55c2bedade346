package handler

import (
	"net/http"
	"strconv"

	"github.com/forgo/maestro/internal/model"
	"github.com/forgo/maestro/internal/service"
)

// ScheduleHandler handles service configuration and job listing
type ScheduleHandler struct {
	svc *service.ScheduleService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{svc: svc}
}

// configureServicesRequest is the service configuration payload
type configureServicesRequest struct {
	Schedules []service.ServiceSchedule `json:"schedules"`
}

// Configure handles POST /v1/tenants/{tenantId}/services - set per-service
// cadences and register their recurring jobs
func (h *ScheduleHandler) Configure(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromPath(w, r)
	if !ok {
		return
	}

	var req configureServicesRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	jobs, err := h.svc.ConfigureServices(r.Context(), tenantID, req.Schedules)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, jobs)
}

// ListJobs handles GET /v1/tenants/{tenantId}/jobs
func (h *ScheduleHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromPath(w, r)
	if !ok {
		return
	}

	jobs, err := h.svc.ListJobs(r.Context(), tenantID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	if jobs == nil {
		jobs = []*model.JobDefinition{}
	}

	WriteData(w, http.StatusOK, jobs)
}

// ListLogs handles GET /v1/tenants/{tenantId}/logs - the tenant's recent
// job execution history, newest first. ?limit caps the page size.
func (h *ScheduleHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromPath(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteError(w, model.NewBadRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.svc.ListLogs(r.Context(), tenantID, limit)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	if entries == nil {
		entries = []*model.ExecutionLogEntry{}
	}

	WriteData(w, http.StatusOK, entries)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/forgo/maestro/internal/model"
	"github.com/forgo/maestro/internal/service"
)

// TenantHandler handles tenant HTTP requests
type TenantHandler struct {
	svc *service.TenantService
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(svc *service.TenantService) *TenantHandler {
	return &TenantHandler{svc: svc}
}

// Create handles POST /v1/tenants - register a new tenant
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateTenantRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	tenant, err := h.svc.Create(r.Context(), req)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusCreated, tenant)
}

// Get handles GET /v1/tenants/{tenantId} - get tenant details
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromPath(w, r)
	if !ok {
		return
	}

	tenant, err := h.svc.Get(r.Context(), tenantID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, tenant)
}

// tenantIDFromPath parses the {tenantId} path segment, writing a 400 on
// malformed input.
func tenantIDFromPath(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("tenantId")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		WriteError(w, model.NewBadRequestError("tenant ID must be a positive integer"))
		return 0, false
	}
	return id, true
}

package handler

import (
	"io"
	"net/http"

	"github.com/forgo/maestro/internal/model"
	"github.com/forgo/maestro/internal/service"
)

// maxCredentialUpload bounds the client configuration document size
const maxCredentialUpload = 64 * 1024

// CredentialHandler handles credential upload and status requests
type CredentialHandler struct {
	svc *service.CredentialService
}

// NewCredentialHandler creates a new credential handler
func NewCredentialHandler(svc *service.CredentialService) *CredentialHandler {
	return &CredentialHandler{svc: svc}
}

// Upload handles POST /v1/tenants/{tenantId}/credentials - store a Google
// OAuth client configuration document
func (h *CredentialHandler) Upload(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromPath(w, r)
	if !ok {
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxCredentialUpload))
	if err != nil {
		WriteError(w, model.NewBadRequestError("unable to read request body"))
		return
	}
	if len(raw) == 0 {
		WriteError(w, model.NewBadRequestError("request body required"))
		return
	}

	if err := h.svc.Upload(r.Context(), tenantID, raw); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}

// linkedInCredentialRequest is the LinkedIn client registration input
type linkedInCredentialRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// SaveLinkedIn handles POST /v1/tenants/{tenantId}/credentials/linkedin
func (h *CredentialHandler) SaveLinkedIn(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromPath(w, r)
	if !ok {
		return
	}

	var req linkedInCredentialRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	if err := h.svc.SaveLinkedIn(r.Context(), tenantID, req.ClientID, req.ClientSecret); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}

// Status handles GET /v1/tenants/{tenantId}/credentials/status
func (h *CredentialHandler) Status(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromPath(w, r)
	if !ok {
		return
	}

	status, err := h.svc.Status(r.Context(), tenantID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, status)
}

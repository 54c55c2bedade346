package handler

import (
	"net/http"

	"github.com/forgo/maestro/internal/model"
	"github.com/forgo/maestro/internal/service"
)

// OAuthHandler drives the consent flow endpoints
type OAuthHandler struct {
	svc *service.HandshakeService
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(svc *service.HandshakeService) *OAuthHandler {
	return &OAuthHandler{svc: svc}
}

// providerFromPath parses the {provider} path segment
func providerFromPath(w http.ResponseWriter, r *http.Request) (model.Provider, bool) {
	provider := model.Provider(r.PathValue("provider"))
	if !provider.Valid() {
		WriteError(w, model.NewBadRequestError("provider must be google or linkedin"))
		return "", false
	}
	return provider, true
}

// Begin handles GET /v1/tenants/{tenantId}/auth/{provider} - start a
// consent flow and return the authorization URL
func (h *OAuthHandler) Begin(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromPath(w, r)
	if !ok {
		return
	}
	provider, ok := providerFromPath(w, r)
	if !ok {
		return
	}

	begin, err := h.svc.BeginAuth(r.Context(), tenantID, provider)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteData(w, http.StatusOK, begin)
}

// completeAuthRequest is the consent callback payload
type completeAuthRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

// Complete handles POST /v1/tenants/{tenantId}/auth/{provider}/complete -
// validate the state and exchange the code for tokens
func (h *OAuthHandler) Complete(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromPath(w, r)
	if !ok {
		return
	}
	provider, ok := providerFromPath(w, r)
	if !ok {
		return
	}

	var req completeAuthRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}
	if req.Code == "" || req.State == "" {
		WriteError(w, model.NewBadRequestError("code and state are required"))
		return
	}

	if err := h.svc.CompleteAuth(r.Context(), tenantID, provider, req.Code, req.State); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteNoContent(w)
}

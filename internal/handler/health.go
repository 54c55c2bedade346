package handler

import (
	"net/http"

	"github.com/forgo/maestro/internal/database"
)

// HealthHandler reports process and database liveness
type HealthHandler struct {
	db database.Database
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db database.Database) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status":   "ok",
		"database": "ok",
	}
	code := http.StatusOK

	if err := h.db.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["database"] = "unreachable"
		code = http.StatusServiceUnavailable
	}

	WriteJSON(w, code, status)
}

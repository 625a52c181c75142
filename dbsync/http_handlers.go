package dbsync

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// HTTPSyncHandlers provides the HTTP handlers for the compare/migrate API.
type HTTPSyncHandlers struct {
	service *SyncService
	logger  *slog.Logger
}

// NewHTTPSyncHandlers creates a new instance of sync handlers.
func NewHTTPSyncHandlers(service *SyncService, logger *slog.Logger) *HTTPSyncHandlers {
	return &HTTPSyncHandlers{
		service: service,
		logger:  logger,
	}
}

// HandleCompare serves GET /compare?from=&to=.
func (h *HTTPSyncHandlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeFailure(w, http.StatusMethodNotAllowed, "only GET method is allowed")
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	response, err := h.service.Compare(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, ErrInvalidHandle) {
			h.writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Compare failed", "from", from, "to", to, "error", err)
		h.writeFailure(w, http.StatusInternalServerError, "database comparison failed: "+err.Error())
		return
	}

	h.writeJSON(w, response)
}

// HandleMigrate serves GET /migrate?from=&to=.
func (h *HTTPSyncHandlers) HandleMigrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeFailure(w, http.StatusMethodNotAllowed, "only GET method is allowed")
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	response, err := h.service.Migrate(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, ErrInvalidHandle) {
			h.writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Migrate failed", "from", from, "to", to, "error", err)
		h.writeFailure(w, http.StatusInternalServerError, "data migration failed: "+err.Error())
		return
	}

	h.writeJSON(w, response)
}

func (h *HTTPSyncHandlers) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeFailure writes the {success:false, error} envelope shared by both
// endpoints.
func (h *HTTPSyncHandlers) writeFailure(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   message,
	})

	h.logger.Debug("HTTP error response", "status_code", statusCode, "message", message)
}

package filestore

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// HTTPFileHandlers provides the HTTP handlers for upload and download.
type HTTPFileHandlers struct {
	store  *Store
	logger *slog.Logger
}

// NewHTTPFileHandlers creates a new instance of file handlers.
func NewHTTPFileHandlers(store *Store, logger *slog.Logger) *HTTPFileHandlers {
	return &HTTPFileHandlers{
		store:  store,
		logger: logger,
	}
}

// UploadResponse is the response body of POST /files/upload.
type UploadResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// HandleUpload accepts a multipart upload in the "file" form field.
func (h *HTTPFileHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "only POST method is allowed")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing file field in multipart form")
		return
	}
	defer file.Close()

	if header.Size == 0 {
		h.writeError(w, http.StatusBadRequest, "uploaded file is empty")
		return
	}

	name, err := h.store.Save(file, header.Filename)
	if err != nil {
		h.logger.Error("Upload failed", "original_name", header.Filename, "error", err)
		h.writeError(w, http.StatusInternalServerError, "file upload failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(UploadResponse{Success: true, Filename: name})
}

// HandleDownload serves GET /files/download?name= by exact stored name.
func (h *HTTPFileHandlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, "only GET method is allowed")
		return
	}

	name := r.URL.Query().Get("name")
	f, contentType, err := h.store.Open(name)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidName):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotFound):
			h.writeError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("Download failed", "name", name, "error", err)
			h.writeError(w, http.StatusInternalServerError, "file download failed")
		}
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if _, err := io.Copy(w, f); err != nil {
		h.logger.Error("Failed to stream file", "name", name, "error", err)
	}
}

// writeError writes a standardized error response.
func (h *HTTPFileHandlers) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(UploadResponse{Success: false, Error: message})

	h.logger.Debug("HTTP error response", "status_code", statusCode, "message", message)
}

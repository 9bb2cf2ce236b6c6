package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"go.uber.org/zap"

	middleware "github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/api/middlewares"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/services"
)

const maxUploadBytes = 50 << 20 // 50 MiB

type IngestHandler struct {
	svc *services.IngestService
	log *zap.SugaredLogger
}

func NewIngestHandler(svc *services.IngestService, log *zap.SugaredLogger) *IngestHandler {
	return &IngestHandler{svc: svc, log: log}
}

// IngestFile handles multipart uploads on /api/ingest/file.
func (h *IngestHandler) IngestFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing 'file' field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = header.Filename
	}

	res, err := h.svc.IngestBytes(r.Context(), data, contentType, header.Filename, middleware.TenantID(r.Context()))
	if err != nil {
		h.log.Errorw("file ingest failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"filename": header.Filename,
		"chunks":   res.Chunks,
	})
}

type urlIngestRequest struct {
	URL string `json:"url"`
}

// IngestURL downloads a remote document and runs it through the same
// pipeline as an upload.
func (h *IngestHandler) IngestURL(w http.ResponseWriter, r *http.Request) {
	var req urlIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "missing 'url' field")
		return
	}

	data, contentType, err := download(r, req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Failed to download: %v", err))
		return
	}

	res, err := h.svc.IngestBytes(r.Context(), data, contentType, req.URL, middleware.TenantID(r.Context()))
	if err != nil {
		h.log.Errorw("url ingest failed", "url", req.URL, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"url":    req.URL,
		"chunks": res.Chunks,
	})
}

// DeleteSource removes every stored chunk ingested under a source name.
func (h *IngestHandler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		writeError(w, http.StatusBadRequest, "query parameter 'source' is required")
		return
	}

	deleted, err := h.svc.DeleteSource(r.Context(), source)
	if err != nil {
		h.log.Errorw("source delete failed", "source", source, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"source":  source,
		"deleted": deleted,
	})
}

func download(r *http.Request, url string) ([]byte, string, error) {
	client := &http.Client{Timeout: 2 * time.Minute}
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxUploadBytes))
	if err != nil {
		return nil, "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = path.Ext(url)
	}
	return data, contentType, nil
}

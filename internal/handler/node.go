package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"docvault/internal/domain"
	"docvault/internal/domain/models"
	"docvault/internal/httputil"
	"docvault/internal/service"
)

// NodeHandler handles file-tree HTTP requests
type NodeHandler struct {
	tree           *service.TreeService
	ingest         *service.IngestService
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(tree *service.TreeService, ingest *service.IngestService, logger *slog.Logger, maxUploadBytes int64) *NodeHandler {
	return &NodeHandler{
		tree:           tree,
		ingest:         ingest,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// HealthCheck reports liveness
// GET /health
func (h *NodeHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// List returns the children of a folder plus breadcrumbs
// GET /api/files?parent_id=...
// parent_id absent, "root", or "null" lists the forest root.
func (h *NodeHandler) List(w http.ResponseWriter, r *http.Request) {
	var parentID *string
	if v := r.URL.Query().Get("parent_id"); v != "" && v != "root" && v != "null" {
		parentID = &v
	}

	listing, err := h.tree.List(r.Context(), parentID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, listing)
}

// Upload stores a new file
// POST /api/files (multipart: file, parent_id?)
func (h *NodeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		httputil.RespondError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds max size (%d bytes)", h.maxUploadBytes))
		return
	}

	var parentID *string
	if v := r.FormValue("parent_id"); v != "" && v != "root" && v != "null" {
		parentID = &v
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	node, err := h.ingest.Upload(r.Context(), filepath.Base(header.Filename), parentID, file, mimeType)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

// CreateFolder creates a new folder
// POST /api/folders
func (h *NodeHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	node, err := h.ingest.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

// Download streams a file node's payload
// GET /api/files/{id}/download
func (h *NodeHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	node, content, err := h.ingest.Download(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			httputil.RespondError(w, http.StatusUnprocessableEntity, "cannot download a folder directly")
			return
		}
		handleError(w, err)
		return
	}
	defer content.Close()

	mimeType := "application/octet-stream"
	if node.MimeType != nil && *node.MimeType != "" {
		mimeType = *node.MimeType
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", node.Name))
	if node.Size > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", node.Size))
	}

	if _, err := io.Copy(w, content); err != nil {
		h.logger.Warn("download stream interrupted", "node_id", node.ID, "error", err)
	}
}

// Delete removes a node and, for folders, its whole subtree
// DELETE /api/files/{id}
func (h *NodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	if err := h.tree.Delete(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

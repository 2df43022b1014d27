package handler

import (
	"log/slog"
	"net/http"

	"filestorage/internal/domain/models"
	"filestorage/internal/domain/services"
	"filestorage/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	folderService services.FolderService
	logger        *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(folderService services.FolderService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		folderService: folderService,
		logger:        logger,
	}
}

// CreateFolder creates a folder and any missing ancestors
// POST /api/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req services.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	folder, err := h.folderService.CreateFolder(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// GetFolder returns a folder with one page of its children
// GET /api/folders/{path...}
//
// Query parameters:
//   - page: 1-based page number (default 1)
//   - size: page size
//   - order_by: name, type, size, created_at or modified_at
//   - desc: reverse the order when "true"
func (h *FolderHandler) GetFolder(w http.ResponseWriter, r *http.Request) {
	req := services.GetFolderRequest{
		Folder:  r.PathValue("path"),
		OrderBy: models.ItemOrder(r.URL.Query().Get("order_by")),
	}

	var err error
	if req.Page, err = httputil.QueryInt(r, "page"); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if req.PageSize, err = httputil.QueryInt(r, "size"); err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	if req.Desc, err = httputil.QueryBool(r, "desc"); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	folder, err := h.folderService.GetFolder(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"filestorage/internal/domain"
	"filestorage/internal/domain/services"
	"filestorage/internal/filetype"
	"filestorage/internal/httputil"
)

const (
	// multipartMemory is how much of an upload is buffered in memory before
	// the rest spills to a temporary file.
	multipartMemory = 32 << 20
	// multipartOverhead covers form fields and part headers.
	multipartOverhead = 1 << 20
)

// FileHandler handles file HTTP requests
type FileHandler struct {
	fileService services.FileService
	maxUpload   int64
	logger      *slog.Logger
}

// NewFileHandler creates a new file handler. maxUpload bounds the file part
// of an upload.
func NewFileHandler(fileService services.FileService, maxUpload int64, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		maxUpload:   maxUpload,
		logger:      logger,
	}
}

// CreateFile uploads a file
// POST /api/files
//
// Multipart fields:
//   - file: the payload; its part file name is the file name
//   - folder: optional target folder (default root)
func (h *FileHandler) CreateFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handleError(w, r, h.logger, domain.NewViolation(domain.KeyFileTooLarge, "file",
				fmt.Sprintf("file exceeds the limit of %d bytes", h.maxUpload), 0))
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		handleError(w, r, h.logger, domain.NewViolation(domain.KeyEmptyFile, "file", "file is required", 0))
		return
	}
	defer func() { _ = file.Close() }()

	declared, content, err := declaredType(header.Header.Get("Content-Type"), file)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	created, err := h.fileService.CreateFile(r.Context(), &services.CreateFileRequest{
		Content:  content,
		Size:     header.Size,
		FileName: header.Filename,
		MimeType: declared,
		Folder:   r.FormValue("folder"),
	})
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, created)
}

// declaredType returns the MIME type to check against the extension. When the
// client sent none, or only the generic octet-stream, the content is sniffed;
// a sniffed generic type is not checked.
func declaredType(partType string, content io.Reader) (string, io.Reader, error) {
	if partType != "" && partType != filetype.OctetStream {
		return partType, content, nil
	}

	sniffed, replay, err := filetype.Detect(content)
	if err != nil {
		return "", nil, err
	}
	switch sniffed {
	case filetype.OctetStream, "text/plain":
		return "", replay, nil
	}
	return sniffed, replay, nil
}

// GetFile returns file metadata
// GET /api/files/{path...}
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	file, err := h.fileService.GetFile(r.Context(), r.PathValue("path"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// DownloadFile streams the file payload as an attachment
// GET /api/download/{path...}
func (h *FileHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	dl, err := h.fileService.DownloadFile(r.Context(), r.PathValue("path"))
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}
	defer func() { _ = dl.Content.Close() }()

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, dl.Content); err != nil {
		// Headers are already sent; the client sees a truncated body.
		h.logger.Warn("download interrupted", "path", r.PathValue("path"), "error", err)
	}
}

// MoveFile moves or renames a file
// PATCH /api/files
func (h *FileHandler) MoveFile(w http.ResponseWriter, r *http.Request) {
	var req services.MoveFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	file, err := h.fileService.MoveFile(r.Context(), &req)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

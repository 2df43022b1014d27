package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filestorage/internal/domain"
	"filestorage/internal/domain/models"
	"filestorage/internal/domain/services"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type stubFolders struct {
	create  func(*services.CreateFolderRequest) (*models.CreatedFolder, error)
	get     func(*services.GetFolderRequest) (*models.FolderDTO, error)
	lastGet *services.GetFolderRequest
}

func (s *stubFolders) CreateFolder(_ context.Context, req *services.CreateFolderRequest) (*models.CreatedFolder, error) {
	return s.create(req)
}

func (s *stubFolders) GetFolder(_ context.Context, req *services.GetFolderRequest) (*models.FolderDTO, error) {
	s.lastGet = req
	return s.get(req)
}

type stubFiles struct {
	create   func(*services.CreateFileRequest, []byte) (*models.CreatedFile, error)
	get      func(string) (*models.FileDTO, error)
	download func(string) (*services.Download, error)
	move     func(*services.MoveFileRequest) (*models.UpdatedFile, error)
}

func (s *stubFiles) CreateFile(_ context.Context, req *services.CreateFileRequest) (*models.CreatedFile, error) {
	data, err := io.ReadAll(req.Content)
	if err != nil {
		return nil, err
	}
	return s.create(req, data)
}

func (s *stubFiles) GetFile(_ context.Context, name string) (*models.FileDTO, error) { return s.get(name) }

func (s *stubFiles) DownloadFile(_ context.Context, name string) (*services.Download, error) {
	return s.download(name)
}

func (s *stubFiles) MoveFile(_ context.Context, req *services.MoveFileRequest) (*models.UpdatedFile, error) {
	return s.move(req)
}

func newMux(folders services.FolderService, files services.FileService) *http.ServeMux {
	fh := NewFolderHandler(folders, discardLogger())
	fileH := NewFileHandler(files, 1<<20, discardLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/folders", fh.CreateFolder)
	mux.HandleFunc("GET /api/folders", fh.GetFolder)
	mux.HandleFunc("GET /api/folders/{path...}", fh.GetFolder)
	mux.HandleFunc("POST /api/files", fileH.CreateFile)
	mux.HandleFunc("PATCH /api/files", fileH.MoveFile)
	mux.HandleFunc("GET /api/files/{path...}", fileH.GetFile)
	mux.HandleFunc("GET /api/download/{path...}", fileH.DownloadFile)
	return mux
}

func serve(mux http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateFolder(t *testing.T) {
	folders := &stubFolders{create: func(req *services.CreateFolderRequest) (*models.CreatedFolder, error) {
		if req.Folder == "/dup" {
			return nil, domain.DuplicateFolderName("/dup")
		}
		return &models.CreatedFolder{ID: uuid.New(), Name: "B", Path: "/A/", FullName: "/A/B"}, nil
	}}
	mux := newMux(folders, &stubFiles{})

	rec := serve(mux, httptest.NewRequest(http.MethodPost, "/api/folders", strings.NewReader(`{"folder":"A/B"}`)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/A/B", decode(t, rec)["full_name"])

	rec = serve(mux, httptest.NewRequest(http.MethodPost, "/api/folders", strings.NewReader(`{"folder":"/dup"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.KeyDuplicateFolderName, decode(t, rec)["key"])

	rec = serve(mux, httptest.NewRequest(http.MethodPost, "/api/folders", strings.NewReader(`{"name":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetFolder_ParsesQuery(t *testing.T) {
	folders := &stubFolders{get: func(req *services.GetFolderRequest) (*models.FolderDTO, error) {
		return &models.FolderDTO{FullName: "/" + req.Folder}, nil
	}}
	mux := newMux(folders, &stubFiles{})

	rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/folders/docs/2024?page=2&size=10&order_by=size&desc=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.GetFolderRequest{Folder: "docs/2024", Page: 2, PageSize: 10, OrderBy: models.OrderBySize, Desc: true}, *folders.lastGet)

	rec = serve(mux, httptest.NewRequest(http.MethodGet, "/api/folders", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", folders.lastGet.Folder)

	rec = serve(mux, httptest.NewRequest(http.MethodGet, "/api/folders?page=two", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartUpload(t *testing.T, fileName, contentType string, content []byte, folder string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if folder != "" {
		require.NoError(t, mw.WriteField("folder", folder))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateFile(t *testing.T) {
	var got *services.CreateFileRequest
	var payload []byte
	files := &stubFiles{create: func(req *services.CreateFileRequest, data []byte) (*models.CreatedFile, error) {
		got, payload = req, data
		return &models.CreatedFile{ID: uuid.New(), FullName: "/docs/a.txt", Size: req.Size}, nil
	}}
	mux := newMux(&stubFolders{}, files)

	rec := serve(mux, multipartUpload(t, "a.txt", "text/plain", []byte("hello"), "docs"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "a.txt", got.FileName)
	assert.Equal(t, "docs", got.Folder)
	assert.Equal(t, "text/plain", got.MimeType)
	assert.Equal(t, int64(5), got.Size)
	assert.Equal(t, []byte("hello"), payload)
}

func TestCreateFile_SniffsGenericContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	var got *services.CreateFileRequest
	var payload []byte
	files := &stubFiles{create: func(req *services.CreateFileRequest, data []byte) (*models.CreatedFile, error) {
		got, payload = req, data
		return &models.CreatedFile{}, nil
	}}
	mux := newMux(&stubFolders{}, files)

	rec := serve(mux, multipartUpload(t, "pic.png", "application/octet-stream", png, ""))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "image/png", got.MimeType)
	assert.Equal(t, png, payload, "sniffed bytes are replayed")

	rec = serve(mux, multipartUpload(t, "blob.bin", "", []byte{0x00, 0x01, 0x02}, ""))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, got.MimeType)
}

func TestCreateFile_Errors(t *testing.T) {
	files := &stubFiles{create: func(*services.CreateFileRequest, []byte) (*models.CreatedFile, error) {
		return nil, &domain.CapacityError{Key: domain.KeyStorageOutOfSpace, Message: "full", Limit: 10}
	}}
	mux := newMux(&stubFolders{}, files)

	rec := serve(mux, multipartUpload(t, "a.txt", "text/plain", []byte("x"), ""))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, domain.KeyStorageOutOfSpace, decode(t, rec)["key"])

	rec = serve(mux, multipartUpload(t, "big.bin", "", make([]byte, 3<<20), ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.KeyFileTooLarge, decode(t, rec)["key"])

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("folder", "/docs"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/files", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = serve(mux, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, domain.KeyEmptyFile, decode(t, rec)["key"])
}

func TestGetFile(t *testing.T) {
	files := &stubFiles{get: func(name string) (*models.FileDTO, error) {
		if name != "docs/a.txt" {
			return nil, domain.FileNotFound("/" + name)
		}
		return &models.FileDTO{FullName: "/docs/a.txt", Size: 3}, nil
	}}
	mux := newMux(&stubFolders{}, files)

	rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/files/docs/a.txt", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/docs/a.txt", decode(t, rec)["full_name"])

	rec = serve(mux, httptest.NewRequest(http.MethodGet, "/api/files/docs/b.txt", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, domain.KeyFileNotFound, decode(t, rec)["key"])
}

func TestDownloadFile(t *testing.T) {
	files := &stubFiles{download: func(name string) (*services.Download, error) {
		return &services.Download{
			Content:     io.NopCloser(strings.NewReader("report body")),
			FileName:    "q1 report.pdf",
			ContentType: "application/pdf",
			Size:        11,
		}, nil
	}}
	mux := newMux(&stubFolders{}, files)

	rec := serve(mux, httptest.NewRequest(http.MethodGet, "/api/download/docs/q1%20report.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "11", rec.Header().Get("Content-Length"))
	assert.Equal(t, `attachment; filename="q1 report.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "report body", rec.Body.String())
}

func TestMoveFile(t *testing.T) {
	files := &stubFiles{move: func(req *services.MoveFileRequest) (*models.UpdatedFile, error) {
		if req.Source == req.Destination {
			return nil, domain.NewViolation(domain.KeySameSourceAndDestination, "destination", "same", 0)
		}
		return &models.UpdatedFile{FullName: req.Destination}, nil
	}}
	mux := newMux(&stubFolders{}, files)

	rec := serve(mux, httptest.NewRequest(http.MethodPatch, "/api/files", strings.NewReader(`{"source":"/a.txt","destination":"/b.txt"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/b.txt", decode(t, rec)["full_name"])

	rec = serve(mux, httptest.NewRequest(http.MethodPatch, "/api/files", strings.NewReader(`{"source":"/a.txt","destination":"/a.txt"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, domain.KeySameSourceAndDestination, body["key"])
	assert.Len(t, body["violations"], 1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(stubPinger{}, discardLogger()).HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	NewHealthHandler(stubPinger{err: io.ErrUnexpectedEOF}, discardLogger()).HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

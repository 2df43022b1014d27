package services

import (
	"context"
	"io"

	"filestorage/internal/domain/models"
)

// FileService handles file placement, lookup and relocation
type FileService interface {
	// CreateFile stores the payload and records the file in its folder
	CreateFile(ctx context.Context, req *CreateFileRequest) (*models.CreatedFile, error)

	// GetFile returns file metadata
	GetFile(ctx context.Context, fileName string) (*models.FileDTO, error)

	// DownloadFile opens the file payload. The caller closes Content.
	DownloadFile(ctx context.Context, fileName string) (*Download, error)

	// MoveFile moves and/or renames a file
	MoveFile(ctx context.Context, req *MoveFileRequest) (*models.UpdatedFile, error)
}

// CreateFileRequest represents an upload
type CreateFileRequest struct {
	Content  io.Reader
	Size     int64
	FileName string
	MimeType string
	Folder   string // optional prefix joined with FileName
}

// MoveFileRequest represents a move or rename
type MoveFileRequest struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Download is an open file payload
type Download struct {
	Content     io.ReadCloser
	FileName    string
	ContentType string
	Size        int64
}

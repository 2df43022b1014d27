package models

import (
	"time"

	"github.com/google/uuid"
)

// FileType is the coarse classification of a file's content.
type FileType string

const (
	FileTypeUnknown  FileType = "Unknown"
	FileTypeImage    FileType = "Image"
	FileTypeAudio    FileType = "Audio"
	FileTypeVideo    FileType = "Video"
	FileTypeDocument FileType = "Document"
	FileTypeArchive  FileType = "Archive"
)

// File is a persisted file row. The binary payload lives in the blob store
// under a key derived from ID.
type File struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Extension  string    `json:"extension" db:"extension"`
	Size       int64     `json:"size" db:"size"`
	Type       FileType  `json:"type" db:"type"`
	IsTrashed  bool      `json:"is_trashed" db:"is_trashed"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	ModifiedAt time.Time `json:"modified_at" db:"modified_at"`
	FolderID   uuid.UUID `json:"folder_id" db:"folder_id"`
	UserID     uuid.UUID `json:"-" db:"user_id"`
}

// CreatedFile is returned after a successful upload.
type CreatedFile struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Extension string    `json:"extension"`
	FullName  string    `json:"full_name"`
	Size      int64     `json:"size"`
	Type      FileType  `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdatedFile is returned after a move or rename.
type UpdatedFile struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Extension  string    `json:"extension"`
	FullName   string    `json:"full_name"`
	ModifiedAt time.Time `json:"modified_at"`
}

// FileDTO is the metadata view of a single file.
type FileDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Extension  string    `json:"extension"`
	FullName   string    `json:"full_name"`
	Size       int64     `json:"size"`
	Type       FileType  `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"filestorage/internal/domain/models"
)

// FileRepository defines data access operations for file metadata.
type FileRepository interface {
	// Exists reports whether a non-trashed file (name, extension) is in the folder
	Exists(ctx context.Context, name, extension string, folderID, userID uuid.UUID) (bool, error)

	// Get retrieves a non-trashed file by name within a folder
	Get(ctx context.Context, name, extension string, folderID, userID uuid.UUID) (*models.File, error)

	// Create inserts file metadata
	Create(ctx context.Context, file *models.File) error

	// Rename changes the base name of a file in place
	Rename(ctx context.Context, id uuid.UUID, name string, at time.Time) error

	// Move relocates a file to another folder, optionally renaming it
	Move(ctx context.Context, id, folderID uuid.UUID, name string, at time.Time) error
}

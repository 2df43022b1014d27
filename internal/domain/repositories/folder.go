package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"filestorage/internal/domain/models"
)

// FolderRepository defines data access operations for the folder tree.
// Folders are addressed by (path, name, userID); the root folder is addressed
// by the id stored on the user.
type FolderRepository interface {
	// FindPathID resolves the path row for (path, userID)
	FindPathID(ctx context.Context, path string, userID uuid.UUID) (uuid.UUID, bool, error)

	// FindID resolves a non-trashed folder id
	FindID(ctx context.Context, path, name string, userID uuid.UUID) (uuid.UUID, bool, error)

	// FindIDInPath resolves a non-trashed folder id by name within a path row
	FindIDInPath(ctx context.Context, name string, pathID, userID uuid.UUID) (uuid.UUID, bool, error)

	// GetByID retrieves a folder, joined with its path string
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Folder, error)

	// Create inserts a folder (and its path row when NewPath is set) and
	// touches the parent's modified_at
	Create(ctx context.Context, folder *models.NewFolder) error

	// CreateRoot inserts the root folder for a new user
	CreateRoot(ctx context.Context, id, userID uuid.UUID, at time.Time) error

	// GetSize returns the aggregate size of a folder
	GetSize(ctx context.Context, id uuid.UUID) (int64, error)

	// IncreaseSize adds delta to the folder and every ancestor. When upTo is
	// set the walk stops before that folder.
	IncreaseSize(ctx context.Context, id uuid.UUID, delta int64, upTo *uuid.UUID) error

	// DecreaseSize subtracts delta along the same chain as IncreaseSize
	DecreaseSize(ctx context.Context, id uuid.UUID, delta int64, upTo *uuid.UUID) error

	// Touch sets modified_at
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error

	// CountItems counts non-trashed child folders and files
	CountItems(ctx context.Context, id uuid.UUID) (int, error)

	// ListItems returns one page of non-trashed child folders and files
	ListItems(ctx context.Context, id uuid.UUID, opts models.ListOptions) ([]models.Item, error)
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Folder is a persisted folder row. Size is the aggregate byte count of every
// file transitively contained in the folder.
type Folder struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	PathID     uuid.UUID  `json:"-" db:"path_id"`
	Path       string     `json:"path" db:"path"` // joined from the paths table
	Size       int64      `json:"size" db:"size"`
	IsTrashed  bool       `json:"is_trashed" db:"is_trashed"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ModifiedAt time.Time  `json:"modified_at" db:"modified_at"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"` // NULL = user root
	UserID     uuid.UUID  `json:"-" db:"user_id"`
}

// FullName returns the folder's absolute location.
func (f *Folder) FullName() string {
	return f.Path + f.Name
}

// PathRow deduplicates the ancestor-path string shared by sibling folders.
type PathRow struct {
	ID     uuid.UUID `db:"id"`
	Path   string    `db:"path"`
	UserID uuid.UUID `db:"user_id"`
}

// NewFolder describes one folder insert. When NewPath is true the path row
// PathID does not exist yet and is inserted alongside the folder.
type NewFolder struct {
	ID        uuid.UUID
	Name      string
	Path      string
	PathID    uuid.UUID
	NewPath   bool
	ParentID  uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

// CreatedFolder is returned after a successful folder creation.
type CreatedFolder struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// FolderDTO describes a folder together with one page of its children.
type FolderDTO struct {
	Name       string               `json:"name"`
	Path       string               `json:"path"`
	FullName   string               `json:"full_name"`
	Size       int64                `json:"size"`
	CreatedAt  time.Time            `json:"created_at"`
	ModifiedAt time.Time            `json:"modified_at"`
	Items      *PaginatedList[Item] `json:"items"`
}

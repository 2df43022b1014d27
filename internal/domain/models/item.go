package models

import "time"

// ItemKind distinguishes folders from files in a listing.
type ItemKind string

const (
	ItemKindFolder ItemKind = "folder"
	ItemKindFile   ItemKind = "file"
)

// Item is one child entry of a folder listing.
type Item struct {
	Kind       ItemKind  `json:"kind"`
	Name       string    `json:"name"`
	Type       FileType  `json:"type,omitempty"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// ItemOrder is the column a listing is sorted by.
type ItemOrder string

const (
	OrderByName       ItemOrder = "name"
	OrderByType       ItemOrder = "type"
	OrderBySize       ItemOrder = "size"
	OrderByCreatedAt  ItemOrder = "created_at"
	OrderByModifiedAt ItemOrder = "modified_at"
)

// Valid reports whether o is a known ordering.
func (o ItemOrder) Valid() bool {
	switch o {
	case OrderByName, OrderByType, OrderBySize, OrderByCreatedAt, OrderByModifiedAt:
		return true
	}
	return false
}

// ListOptions selects one page of a listing.
type ListOptions struct {
	OrderBy ItemOrder
	Desc    bool
	Limit   int
	Offset  int
}

// PaginatedList is one page of a larger result set.
type PaginatedList[T any] struct {
	Items       []T  `json:"items"`
	PageNumber  int  `json:"page_number"`
	PageSize    int  `json:"page_size"`
	TotalPages  int  `json:"total_pages"`
	TotalCount  int  `json:"total_count"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// NewPaginatedList computes page metadata for items taken from a result set
// of totalCount entries.
func NewPaginatedList[T any](items []T, totalCount, pageNumber, pageSize int) *PaginatedList[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}
	return &PaginatedList[T]{
		Items:       items,
		PageNumber:  pageNumber,
		PageSize:    pageSize,
		TotalPages:  totalPages,
		TotalCount:  totalCount,
		HasPrevious: pageNumber > 1,
		HasNext:     pageNumber < totalPages,
	}
}

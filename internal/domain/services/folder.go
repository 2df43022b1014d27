package services

import (
	"context"

	"filestorage/internal/domain/models"
)

// FolderService handles folder business logic
type FolderService interface {
	// CreateFolder creates the folder at the requested location, creating any
	// missing ancestors in the same transaction
	CreateFolder(ctx context.Context, req *CreateFolderRequest) (*models.CreatedFolder, error)

	// GetFolder returns folder metadata and one page of its children
	GetFolder(ctx context.Context, req *GetFolderRequest) (*models.FolderDTO, error)
}

// CreateFolderRequest represents a folder creation request
type CreateFolderRequest struct {
	Folder string `json:"folder"`
}

// GetFolderRequest represents a folder listing request
type GetFolderRequest struct {
	Folder   string           `json:"folder"`
	Page     int              `json:"page"`
	PageSize int              `json:"size"`
	OrderBy  models.ItemOrder `json:"order_by"`
	Desc     bool             `json:"desc"`
}

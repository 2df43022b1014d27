// Package drive implements the folder tree and file placement use cases:
// folder provisioning, uploads, downloads, listings and moves.
package drive

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"

	"filestorage/internal/config"
	"filestorage/internal/domain"
	"filestorage/internal/domain/repositories"
	"filestorage/internal/domain/services"
	"filestorage/internal/pathinfo"
)

// Deps are the collaborators shared by the drive services.
type Deps struct {
	Folders    repositories.FolderRepository
	Files      repositories.FileRepository
	TxManager  repositories.TransactionManager
	Blobs      services.BlobStore
	Classifier services.FileClassifier
	Identity   services.IdentityProvider
	Clock      services.Clock
	Events     services.EventPublisher
	Limits     config.Limits
	Logger     *slog.Logger
}

// folderID resolves a folder location to its id. The root maps directly to
// the owner's root folder id.
func folderID(ctx context.Context, folders repositories.FolderRepository, ident services.Identity, loc pathinfo.FolderPath) (uuid.UUID, bool, error) {
	if loc.IsRoot() {
		return ident.RootFolderID, true, nil
	}
	return folders.FindID(ctx, loc.Path(), loc.Name(), ident.UserID)
}

// requireFolder is folderID with a FolderNotFound error for missing folders.
func requireFolder(ctx context.Context, folders repositories.FolderRepository, ident services.Identity, loc pathinfo.FolderPath) (uuid.UUID, error) {
	id, ok, err := folderID(ctx, folders, ident, loc)
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolve folder: %w", err)
	}
	if !ok {
		return uuid.Nil, domain.FolderNotFound(loc.FullName())
	}
	return id, nil
}

func checkPathLength(fullName string, limit int) error {
	if utf8.RuneCountInString(fullName) > limit {
		return domain.NewViolation(domain.KeyPathTooLong, "path",
			fmt.Sprintf("full path exceeds the limit of %d characters", limit), limit)
	}
	return nil
}

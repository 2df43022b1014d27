package drive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"filestorage/internal/domain"
	"filestorage/internal/domain/models"
	"filestorage/internal/domain/services"
	"filestorage/internal/events"
	"filestorage/internal/pathinfo"
)

// MoveFile renames a file in place or moves it to another folder. Only the
// base name and the folder can change; the extension is fixed.
//
// A move changes the sizes of the folders between each end and the lowest
// common ancestor of the two folders. The ancestor itself and everything
// above it still contain the file, so they are left alone. The payload is
// keyed by file id and never moves.
func (s *fileService) MoveFile(ctx context.Context, req *services.MoveFileRequest) (*models.UpdatedFile, error) {
	ident, err := s.identity.Identity(ctx)
	if err != nil {
		return nil, err
	}

	src, err := s.parse(req.Source)
	if err != nil {
		return nil, err
	}
	dst, err := s.parse(req.Destination)
	if err != nil {
		return nil, err
	}
	if src.Extension() != dst.Extension() {
		return nil, domain.NewViolation(domain.KeyInvalidFileExtension, "destination",
			"file extension cannot be changed", 0)
	}
	if err := checkPathLength(dst.FullName(), s.limits.FullPathMaxLength); err != nil {
		return nil, err
	}

	notMoving := src.Folder().Equal(dst.Folder())
	notRenaming := src.Name() == dst.Name()
	if notMoving && notRenaming {
		return nil, domain.NewViolation(domain.KeySameSourceAndDestination, "destination",
			"source and destination names are the same", 0)
	}

	srcFolderID, err := requireFolder(ctx, s.folders, ident, src.Folder())
	if err != nil {
		return nil, err
	}
	file, err := s.files.Get(ctx, src.Name(), src.Extension(), srcFolderID, ident.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.FileNotFound(src.FullName())
		}
		return nil, err
	}

	now := s.clock.Now()
	if notMoving {
		err = s.rename(ctx, ident, file, srcFolderID, dst, now)
	} else {
		err = s.move(ctx, ident, file, srcFolderID, src, dst, now)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("file moved",
		"user_id", ident.UserID,
		"file_id", file.ID,
		"source", src.FullName(),
		"destination", dst.FullName(),
	)
	events.Emit(ctx, s.events, s.logger, events.SubjectFileMoved, events.FileMoved{
		UserID:      ident.UserID,
		FileID:      file.ID,
		Source:      src.FullName(),
		Destination: dst.FullName(),
		OccurredAt:  now,
	})

	return &models.UpdatedFile{
		ID:         file.ID,
		Name:       dst.Name(),
		Extension:  dst.Extension(),
		FullName:   dst.FullName(),
		ModifiedAt: now,
	}, nil
}

// rename changes the base name only. Folder sizes do not depend on names.
func (s *fileService) rename(ctx context.Context, ident services.Identity, file *models.File, folderID uuid.UUID, dst pathinfo.FilePath, now time.Time) error {
	if err := s.ensureFree(ctx, ident, dst, folderID); err != nil {
		return err
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.files.Rename(ctx, file.ID, dst.Name(), now); err != nil {
			return err
		}
		return s.folders.Touch(ctx, folderID, now)
	})
	return s.txError(err, dst)
}

func (s *fileService) move(ctx context.Context, ident services.Identity, file *models.File, srcFolderID uuid.UUID, src, dst pathinfo.FilePath, now time.Time) error {
	dstFolderID, err := requireFolder(ctx, s.folders, ident, dst.Folder())
	if err != nil {
		return err
	}
	if err := s.ensureFree(ctx, ident, dst, dstFolderID); err != nil {
		return err
	}

	lcaID, err := s.ancestorID(ctx, ident, src.Folder(), dst.Folder(), srcFolderID, dstFolderID)
	if err != nil {
		return err
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.files.Move(ctx, file.ID, dstFolderID, dst.Name(), now); err != nil {
			return err
		}
		if err := s.folders.DecreaseSize(ctx, srcFolderID, file.Size, &lcaID); err != nil {
			return err
		}
		if err := s.folders.IncreaseSize(ctx, dstFolderID, file.Size, &lcaID); err != nil {
			return err
		}
		if err := s.folders.Touch(ctx, srcFolderID, now); err != nil {
			return err
		}
		return s.folders.Touch(ctx, dstFolderID, now)
	})
	return s.txError(err, dst)
}

// ancestorID resolves the id of the lowest common ancestor of two folders,
// reusing an already resolved id when the ancestor is one of them.
func (s *fileService) ancestorID(ctx context.Context, ident services.Identity, srcFolder, dstFolder pathinfo.FolderPath, srcID, dstID uuid.UUID) (uuid.UUID, error) {
	lca := srcFolder.LowestCommonAncestor(dstFolder)
	switch {
	case lca.Folder.IsRoot():
		return ident.RootFolderID, nil
	case lca.IsSelf:
		return srcID, nil
	case lca.IsOther:
		return dstID, nil
	}
	return requireFolder(ctx, s.folders, ident, lca.Folder)
}

// ensureFree reports DuplicateFileName when dst is already taken.
func (s *fileService) ensureFree(ctx context.Context, ident services.Identity, dst pathinfo.FilePath, folderID uuid.UUID) error {
	exists, err := s.files.Exists(ctx, dst.Name(), dst.Extension(), folderID, ident.UserID)
	if err != nil {
		return fmt.Errorf("check file exists: %w", err)
	}
	if exists {
		return domain.DuplicateFileName(dst.FullName())
	}
	return nil
}

func (s *fileService) txError(err error, dst pathinfo.FilePath) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrConflict):
		return domain.DuplicateFileName(dst.FullName())
	case errors.Is(err, domain.ErrNotFound):
		return domain.FileNotFound(dst.FullName())
	}
	return fmt.Errorf("move file to %s: %w", dst.FullName(), err)
}

package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"filestorage/internal/config"
	"filestorage/internal/domain"
	"filestorage/internal/domain/models"
	"filestorage/internal/domain/repositories"
	"filestorage/internal/domain/services"
	"filestorage/internal/events"
	"filestorage/internal/pathinfo"
	"filestorage/internal/storage"
)

type fileService struct {
	folders    repositories.FolderRepository
	files      repositories.FileRepository
	txManager  repositories.TransactionManager
	blobs      services.BlobStore
	classifier services.FileClassifier
	identity   services.IdentityProvider
	clock      services.Clock
	events     services.EventPublisher
	limits     config.Limits
	logger     *slog.Logger
}

// NewFileService creates a new file service
func NewFileService(deps Deps) services.FileService {
	return &fileService{
		folders:    deps.Folders,
		files:      deps.Files,
		txManager:  deps.TxManager,
		blobs:      deps.Blobs,
		classifier: deps.Classifier,
		identity:   deps.Identity,
		clock:      deps.Clock,
		events:     deps.Events,
		limits:     deps.Limits,
		logger:     deps.Logger,
	}
}

func (s *fileService) parse(raw string) (pathinfo.FilePath, error) {
	return pathinfo.NewFilePath(raw, s.limits.PathSegmentMaxLength, s.limits.FileNameMaxLength)
}

// CreateFile stores the payload under a content-addressed key and records the
// file. Folder sizes up to the root grow by the file size in the same
// transaction. When the transaction fails the stored payload is deleted.
func (s *fileService) CreateFile(ctx context.Context, req *services.CreateFileRequest) (*models.CreatedFile, error) {
	ident, err := s.identity.Identity(ctx)
	if err != nil {
		return nil, err
	}

	err = validation.Errors{
		"file": validation.Validate(req.Content, validation.NotNil.ErrorObject(
			domain.Rule(domain.KeyEmptyFile, "file is empty"))),
		"size": validation.Validate(req.Size,
			validation.Required.ErrorObject(domain.Rule(domain.KeyEmptyFile, "file is empty")),
			validation.Min(int64(1)).ErrorObject(domain.Rule(domain.KeyEmptyFile, "file is empty")),
			validation.Max(s.limits.FileSizeLimit).ErrorObject(domain.Rule(domain.KeyFileTooLarge,
				fmt.Sprintf("file exceeds the limit of %d bytes", s.limits.FileSizeLimit)))),
	}.Filter()
	if err != nil {
		return nil, domain.FromValidation(err)
	}

	raw := req.FileName
	if strings.TrimSpace(req.Folder) != "" && raw != "" {
		raw = req.Folder + pathinfo.Separator + raw
	}
	target, err := s.parse(raw)
	if err != nil {
		return nil, err
	}
	if err := checkPathLength(target.FullName(), s.limits.FullPathMaxLength); err != nil {
		return nil, err
	}

	class, err := s.classifier.Classify(target.Extension(), req.MimeType)
	if err != nil {
		return nil, err
	}

	folderID, err := requireFolder(ctx, s.folders, ident, target.Folder())
	if err != nil {
		return nil, err
	}

	used, err := s.folders.GetSize(ctx, ident.RootFolderID)
	if err != nil {
		return nil, fmt.Errorf("get used storage: %w", err)
	}
	if used+req.Size > s.limits.StorageSizeLimitPerUser {
		return nil, &domain.CapacityError{
			Key:     domain.KeyStorageOutOfSpace,
			Message: fmt.Sprintf("not enough storage space: %d of %d bytes used", used, s.limits.StorageSizeLimitPerUser),
			Limit:   s.limits.StorageSizeLimitPerUser,
		}
	}

	exists, err := s.files.Exists(ctx, target.Name(), target.Extension(), folderID, ident.UserID)
	if err != nil {
		return nil, fmt.Errorf("check file exists: %w", err)
	}
	if exists {
		return nil, domain.DuplicateFileName(target.FullName())
	}

	now := s.clock.Now()
	file := &models.File{
		ID:         uuid.New(),
		Name:       target.Name(),
		Extension:  target.Extension(),
		Size:       req.Size,
		Type:       class.Type,
		CreatedAt:  now,
		ModifiedAt: now,
		FolderID:   folderID,
		UserID:     ident.UserID,
	}
	key := storage.ObjectKey(ident.RootFolderID, file.ID)

	if err := s.blobs.Put(ctx, key, req.Content, req.Size, class.MimeType); err != nil {
		return nil, fmt.Errorf("store file %s: %w", target.FullName(), err)
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.files.Create(ctx, file); err != nil {
			return err
		}
		return s.folders.IncreaseSize(ctx, folderID, file.Size, nil)
	})
	if err != nil {
		s.discardBlob(ctx, key, file.ID)
		switch {
		case errors.Is(err, domain.ErrConflict):
			return nil, domain.DuplicateFileName(target.FullName())
		case errors.Is(err, domain.ErrNotFound):
			return nil, domain.FolderNotFound(target.Folder().FullName())
		}
		return nil, fmt.Errorf("create file %s: %w", target.FullName(), err)
	}

	s.logger.Info("file created",
		"user_id", ident.UserID,
		"file_id", file.ID,
		"full_name", target.FullName(),
		"size", file.Size,
	)
	events.Emit(ctx, s.events, s.logger, events.SubjectFileCreated, events.FileCreated{
		UserID:     ident.UserID,
		FileID:     file.ID,
		FolderID:   folderID,
		FullName:   target.FullName(),
		Size:       file.Size,
		OccurredAt: now,
	})

	return &models.CreatedFile{
		ID:        file.ID,
		Name:      file.Name,
		Extension: file.Extension,
		FullName:  target.FullName(),
		Size:      file.Size,
		Type:      file.Type,
		CreatedAt: now,
	}, nil
}

// discardBlob removes a payload whose metadata was never committed. It runs
// even when ctx is already cancelled.
func (s *fileService) discardBlob(ctx context.Context, key string, fileID uuid.UUID) {
	if err := s.blobs.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Error("failed to delete orphaned blob", "file_id", fileID, "key", key, "error", err)
	}
}

// lookup resolves a raw file name to its stored row.
func (s *fileService) lookup(ctx context.Context, ident services.Identity, raw string) (pathinfo.FilePath, *models.File, error) {
	target, err := s.parse(raw)
	if err != nil {
		return pathinfo.FilePath{}, nil, err
	}

	folderID, err := requireFolder(ctx, s.folders, ident, target.Folder())
	if err != nil {
		return pathinfo.FilePath{}, nil, err
	}

	file, err := s.files.Get(ctx, target.Name(), target.Extension(), folderID, ident.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return pathinfo.FilePath{}, nil, domain.FileNotFound(target.FullName())
		}
		return pathinfo.FilePath{}, nil, err
	}

	return target, file, nil
}

// GetFile returns file metadata
func (s *fileService) GetFile(ctx context.Context, fileName string) (*models.FileDTO, error) {
	ident, err := s.identity.Identity(ctx)
	if err != nil {
		return nil, err
	}

	target, file, err := s.lookup(ctx, ident, fileName)
	if err != nil {
		return nil, err
	}

	return &models.FileDTO{
		ID:         file.ID,
		Name:       file.Name,
		Extension:  file.Extension,
		FullName:   target.FullName(),
		Size:       file.Size,
		Type:       file.Type,
		CreatedAt:  file.CreatedAt,
		ModifiedAt: file.ModifiedAt,
	}, nil
}

// DownloadFile opens the payload of a file
func (s *fileService) DownloadFile(ctx context.Context, fileName string) (*services.Download, error) {
	ident, err := s.identity.Identity(ctx)
	if err != nil {
		return nil, err
	}

	target, file, err := s.lookup(ctx, ident, fileName)
	if err != nil {
		return nil, err
	}

	key := storage.ObjectKey(ident.RootFolderID, file.ID)
	content, err := s.blobs.Open(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("file payload missing", "file_id", file.ID, "key", key)
			return nil, domain.FileNotFound(target.FullName())
		}
		return nil, fmt.Errorf("open file %s: %w", target.FullName(), err)
	}

	contentType := s.classifier.MimeType(file.Extension)
	if file.Type == models.FileTypeUnknown {
		contentType = "application/octet-stream"
	}

	return &services.Download{
		Content:     content,
		FileName:    target.NameWithExtension(),
		ContentType: contentType,
		Size:        file.Size,
	}, nil
}

package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"filestorage/internal/config"
	"filestorage/internal/domain"
	"filestorage/internal/domain/models"
	"filestorage/internal/domain/repositories"
	"filestorage/internal/domain/services"
	"filestorage/internal/events"
	"filestorage/internal/pathinfo"
)

const defaultPageSize = 20

type folderService struct {
	folders   repositories.FolderRepository
	txManager repositories.TransactionManager
	identity  services.IdentityProvider
	clock     services.Clock
	events    services.EventPublisher
	limits    config.Limits
	logger    *slog.Logger
}

// NewFolderService creates a new folder service
func NewFolderService(deps Deps) services.FolderService {
	return &folderService{
		folders:   deps.Folders,
		txManager: deps.TxManager,
		identity:  deps.Identity,
		clock:     deps.Clock,
		events:    deps.Events,
		limits:    deps.Limits,
		logger:    deps.Logger,
	}
}

// CreateFolder creates the target folder and every missing ancestor in one
// transaction. Existing ancestors are reused; an existing target is a
// DuplicateFolderName conflict.
func (s *folderService) CreateFolder(ctx context.Context, req *services.CreateFolderRequest) (*models.CreatedFolder, error) {
	ident, err := s.identity.Identity(ctx)
	if err != nil {
		return nil, err
	}

	err = validation.Errors{
		"folder": validation.Validate(strings.TrimSpace(req.Folder), validation.Required.ErrorObject(
			domain.Rule(domain.KeyEmptyFolderName, "folder name is empty"))),
	}.Filter()
	if err != nil {
		return nil, domain.FromValidation(err)
	}

	target, err := pathinfo.NewFolderPath(req.Folder, s.limits.PathSegmentMaxLength)
	if err != nil {
		return nil, err
	}
	if target.IsRoot() {
		return nil, domain.DuplicateFolderName(target.FullName())
	}
	if err := checkPathLength(target.FullName(), s.limits.FullPathMaxLength); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	plan, parentID, err := s.plan(ctx, ident, target, now)
	if err != nil {
		return nil, err
	}

	// plan[0] is the target; ancestors follow, deepest first.
	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		for i := len(plan) - 1; i >= 0; i-- {
			plan[i].ParentID = parentID
			if err := s.folders.Create(ctx, plan[i]); err != nil {
				return err
			}
			parentID = plan[i].ID
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.DuplicateFolderName(target.FullName())
		}
		return nil, fmt.Errorf("create folder %s: %w", target.FullName(), err)
	}

	created := make([]uuid.UUID, 0, len(plan))
	for i := len(plan) - 1; i >= 0; i-- {
		created = append(created, plan[i].ID)
	}

	s.logger.Info("folder created",
		"user_id", ident.UserID,
		"full_name", target.FullName(),
		"created", len(plan),
	)
	events.Emit(ctx, s.events, s.logger, events.SubjectFolderCreated, events.FolderCreated{
		UserID:     ident.UserID,
		FolderIDs:  created,
		FullName:   target.FullName(),
		OccurredAt: now,
	})

	return &models.CreatedFolder{
		ID:        plan[0].ID,
		Name:      target.Name(),
		Path:      target.Path(),
		FullName:  target.FullName(),
		CreatedAt: now,
	}, nil
}

// plan works out which folders must be inserted for target. It returns them
// deepest first, with the id of the existing folder the chain hangs from.
//
// A folder can only exist when the path row for its ancestor prefix exists,
// so each level costs one path lookup and, when that row exists, one folder
// lookup. The walk stops at the first existing ancestor or at the root.
func (s *folderService) plan(ctx context.Context, ident services.Identity, target pathinfo.FolderPath, now time.Time) ([]*models.NewFolder, uuid.UUID, error) {
	pathID, pathFound, err := s.folders.FindPathID(ctx, target.Path(), ident.UserID)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("find path: %w", err)
	}

	if pathFound {
		_, exists, err := s.folders.FindIDInPath(ctx, target.Name(), pathID, ident.UserID)
		if err != nil {
			return nil, uuid.Nil, fmt.Errorf("find folder: %w", err)
		}
		if exists {
			return nil, uuid.Nil, domain.DuplicateFolderName(target.FullName())
		}

		// Fast path: the ancestor prefix is known, so the parent usually exists.
		parent, _ := target.Parent()
		parentID, ok, err := folderID(ctx, s.folders, ident, parent)
		if err != nil {
			return nil, uuid.Nil, fmt.Errorf("resolve parent: %w", err)
		}
		if ok {
			return []*models.NewFolder{newFolder(ident, target, pathID, false, now)}, parentID, nil
		}
	}

	plan := []*models.NewFolder{newFolder(ident, target, pathID, !pathFound, now)}
	cur, _ := target.Parent()
	for !cur.IsRoot() {
		pathID, pathFound, err := s.folders.FindPathID(ctx, cur.Path(), ident.UserID)
		if err != nil {
			return nil, uuid.Nil, fmt.Errorf("find path: %w", err)
		}
		if pathFound {
			id, exists, err := s.folders.FindIDInPath(ctx, cur.Name(), pathID, ident.UserID)
			if err != nil {
				return nil, uuid.Nil, fmt.Errorf("find folder: %w", err)
			}
			if exists {
				return plan, id, nil
			}
		}
		plan = append(plan, newFolder(ident, cur, pathID, !pathFound, now))
		cur, _ = cur.Parent()
	}

	return plan, ident.RootFolderID, nil
}

func newFolder(ident services.Identity, loc pathinfo.FolderPath, pathID uuid.UUID, newPath bool, now time.Time) *models.NewFolder {
	if newPath {
		pathID = uuid.New()
	}
	return &models.NewFolder{
		ID:        uuid.New(),
		Name:      loc.Name(),
		Path:      loc.Path(),
		PathID:    pathID,
		NewPath:   newPath,
		UserID:    ident.UserID,
		CreatedAt: now,
	}
}

// GetFolder returns folder metadata and one page of its children
func (s *folderService) GetFolder(ctx context.Context, req *services.GetFolderRequest) (*models.FolderDTO, error) {
	ident, err := s.identity.Identity(ctx)
	if err != nil {
		return nil, err
	}

	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = min(defaultPageSize, s.limits.MaxPageSize)
	}
	if req.OrderBy == "" {
		req.OrderBy = models.OrderByName
	}

	sizeErr := domain.Rule("InvalidPageSize", fmt.Sprintf("size must be between 1 and %d", s.limits.MaxPageSize))
	err = validation.ValidateStruct(req,
		validation.Field(&req.Page, validation.Min(1).ErrorObject(
			domain.Rule("InvalidPage", "page must be at least 1"))),
		validation.Field(&req.PageSize,
			validation.Min(1).ErrorObject(sizeErr),
			validation.Max(s.limits.MaxPageSize).ErrorObject(sizeErr)),
		validation.Field(&req.OrderBy, validation.By(func(any) error {
			if !req.OrderBy.Valid() {
				return domain.Rule("InvalidOrder", "order_by must be one of name, type, size, created_at, modified_at")
			}
			return nil
		})),
	)
	if err != nil {
		return nil, domain.FromValidation(err)
	}

	loc, err := pathinfo.NewFolderPath(req.Folder, s.limits.PathSegmentMaxLength)
	if err != nil {
		return nil, err
	}
	id, err := requireFolder(ctx, s.folders, ident, loc)
	if err != nil {
		return nil, err
	}

	folder, err := s.folders.GetByID(ctx, id, ident.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.FolderNotFound(loc.FullName())
		}
		return nil, err
	}

	total, err := s.folders.CountItems(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := s.folders.ListItems(ctx, id, models.ListOptions{
		OrderBy: req.OrderBy,
		Desc:    req.Desc,
		Limit:   req.PageSize,
		Offset:  (req.Page - 1) * req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	return &models.FolderDTO{
		Name:       folder.Name,
		Path:       folder.Path,
		FullName:   loc.FullName(),
		Size:       folder.Size,
		CreatedAt:  folder.CreatedAt,
		ModifiedAt: folder.ModifiedAt,
		Items:      models.NewPaginatedList(items, total, req.Page, req.PageSize),
	}, nil
}

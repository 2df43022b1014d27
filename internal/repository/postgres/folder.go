package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"filestorage/internal/domain"
	"filestorage/internal/domain/models"
	"filestorage/internal/domain/repositories"
)

// PostgresFolderRepository implements the FolderRepository interface
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFolderRepository creates a new folder repository
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// FindPathID resolves the path row for (path, userID)
func (r *PostgresFolderRepository) FindPathID(ctx context.Context, path string, userID uuid.UUID) (uuid.UUID, bool, error) {
	query := fmt.Sprintf(`
		SELECT id FROM %s
		WHERE path = $1 AND user_id = $2
	`, r.tables.Paths)

	var id uuid.UUID
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, path, userID).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("find path id: %w", err)
	}

	return id, true, nil
}

// FindID resolves a non-trashed folder id by location
func (r *PostgresFolderRepository) FindID(ctx context.Context, path, name string, userID uuid.UUID) (uuid.UUID, bool, error) {
	query := fmt.Sprintf(`
		SELECT f.id
		FROM %s f
		JOIN %s p ON p.id = f.path_id
		WHERE p.path = $1 AND f.name = $2 AND f.user_id = $3 AND NOT f.is_trashed
	`, r.tables.Folders, r.tables.Paths)

	var id uuid.UUID
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, path, name, userID).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("find folder id: %w", err)
	}

	return id, true, nil
}

// FindIDInPath resolves a non-trashed folder id by name within a path row
func (r *PostgresFolderRepository) FindIDInPath(ctx context.Context, name string, pathID, userID uuid.UUID) (uuid.UUID, bool, error) {
	query := fmt.Sprintf(`
		SELECT id FROM %s
		WHERE name = $1 AND path_id = $2 AND user_id = $3 AND NOT is_trashed
	`, r.tables.Folders)

	var id uuid.UUID
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, name, pathID, userID).Scan(&id)
	if err != nil {
		if isNoRows(err) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("find folder id in path: %w", err)
	}

	return id, true, nil
}

// GetByID retrieves a folder joined with its path string
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT f.id, f.name, f.path_id, p.path, f.size, f.is_trashed,
		       f.created_at, f.modified_at, f.parent_id, f.user_id
		FROM %s f
		JOIN %s p ON p.id = f.path_id
		WHERE f.id = $1 AND f.user_id = $2
	`, r.tables.Folders, r.tables.Paths)

	var folder models.Folder
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id, userID).Scan(
		&folder.ID,
		&folder.Name,
		&folder.PathID,
		&folder.Path,
		&folder.Size,
		&folder.IsTrashed,
		&folder.CreatedAt,
		&folder.ModifiedAt,
		&folder.ParentID,
		&folder.UserID,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return &folder, nil
}

// Create inserts the folder, its path row when it is new, and touches the parent.
// It must run inside a transaction.
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.NewFolder) error {
	executor := GetExecutor(ctx, r.pool)

	if folder.NewPath {
		query := fmt.Sprintf(`
			INSERT INTO %s (id, path, user_id)
			VALUES ($1, $2, $3)
		`, r.tables.Paths)
		if _, err := executor.Exec(ctx, query, folder.PathID, folder.Path, folder.UserID); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("path %q: %w", folder.Path, domain.ErrConflict)
			}
			return fmt.Errorf("create path: %w", err)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, path_id, size, is_trashed, created_at, modified_at, parent_id, user_id)
		VALUES ($1, $2, $3, 0, FALSE, $4, $4, $5, $6)
	`, r.tables.Folders)
	_, err := executor.Exec(ctx, query,
		folder.ID,
		folder.Name,
		folder.PathID,
		folder.CreatedAt,
		folder.ParentID,
		folder.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("folder %q: %w", folder.Path+folder.Name, domain.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("parent folder %s: %w", folder.ParentID, domain.ErrNotFound)
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return r.Touch(ctx, folder.ParentID, folder.CreatedAt)
}

// CreateRoot inserts the root folder ("" + "/") for a user
func (r *PostgresFolderRepository) CreateRoot(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	executor := GetExecutor(ctx, r.pool)

	pathQuery := fmt.Sprintf(`
		INSERT INTO %s (id, path, user_id)
		VALUES ($1, '', $2)
		ON CONFLICT (path, user_id) DO UPDATE SET path = EXCLUDED.path
		RETURNING id
	`, r.tables.Paths)

	var pathID uuid.UUID
	if err := executor.QueryRow(ctx, pathQuery, uuid.New(), userID).Scan(&pathID); err != nil {
		return fmt.Errorf("create root path: %w", err)
	}

	folderQuery := fmt.Sprintf(`
		INSERT INTO %s (id, name, path_id, size, is_trashed, created_at, modified_at, parent_id, user_id)
		VALUES ($1, '/', $2, 0, FALSE, $3, $3, NULL, $4)
	`, r.tables.Folders)
	if _, err := executor.Exec(ctx, folderQuery, id, pathID, at, userID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("root folder: %w", domain.ErrConflict)
		}
		return fmt.Errorf("create root folder: %w", err)
	}

	return nil
}

// GetSize returns the aggregate size of a folder
func (r *PostgresFolderRepository) GetSize(ctx context.Context, id uuid.UUID) (int64, error) {
	query := fmt.Sprintf(`SELECT size FROM %s WHERE id = $1`, r.tables.Folders)

	var size int64
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(&size); err != nil {
		if isNoRows(err) {
			return 0, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("get folder size: %w", err)
	}

	return size, nil
}

// IncreaseSize adds delta to the folder and its ancestors, stopping before upTo
func (r *PostgresFolderRepository) IncreaseSize(ctx context.Context, id uuid.UUID, delta int64, upTo *uuid.UUID) error {
	return r.adjustSize(ctx, id, delta, upTo)
}

// DecreaseSize subtracts delta from the folder and its ancestors, stopping before upTo
func (r *PostgresFolderRepository) DecreaseSize(ctx context.Context, id uuid.UUID, delta int64, upTo *uuid.UUID) error {
	return r.adjustSize(ctx, id, -delta, upTo)
}

// adjustSize walks the parent chain with a recursive CTE. The stop folder is
// excluded, and so is everything above it.
func (r *PostgresFolderRepository) adjustSize(ctx context.Context, id uuid.UUID, delta int64, upTo *uuid.UUID) error {
	query := fmt.Sprintf(`
		WITH RECURSIVE chain AS (
			SELECT id, parent_id
			FROM %[1]s
			WHERE id = $1 AND ($3::uuid IS NULL OR id <> $3)
			UNION ALL
			SELECT f.id, f.parent_id
			FROM %[1]s f
			JOIN chain c ON f.id = c.parent_id
			WHERE $3::uuid IS NULL OR f.id <> $3
		)
		UPDATE %[1]s
		SET size = size + $2
		WHERE id IN (SELECT id FROM chain)
	`, r.tables.Folders)

	if _, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id, delta, upTo); err != nil {
		return fmt.Errorf("adjust folder size: %w", err)
	}

	return nil
}

// Touch sets modified_at
func (r *PostgresFolderRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET modified_at = $2 WHERE id = $1`, r.tables.Folders)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("touch folder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// CountItems counts non-trashed child folders and files
func (r *PostgresFolderRepository) CountItems(ctx context.Context, id uuid.UUID) (int, error) {
	query := fmt.Sprintf(`
		SELECT
			(SELECT count(*) FROM %s WHERE parent_id = $1 AND NOT is_trashed) +
			(SELECT count(*) FROM %s WHERE folder_id = $1 AND NOT is_trashed)
	`, r.tables.Folders, r.tables.Files)

	var count int
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("count folder items: %w", err)
	}

	return count, nil
}

// itemOrderColumns maps a listing order to SQL. Values are never taken from input.
var itemOrderColumns = map[models.ItemOrder]string{
	models.OrderByName:       "name %[1]s",
	models.OrderByType:       "kind_order %[1]s, type %[1]s, name %[1]s",
	models.OrderBySize:       "size %[1]s, name",
	models.OrderByCreatedAt:  "created_at %[1]s, name",
	models.OrderByModifiedAt: "modified_at %[1]s, name",
}

// ListItems returns one page of child folders and files
func (r *PostgresFolderRepository) ListItems(ctx context.Context, id uuid.UUID, opts models.ListOptions) ([]models.Item, error) {
	order, ok := itemOrderColumns[opts.OrderBy]
	if !ok {
		order = itemOrderColumns[models.OrderByName]
	}
	direction := "ASC"
	if opts.Desc {
		direction = "DESC"
	}

	query := fmt.Sprintf(`
		SELECT kind, name, type, size, created_at, modified_at
		FROM (
			SELECT 'folder' AS kind, 0 AS kind_order, name, NULL::text AS type, size, created_at, modified_at
			FROM %s
			WHERE parent_id = $1 AND NOT is_trashed
			UNION ALL
			SELECT 'file' AS kind, 1 AS kind_order, name || extension, type, size, created_at, modified_at
			FROM %s
			WHERE folder_id = $1 AND NOT is_trashed
		) items
		ORDER BY %s
		LIMIT $2 OFFSET $3
	`, r.tables.Folders, r.tables.Files, fmt.Sprintf(order, direction))

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, id, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list folder items: %w", err)
	}
	defer rows.Close()

	items := make([]models.Item, 0, opts.Limit)
	for rows.Next() {
		var (
			item     models.Item
			kind     string
			fileType *string
		)
		if err := rows.Scan(&kind, &item.Name, &fileType, &item.Size, &item.CreatedAt, &item.ModifiedAt); err != nil {
			return nil, fmt.Errorf("scan folder item: %w", err)
		}
		item.Kind = models.ItemKind(kind)
		if fileType != nil {
			item.Type = models.FileType(*fileType)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder items: %w", err)
	}

	return items, nil
}

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

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Exists reports whether a non-trashed file (name, extension) is in the folder
func (r *PostgresFileRepository) Exists(ctx context.Context, name, extension string, folderID, userID uuid.UUID) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE name = $1 AND extension = $2 AND folder_id = $3 AND user_id = $4 AND NOT is_trashed
		)
	`, r.tables.Files)

	var exists bool
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, name, extension, folderID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check file exists: %w", err)
	}

	return exists, nil
}

// Get retrieves a non-trashed file by name within a folder
func (r *PostgresFileRepository) Get(ctx context.Context, name, extension string, folderID, userID uuid.UUID) (*models.File, error) {
	query := fmt.Sprintf(`
		SELECT id, name, extension, size, type, is_trashed, created_at, modified_at, folder_id, user_id
		FROM %s
		WHERE name = $1 AND extension = $2 AND folder_id = $3 AND user_id = $4 AND NOT is_trashed
	`, r.tables.Files)

	var (
		file     models.File
		fileType string
	)
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, name, extension, folderID, userID).Scan(
		&file.ID,
		&file.Name,
		&file.Extension,
		&file.Size,
		&fileType,
		&file.IsTrashed,
		&file.CreatedAt,
		&file.ModifiedAt,
		&file.FolderID,
		&file.UserID,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("file %q: %w", name+extension, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}
	file.Type = models.FileType(fileType)

	return &file, nil
}

// Create inserts file metadata
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, extension, size, type, is_trashed, created_at, modified_at, folder_id, user_id)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $7, $8, $9)
	`, r.tables.Files)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		file.ID,
		file.Name,
		file.Extension,
		file.Size,
		string(file.Type),
		file.CreatedAt,
		file.ModifiedAt,
		file.FolderID,
		file.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("file %q: %w", file.Name+file.Extension, domain.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("folder %s: %w", file.FolderID, domain.ErrNotFound)
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// Rename changes the base name of a file in place
func (r *PostgresFileRepository) Rename(ctx context.Context, id uuid.UUID, name string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $2, modified_at = $3
		WHERE id = $1
	`, r.tables.Files)

	return r.update(ctx, query, id, name, at)
}

// Move relocates a file to another folder under the given base name
func (r *PostgresFileRepository) Move(ctx context.Context, id, folderID uuid.UUID, name string, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET folder_id = $4, name = $2, modified_at = $3
		WHERE id = $1
	`, r.tables.Files)

	return r.update(ctx, query, id, name, at, folderID)
}

func (r *PostgresFileRepository) update(ctx context.Context, query string, id uuid.UUID, name string, args ...any) error {
	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, append([]any{id, name}, args...)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("file %q: %w", name, domain.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("destination folder: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("update file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

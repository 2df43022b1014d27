package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"filestorage/internal/domain"
	"filestorage/internal/domain/models"
	"filestorage/internal/domain/repositories"
)

// PostgresUserRepository implements the UserRepository interface
type PostgresUserRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewUserRepository creates a new user repository
func NewUserRepository(config *RepositoryConfig) repositories.UserRepository {
	return &PostgresUserRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

const userColumns = `id, email, username, password_hash, is_confirmed, created_at, modified_at, folder_id`

// Create inserts a user. The root folder referenced by FolderID must be
// created in the same transaction.
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, r.tables.Users, userColumns)

	_, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.IsConfirmed,
		user.CreatedAt,
		user.ModifiedAt,
		user.FolderID,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok {
			if strings.HasSuffix(constraint, "users_username_key") {
				return &domain.ConflictError{
					Key:          domain.KeyUsernameTaken,
					Message:      "username is already taken",
					ResourceType: "user",
				}
			}
			return &domain.ConflictError{
				Key:          domain.KeyEmailTaken,
				Message:      "email is already registered",
				ResourceType: "user",
			}
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// EmailExists reports whether the email is registered (case-insensitive)
func (r *PostgresUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email", email)
}

// UsernameExists reports whether the username is taken (case-insensitive)
func (r *PostgresUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username", username)
}

func (r *PostgresUserRepository) exists(ctx context.Context, column, value string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS (SELECT 1 FROM %s WHERE lower(%s) = lower($1))
	`, r.tables.Users, column)

	var exists bool
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, value).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user %s: %w", column, err)
	}

	return exists, nil
}

// GetByLogin retrieves a user by email or username
func (r *PostgresUserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE lower(email) = lower($1) OR lower(username) = lower($1)
		LIMIT 1
	`, userColumns, r.tables.Users)

	return r.getOne(ctx, query, login)
}

// GetByID retrieves a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, userColumns, r.tables.Users)

	return r.getOne(ctx, query, id)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.IsConfirmed,
		&user.CreatedAt,
		&user.ModifiedAt,
		&user.FolderID,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

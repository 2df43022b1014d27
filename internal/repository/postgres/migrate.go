package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the embedded schema migrations. Table names in the SQL are
// prefixed from the TABLE_PREFIX environment variable, and the goose version
// table uses the same prefix.
func Migrate(ctx context.Context, pool *pgxpool.Pool, tablePrefix string, logger *slog.Logger) error {
	return withGoose(pool, tablePrefix, logger, func(db *sql.DB) error {
		if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		return nil
	})
}

// Reset rolls back every migration, dropping all tables for tablePrefix.
func Reset(ctx context.Context, pool *pgxpool.Pool, tablePrefix string, logger *slog.Logger) error {
	return withGoose(pool, tablePrefix, logger, func(db *sql.DB) error {
		if err := goose.DownToContext(ctx, db, migrationsDir, 0); err != nil {
			return fmt.Errorf("roll back migrations: %w", err)
		}
		return nil
	})
}

const migrationsDir = "migrations"

func withGoose(pool *pgxpool.Pool, tablePrefix string, logger *slog.Logger, fn func(db *sql.DB) error) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("close migration connection", "error", err)
		}
	}()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&gooseLogger{logger: logger})
	goose.SetTableName(tablePrefix + "goose_db_version")

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	return fn(db)
}

// gooseLogger routes goose's Printf-style output through slog.
type gooseLogger struct {
	logger *slog.Logger
}

func (l *gooseLogger) Fatalf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l *gooseLogger) Printf(format string, v ...any) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

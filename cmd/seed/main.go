package main

import (
	"context"
	"flag"
	"log"
	"os"

	"filestorage/internal/auth"
	"filestorage/internal/config"
	"filestorage/internal/domain/services"
	"filestorage/internal/events"
	"filestorage/internal/filetype"
	"filestorage/internal/httputil"
	"filestorage/internal/repository/postgres"
	"filestorage/internal/seed"
	"filestorage/internal/service/account"
	"filestorage/internal/service/drive"
	"filestorage/internal/storage"
)

func main() {
	reset := flag.Bool("reset", false, "Roll back all migrations before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only apply migrations, don't seed demo data")
	email := flag.String("email", "demo@example.com", "Demo user email")
	username := flag.String("username", "demo", "Demo user name")
	password := flag.String("password", "demo-password", "Demo user password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Prevent destructive operations in production
	if cfg.Environment == "prod" && *reset {
		log.Fatalf("BLOCKED: -reset is not allowed in the prod environment")
	}
	if cfg.Auth.Secret == "" {
		log.Fatalf("JWT_SECRET is required to register the demo user")
	}

	logger := config.NewLogger(os.Stdout, cfg.Log.Level)
	ctx := context.Background()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if *reset {
		logger.Warn("rolling back all migrations", "table_prefix", cfg.TablePrefix)
		if err := postgres.Reset(ctx, pool, cfg.TablePrefix, logger); err != nil {
			log.Fatalf("Failed to reset database: %v", err)
		}
	}

	if err := postgres.Migrate(ctx, pool, cfg.TablePrefix, logger); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if *schemaOnly {
		logger.Info("schema ready")
		return
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	folderRepo := postgres.NewFolderRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	blobs, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Backend, err)
	}
	classifier, err := filetype.NewClassifier()
	if err != nil {
		log.Fatalf("Failed to load file types: %v", err)
	}
	tokens, err := auth.NewHMACTokens(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TTL, logger)
	if err != nil {
		log.Fatalf("Failed to create token issuer: %v", err)
	}

	clock := services.SystemClock{}
	driveDeps := drive.Deps{
		Folders:    folderRepo,
		Files:      fileRepo,
		TxManager:  txManager,
		Blobs:      blobs,
		Classifier: classifier,
		Identity:   httputil.ContextIdentity{},
		Clock:      clock,
		Events:     events.Nop{},
		Limits:     cfg.Limits,
		Logger:     logger,
	}

	seeder := &seed.Seeder{
		Accounts: account.NewUserService(account.Deps{
			Users:     userRepo,
			Folders:   folderRepo,
			TxManager: txManager,
			Tokens:    tokens,
			Clock:     clock,
			Events:    events.Nop{},
			Logger:    logger,
		}),
		Users:   userRepo,
		Folders: drive.NewFolderService(driveDeps),
		Files:   drive.NewFileService(driveDeps),
		Logger:  logger,
	}

	res, err := seeder.Run(ctx, seed.Account{Email: *email, Username: *username, Password: *password})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	logger.Info("seeding complete",
		"folders_created", res.FoldersCreated,
		"files_created", res.FilesCreated,
		"skipped", res.Skipped,
	)
}

package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"filestorage/internal/auth"
	"filestorage/internal/config"
	"filestorage/internal/domain/services"
	"filestorage/internal/events"
	"filestorage/internal/filetype"
	"filestorage/internal/handler"
	"filestorage/internal/httputil"
	"filestorage/internal/middleware"
	"filestorage/internal/repository/postgres"
	"filestorage/internal/service/account"
	"filestorage/internal/service/drive"
	"filestorage/internal/storage"
)

func main() {
	// Load configuration (.env is optional)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging, optionally teeing into a rotated log file
	var logOut io.Writer = os.Stdout
	if cfg.Log.Dir != "" {
		logFile, err := config.SetupLogFile(cfg.Log.Dir, cfg.Log.MaxFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}
	level := cfg.Log.Level
	if cfg.Environment == "dev" && level == "info" {
		level = "debug"
	}
	logger := config.NewLogger(logOut, level)
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"storage_backend", cfg.Storage.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Create pgx connection pool
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := postgres.Migrate(ctx, pool, cfg.TablePrefix, logger); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	folderRepo := postgres.NewFolderRepository(repoConfig)
	fileRepo := postgres.NewFileRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Blob storage
	blobs, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Backend, err)
	}

	classifier, err := filetype.NewClassifier()
	if err != nil {
		log.Fatalf("Failed to load file types: %v", err)
	}

	// Domain events (optional)
	var publisher services.EventPublisher = events.Nop{}
	if cfg.NATS.URL != "" {
		natsPublisher, err := events.Connect(cfg.NATS.URL, cfg.NATS.Stream, logger)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	} else {
		logger.Info("event publishing disabled")
	}

	// Tokens: self-issued HMAC tokens, or externally issued tokens verified via JWKS
	var (
		issuer   services.TokenIssuer
		verifier auth.JWTVerifier
	)
	if cfg.Auth.Secret != "" {
		tokens, err := auth.NewHMACTokens(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TTL, logger)
		if err != nil {
			log.Fatalf("Failed to create token issuer: %v", err)
		}
		issuer, verifier = tokens, tokens
	}
	if cfg.Auth.JWKSURL != "" {
		jwks, err := auth.NewJWKSVerifier(cfg.Auth.JWKSURL, cfg.Auth.Issuer, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		verifier = jwks
	}
	defer verifier.Close()

	// Create services
	clock := services.SystemClock{}
	driveDeps := drive.Deps{
		Folders:    folderRepo,
		Files:      fileRepo,
		TxManager:  txManager,
		Blobs:      blobs,
		Classifier: classifier,
		Identity:   httputil.ContextIdentity{},
		Clock:      clock,
		Events:     publisher,
		Limits:     cfg.Limits,
		Logger:     logger,
	}
	folderService := drive.NewFolderService(driveDeps)
	fileService := drive.NewFileService(driveDeps)

	// Create handlers
	folderHandler := handler.NewFolderHandler(folderService, logger)
	fileHandler := handler.NewFileHandler(fileService, cfg.Limits.FileSizeLimit, logger)
	healthHandler := handler.NewHealthHandler(pool, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", healthHandler.HealthCheck)

	// Auth routes (registration needs a token issuer)
	if issuer != nil {
		userService := account.NewUserService(account.Deps{
			Users:     userRepo,
			Folders:   folderRepo,
			TxManager: txManager,
			Tokens:    issuer,
			Clock:     clock,
			Events:    publisher,
			Logger:    logger,
		})
		authHandler := handler.NewAuthHandler(userService, logger)
		mux.HandleFunc("POST /api/auth/register", authHandler.Register)
		mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	} else {
		logger.Info("local registration disabled: tokens are issued externally")
	}

	// Folder routes
	mux.HandleFunc("POST /api/folders", folderHandler.CreateFolder)
	mux.HandleFunc("GET /api/folders", folderHandler.GetFolder)
	mux.HandleFunc("GET /api/folders/{path...}", folderHandler.GetFolder)

	// File routes
	mux.HandleFunc("POST /api/files", fileHandler.CreateFile)
	mux.HandleFunc("PATCH /api/files", fileHandler.MoveFile)
	mux.HandleFunc("GET /api/files/{path...}", fileHandler.GetFile)
	mux.HandleFunc("GET /api/download/{path...}", fileHandler.DownloadFile)

	// Build middleware chain
	var h http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → RequestLogger → Recovery → Auth → Routes
	h = middleware.Auth(verifier, logger, "/health", "/api/auth/")(h)
	h = middleware.Recovery(logger)(h)
	h = middleware.RequestLogger(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     h,
		ReadTimeout: 15 * time.Minute, // large uploads
		IdleTimeout: 60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

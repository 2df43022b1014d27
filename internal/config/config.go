package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageS3    = "s3"
)

type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"dev"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	TablePrefix     string        `env:"TABLE_PREFIX"`
	RunMigrations   bool          `env:"RUN_MIGRATIONS" envDefault:"true"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	DBMaxConns      int32         `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns      int32         `env:"DB_MIN_CONNS" envDefault:"5"`

	Log     LogConfig     `envPrefix:"LOG_"`
	Auth    AuthConfig    `envPrefix:"JWT_"`
	Storage StorageConfig `envPrefix:"STORAGE_"`
	Minio   MinioConfig   `envPrefix:"MINIO_"`
	S3      S3Config      `envPrefix:"S3_"`
	NATS    NATSConfig    `envPrefix:"NATS_"`
	Limits  Limits
}

type LogConfig struct {
	Level    string `env:"LEVEL" envDefault:"info"`
	Dir      string `env:"DIR"` // empty disables file logging
	MaxFiles int    `env:"MAX_FILES" envDefault:"10"`
}

type AuthConfig struct {
	Secret  string        `env:"SECRET"`
	Issuer  string        `env:"ISSUER" envDefault:"filestorage"`
	TTL     time.Duration `env:"TTL" envDefault:"24h"`
	JWKSURL string        `env:"JWKS_URL"` // verify externally issued tokens when set
}

type StorageConfig struct {
	Backend string `env:"BACKEND" envDefault:"local"`
	Folder  string `env:"FOLDER" envDefault:"./data"`
}

type MinioConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"files"`
	UseSSL    bool   `env:"USE_SSL"`
}

type S3Config struct {
	Bucket    string `env:"BUCKET"`
	Region    string `env:"REGION" envDefault:"us-east-1"`
	Endpoint  string `env:"ENDPOINT"` // custom endpoint for S3-compatible services
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
}

type NATSConfig struct {
	URL    string `env:"URL"` // empty disables event publishing
	Stream string `env:"STREAM" envDefault:"FILESTORAGE"`
}

// Limits bounds names, paths, uploads and per-user storage.
type Limits struct {
	PathSegmentMaxLength    int   `env:"PATH_SEGMENT_MAX_LENGTH" envDefault:"255"`
	FileNameMaxLength       int   `env:"FILE_NAME_MAX_LENGTH" envDefault:"255"`
	FullPathMaxLength       int   `env:"FULL_PATH_MAX_LENGTH" envDefault:"2048"`
	FileSizeLimit           int64 `env:"FILE_SIZE_LIMIT" envDefault:"2147483648"`
	StorageSizeLimitPerUser int64 `env:"STORAGE_SIZE_LIMIT_PER_USER" envDefault:"10737418240"`
	MaxPageSize             int   `env:"MAX_PAGE_SIZE" envDefault:"100"`
}

// DefaultLimits returns the limits used when no environment overrides exist.
func DefaultLimits() Limits {
	var l Limits
	_ = env.Parse(&l)
	return l
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks required settings for the selected backends.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.Auth, validation.By(func(any) error {
			if c.Auth.Secret == "" && c.Auth.JWKSURL == "" {
				return fmt.Errorf("JWT_SECRET or JWT_JWKS_URL is required")
			}
			return nil
		})),
		validation.Field(&c.Storage, validation.By(func(any) error {
			return c.validateStorage()
		})),
		validation.Field(&c.Limits),
	)
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case StorageLocal:
		return validation.Validate(c.Storage.Folder, validation.Required)
	case StorageMinio:
		return validation.ValidateStruct(&c.Minio,
			validation.Field(&c.Minio.Endpoint, validation.Required),
			validation.Field(&c.Minio.AccessKey, validation.Required),
			validation.Field(&c.Minio.SecretKey, validation.Required),
			validation.Field(&c.Minio.Bucket, validation.Required),
		)
	case StorageS3:
		return validation.ValidateStruct(&c.S3,
			validation.Field(&c.S3.Bucket, validation.Required),
			validation.Field(&c.S3.Region, validation.Required),
			validation.Field(&c.S3.Endpoint, is.URL),
		)
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
}

// Validate checks that every limit is positive.
func (l Limits) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.PathSegmentMaxLength, validation.Required, validation.Min(1)),
		validation.Field(&l.FileNameMaxLength, validation.Required, validation.Min(1)),
		validation.Field(&l.FullPathMaxLength, validation.Required, validation.Min(1)),
		validation.Field(&l.FileSizeLimit, validation.Required, validation.Min(int64(1))),
		validation.Field(&l.StorageSizeLimitPerUser, validation.Required, validation.Min(int64(1))),
		validation.Field(&l.MaxPageSize, validation.Required, validation.Min(1)),
	)
}

package storage

import (
	"context"
	"fmt"

	"filestorage/internal/config"
	"filestorage/internal/domain/services"
)

// New opens the blob store selected by cfg.Storage.Backend.
func New(ctx context.Context, cfg *config.Config) (services.BlobStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageLocal:
		return NewLocalStore(cfg.Storage.Folder)
	case config.StorageMinio:
		return NewMinioStore(ctx, MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
		})
	case config.StorageS3:
		return NewS3Store(ctx, S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

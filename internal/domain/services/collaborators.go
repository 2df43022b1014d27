package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"filestorage/internal/domain/models"
)

// Identity is the authenticated owner of a request.
type Identity struct {
	UserID       uuid.UUID
	RootFolderID uuid.UUID
}

// IdentityProvider returns the identity of the current request.
type IdentityProvider interface {
	Identity(ctx context.Context) (Identity, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// BlobStore holds file payloads addressed by key. Open and Delete return an
// error matching domain.ErrNotFound for a missing key.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Classification is the outcome of classifying an upload.
type Classification struct {
	Type     models.FileType
	MimeType string
}

// FileClassifier maps an extension and declared MIME type to a file type.
// A mismatch between the two is reported as domain.ErrInvalidContent.
type FileClassifier interface {
	Classify(extension, declaredMime string) (Classification, error)
	MimeType(extension string) string
}

// EventPublisher emits domain events after committed mutations.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

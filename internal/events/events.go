// Package events publishes domain events after committed mutations.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"filestorage/internal/domain/services"
)

// Subjects
const (
	SubjectUserRegistered = "users.registered"
	SubjectFolderCreated  = "folders.created"
	SubjectFileCreated    = "files.created"
	SubjectFileMoved      = "files.moved"
)

// UserRegistered is published after a user and its root folder are created.
type UserRegistered struct {
	UserID       uuid.UUID `json:"user_id"`
	RootFolderID uuid.UUID `json:"root_folder_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// FolderCreated is published once per provisioned folder chain.
type FolderCreated struct {
	UserID     uuid.UUID   `json:"user_id"`
	FolderIDs  []uuid.UUID `json:"folder_ids"`
	FullName   string      `json:"full_name"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// FileCreated is published after an upload commits.
type FileCreated struct {
	UserID     uuid.UUID `json:"user_id"`
	FileID     uuid.UUID `json:"file_id"`
	FolderID   uuid.UUID `json:"folder_id"`
	FullName   string    `json:"full_name"`
	Size       int64     `json:"size"`
	OccurredAt time.Time `json:"occurred_at"`
}

// FileMoved is published after a move or rename commits.
type FileMoved struct {
	UserID      uuid.UUID `json:"user_id"`
	FileID      uuid.UUID `json:"file_id"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

var _ services.EventPublisher = Nop{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// Emit publishes best effort: a failure is logged and never returned, since
// the mutation it describes has already committed.
func Emit(ctx context.Context, p services.EventPublisher, logger *slog.Logger, subject string, payload any) {
	if err := p.Publish(ctx, subject, payload); err != nil {
		logger.Warn("publish event failed", "subject", subject, "error", err)
	}
}

package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// KeyedError is implemented by errors that carry a machine-readable key.
type KeyedError interface {
	error
	ErrorKey() string
}

// Error keys reported to clients.
const (
	KeyInvalidPath              = "InvalidPath"
	KeyEmptyFolderName          = "EmptyFolderName"
	KeyFolderNameTooLong        = "FolderNameTooLong"
	KeyPathTooLong              = "PathTooLong"
	KeyEmptyFileName            = "EmptyFileName"
	KeyFileNameTooLong          = "FileNameTooLong"
	KeyInvalidFileName          = "InvalidFileName"
	KeyEmptyFile                = "EmptyFile"
	KeyFileTooLarge             = "FileTooLarge"
	KeyDuplicateFolderName      = "DuplicateFolderName"
	KeyDuplicateFileName        = "DuplicateFileName"
	KeyFolderNotFound           = "FolderNotFound"
	KeyFileNotFound             = "FileNotFound"
	KeyStorageOutOfSpace        = "StorageOutOfSpace"
	KeyInvalidFileExtension     = "InvalidFileExtension"
	KeySameSourceAndDestination = "SameSourceAndDestination"
	KeyEmailTaken               = "EmailTaken"
	KeyUsernameTaken            = "UsernameTaken"
	KeyInvalidCredentials       = "InvalidCredentials"
)

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("already exists")
	ErrValidation     = errors.New("validation failed")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrCapacity       = errors.New("capacity exceeded")
	ErrInvalidContent = errors.New("invalid content")
)

// Violation is a single named-field validation failure.
type Violation struct {
	Key     string `json:"key"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Limit   int    `json:"limit,omitempty"`
}

// Domain error types implementing HTTPError interface
type (
	// ValidationError indicates invalid input. It aggregates one or more violations.
	ValidationError struct {
		Message    string
		Violations []Violation
	}

	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		Key     string
		Message string
	}

	// CapacityError indicates the owner's storage quota would be exceeded
	CapacityError struct {
		Key     string
		Message string
		Limit   int64
	}

	// InvalidContentError indicates the declared content does not match the file
	InvalidContentError struct {
		Key     string
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Key     string
		Message string
	}

	// ForbiddenError indicates authorization failure
	ForbiddenError struct {
		Message string
	}
)

// ConflictError represents a keyed conflict (duplicate name or path)
type ConflictError struct {
	Key          string // Machine-readable key, e.g. DuplicateFolderName
	Message      string // Human-readable error message
	ResourceType string // folder, file, user
	ResourceID   string // ID of the existing resource, when known
}

// NewViolation builds a ValidationError holding a single violation.
func NewViolation(key, field, message string, limit int) *ValidationError {
	return &ValidationError{
		Message:    message,
		Violations: []Violation{{Key: key, Field: field, Message: message, Limit: limit}},
	}
}

// Key returns the key of the first violation.
func (e *ValidationError) Key() string {
	if len(e.Violations) == 0 {
		return ""
	}
	return e.Violations[0].Key
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Message)
	}
	return strings.Join(msgs, "; ")
}

// Error implementations
func (e *NotFoundError) Error() string       { return e.Message }
func (e *CapacityError) Error() string       { return e.Message }
func (e *InvalidContentError) Error() string { return e.Message }
func (e *UnauthorizedError) Error() string   { return e.Message }
func (e *ForbiddenError) Error() string      { return e.Message }
func (e *ConflictError) Error() string       { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *ValidationError) StatusCode() int     { return http.StatusBadRequest }
func (e *NotFoundError) StatusCode() int       { return http.StatusNotFound }
func (e *CapacityError) StatusCode() int       { return http.StatusRequestEntityTooLarge }
func (e *InvalidContentError) StatusCode() int { return http.StatusUnsupportedMediaType }
func (e *UnauthorizedError) StatusCode() int   { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int      { return http.StatusForbidden }
func (e *ConflictError) StatusCode() int       { return http.StatusConflict }

// ErrorKey implementations (KeyedError interface)
func (e *ValidationError) ErrorKey() string     { return e.Key() }
func (e *NotFoundError) ErrorKey() string       { return e.Key }
func (e *CapacityError) ErrorKey() string       { return e.Key }
func (e *InvalidContentError) ErrorKey() string { return e.Key }
func (e *UnauthorizedError) ErrorKey() string   { return e.Key }
func (e *ConflictError) ErrorKey() string       { return e.Key }

// Is implementations so errors.Is() matches the sentinels
func (e *ValidationError) Is(target error) bool     { return target == ErrValidation }
func (e *NotFoundError) Is(target error) bool       { return target == ErrNotFound }
func (e *CapacityError) Is(target error) bool       { return target == ErrCapacity }
func (e *InvalidContentError) Is(target error) bool { return target == ErrInvalidContent }
func (e *UnauthorizedError) Is(target error) bool   { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool      { return target == ErrForbidden }
func (e *ConflictError) Is(target error) bool       { return target == ErrConflict }

// FolderNotFound reports a missing folder by its full name.
func FolderNotFound(fullName string) *NotFoundError {
	return &NotFoundError{Key: KeyFolderNotFound, Message: fmt.Sprintf("folder %q not found", fullName)}
}

// FileNotFound reports a missing file by its full name.
func FileNotFound(fullName string) *NotFoundError {
	return &NotFoundError{Key: KeyFileNotFound, Message: fmt.Sprintf("file %q not found", fullName)}
}

// DuplicateFolderName reports an existing folder at fullName.
func DuplicateFolderName(fullName string) *ConflictError {
	return &ConflictError{
		Key:          KeyDuplicateFolderName,
		Message:      fmt.Sprintf("a folder named %q already exists", fullName),
		ResourceType: "folder",
	}
}

// DuplicateFileName reports an existing file at fullName.
func DuplicateFileName(fullName string) *ConflictError {
	return &ConflictError{
		Key:          KeyDuplicateFileName,
		Message:      fmt.Sprintf("a file named %q already exists", fullName),
		ResourceType: "file",
	}
}

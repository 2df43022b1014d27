package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors_MatchSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		status   int
	}{
		{"validation", NewViolation(KeyInvalidPath, "path", "bad", 0), ErrValidation, http.StatusBadRequest},
		{"conflict", DuplicateFolderName("/a"), ErrConflict, http.StatusConflict},
		{"not found", FolderNotFound("/a"), ErrNotFound, http.StatusNotFound},
		{"capacity", &CapacityError{Key: KeyStorageOutOfSpace}, ErrCapacity, http.StatusRequestEntityTooLarge},
		{"content", &InvalidContentError{Key: KeyInvalidFileExtension}, ErrInvalidContent, http.StatusUnsupportedMediaType},
		{"unauthorized", &UnauthorizedError{}, ErrUnauthorized, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("create: %w", tt.err)
			assert.True(t, errors.Is(wrapped, tt.sentinel))

			var httpErr HTTPError
			require.True(t, errors.As(wrapped, &httpErr))
			assert.Equal(t, tt.status, httpErr.StatusCode())
		})
	}
}

func TestFromValidation(t *testing.T) {
	size := int64(0)
	name := ""
	err := validation.Errors{
		"size": validation.Validate(size, validation.Required.ErrorObject(Rule(KeyEmptyFile, "file is empty"))),
		"name": validation.Validate(name, validation.Required.ErrorObject(Rule(KeyEmptyFileName, "file name is empty"))),
	}.Filter()

	got := FromValidation(err)

	var verr *ValidationError
	require.ErrorAs(t, got, &verr)
	require.Len(t, verr.Violations, 2)
	assert.Equal(t, KeyEmptyFileName, verr.Violations[0].Key)
	assert.Equal(t, "name", verr.Violations[0].Field)
	assert.Equal(t, KeyEmptyFile, verr.Violations[1].Key)
	assert.Equal(t, "file name is empty; file is empty", verr.Error())
}

func TestFromValidation_PassThrough(t *testing.T) {
	assert.NoError(t, FromValidation(nil))
	plain := errors.New("boom")
	assert.Same(t, plain, FromValidation(plain))
}

// Package storage holds file payloads for the blob store backends.
package storage

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ObjectKey is the content-addressed key of a file payload:
// "<root folder id>/<ab>/<cd>/<file id>", where ab and cd are the first four
// hex characters of the file id. The two shard levels bound directory fan-out.
func ObjectKey(rootFolderID, fileID uuid.UUID) string {
	id := fileID.String()
	return path.Join(rootFolderID.String(), id[0:2], id[2:4], id)
}

// validateKey rejects keys that could escape the storage root.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}

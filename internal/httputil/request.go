package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"filestorage/internal/domain"
)

// maxJSONBody bounds JSON request bodies. Uploads are multipart and limited separately.
const maxJSONBody = 1 << 20

// ParseJSON decodes JSON from the request body into the given destination.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

// QueryInt parses an optional integer query parameter. A missing parameter
// yields zero.
func QueryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewViolation("Invalid", name, fmt.Sprintf("%s must be an integer", name), 0)
	}
	return v, nil
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewViolation("Invalid", name, fmt.Sprintf("%s must be a boolean", name), 0)
	}
	return v, nil
}

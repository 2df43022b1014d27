package httputil

import (
	"encoding/json"
	"net/http"
	"strings"

	"filestorage/internal/domain"
)

// problemTypePrefix namespaces problem type URIs by error key.
const problemTypePrefix = "urn:filestorage:problem:"

// RespondJSON writes data as a JSON body. Encoding happens before the header
// is written, so a failure still produces a clean 500.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}
	write(w, status, "application/json", payload)
}

// Problem is an RFC 7807 problem document. Key, Violations and Limit are
// extension members.
type Problem struct {
	Type       string             `json:"type"`
	Title      string             `json:"title"`
	Status     int                `json:"status"`
	Detail     string             `json:"detail,omitempty"`
	Key        string             `json:"key,omitempty"`
	Violations []domain.Violation `json:"violations,omitempty"`
	Limit      int64              `json:"limit,omitempty"`
}

// NewProblem builds a problem for status. Its type is derived from the key
// once one is set, see RespondProblem.
func NewProblem(status int, detail string) Problem {
	return Problem{Title: http.StatusText(status), Status: status, Detail: detail}
}

// RespondError writes a problem without extension members.
func RespondError(w http.ResponseWriter, status int, detail string) {
	RespondProblem(w, NewProblem(status, detail))
}

// RespondProblem writes p as application/problem+json.
func RespondProblem(w http.ResponseWriter, p Problem) {
	if p.Type == "" {
		p.Type = problemType(p.Key)
	}
	payload, err := json.Marshal(p)
	if err != nil {
		write(w, http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("internal server error"))
		return
	}
	write(w, p.Status, "application/problem+json", payload)
}

// problemType maps an error key to a stable type URI. Keyless problems carry
// no semantics beyond the status code.
func problemType(key string) string {
	if key == "" {
		return "about:blank"
	}
	return problemTypePrefix + strings.ToLower(key[:1]) + key[1:]
}

func write(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

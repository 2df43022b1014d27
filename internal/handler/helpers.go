package handler

import (
	"log/slog"
	"net/http"

	"filestorage/internal/httputil"
)

// handleError converts domain errors to HTTP responses. Unmapped errors are
// logged and reported as 500.
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if !httputil.RespondDomainError(w, err) {
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
}

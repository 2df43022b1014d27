package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"filestorage/internal/auth"
	"filestorage/internal/domain"
	"filestorage/internal/httputil"
)

// Auth validates the bearer token and stores the caller identity in the
// request context. Requests whose path starts with one of publicPrefixes pass
// through unauthenticated.
func Auth(verifier auth.JWTVerifier, logger *slog.Logger, publicPrefixes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range publicPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ident, err := claims.Identity()
			if err != nil {
				logger.Warn("token claims rejected", "subject", claims.Subject, "error", err)
				unauthorized(w, "invalid token claims")
				return
			}

			next.ServeHTTP(w, httputil.WithIdentity(r, ident))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="filestorage"`)
	httputil.RespondDomainError(w, &domain.UnauthorizedError{Message: msg})
}

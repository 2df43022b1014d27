package httputil

import (
	"errors"
	"net/http"

	"filestorage/internal/domain"
)

// RespondDomainError maps err onto a problem document. Errors that carry a
// status code keep their message; everything else is an opaque 500 and is
// reported back as false so the caller can log it.
func RespondDomainError(w http.ResponseWriter, err error) bool {
	var httpErr domain.HTTPError
	if !errors.As(err, &httpErr) {
		RespondError(w, http.StatusInternalServerError, "internal server error")
		return false
	}

	p := NewProblem(httpErr.StatusCode(), httpErr.Error())
	var keyed domain.KeyedError
	if errors.As(err, &keyed) {
		p.Key = keyed.ErrorKey()
	}
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		p.Violations = validationErr.Violations
	}
	var capacityErr *domain.CapacityError
	if errors.As(err, &capacityErr) {
		p.Limit = capacityErr.Limit
	}

	RespondProblem(w, p)
	return true
}

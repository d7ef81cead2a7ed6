package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"groupevents/internal/domain"
)

// WriteDomainError maps err onto a status code and error envelope.
// Violations and not-found errors are reported by name; anything else is
// logged and reported without its details.
func WriteDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		violation *domain.Violation
		notFound  *domain.NotFoundError
		partial   *domain.PartialWriteError
	)
	switch {
	case errors.As(err, &violation):
		WriteJSONError(w, violationStatus(violation.Tag), string(violation.Tag), violation.Message)
	case errors.As(err, &notFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, notFound.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	case errors.As(err, &partial):
		logger.ErrorContext(r.Context(), "request left a partial write", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodePartialWrite, partial.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		WriteJSONError(w, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "store unavailable, retry the request")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}

func violationStatus(tag domain.ViolationTag) int {
	switch tag {
	case domain.TagInvalidInput:
		return http.StatusBadRequest
	case domain.TagNeverInvited, domain.TagNotInvitedToThisGroup, domain.TagNotGroupMember:
		return http.StatusForbidden
	default:
		return http.StatusConflict
	}
}

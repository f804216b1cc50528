package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"hackomatic/internal/domain"
)

// WriteServiceError maps a service error to its HTTP status and error code.
// Unexpected errors are logged and reported as internal errors.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		rejection *domain.Rejection
		violation *domain.PhaseViolationError
		invalid   *domain.InvalidInputError
	)
	switch {
	case errors.As(err, &rejection):
		WriteJSONErrorDetails(w, http.StatusUnprocessableEntity, ErrCodeVoteRejected, rejection.Error(), rejection)
	case errors.As(err, &violation):
		WriteJSONErrorDetails(w, http.StatusConflict, ErrCodePhaseViolation, violation.Error(), map[string]string{
			"phase":     violation.Phase.String(),
			"operation": violation.Operation.String(),
		})
	case errors.Is(err, domain.ErrPhaseViolation):
		WriteJSONError(w, http.StatusConflict, ErrCodePhaseViolation, domain.ErrPhaseViolation.Error())
	case errors.As(err, &invalid):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, invalid.Message)
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, domain.ErrInvalidInput.Error())
	case errors.Is(err, domain.ErrDuplicateTeamName):
		WriteJSONError(w, http.StatusConflict, ErrCodeDuplicateTeamName, domain.ErrDuplicateTeamName.Error())
	case errors.Is(err, domain.ErrTeamLimitReached):
		WriteJSONError(w, http.StatusConflict, ErrCodeTeamLimitReached, "you cannot create more teams")
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrStoreUnavailable):
		logger.WarnContext(r.Context(), "store unavailable", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "the database is busy, please retry")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}

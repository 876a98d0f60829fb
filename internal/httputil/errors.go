package httputil

import (
	"errors"
	"net/http"

	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/logging"
)

// RespondDomainError maps err onto the status and code taxonomy. Errors
// outside the taxonomy are logged and answered with a generic 500.
func RespondDomainError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	var (
		verr     *domain.ValidationError
		conflict *domain.ConflictError
		capacity *domain.CapacityError
	)

	switch {
	case errors.As(err, &verr):
		RespondJSON(w, ErrorResponse{Error: verr.Message, Code: CodeValidation, Field: verr.Field}, http.StatusBadRequest)
	case errors.As(err, &conflict):
		RespondJSON(w, ErrorResponse{Error: conflict.Message, Code: CodeConflict, Field: conflict.Field}, http.StatusConflict)
	case errors.As(err, &capacity):
		RespondErrorWithCode(w, err.Error(), CodeCapacity, http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		RespondErrorWithCode(w, "invalid or expired token", CodeInvalidToken, http.StatusBadRequest)
	case errors.Is(err, domain.ErrInvalidCredentials):
		RespondErrorWithCode(w, domain.ErrInvalidCredentials.Error(), CodeInvalidCreds, http.StatusUnauthorized)
	case errors.Is(err, domain.ErrEmailNotVerified):
		RespondErrorWithCode(w, domain.ErrEmailNotVerified.Error(), CodeEmailNotVerified, http.StatusForbidden)
	case errors.Is(err, domain.ErrUnauthorized):
		RespondErrorWithCode(w, "unauthorized", CodeUnauthorized, http.StatusUnauthorized)
	case errors.Is(err, domain.ErrNotFound):
		RespondErrorWithCode(w, "not found", CodeNotFound, http.StatusNotFound)
	case errors.Is(err, domain.ErrValidation):
		RespondErrorWithCode(w, err.Error(), CodeValidation, http.StatusBadRequest)
	default:
		logging.FromContext(r.Context(), logger).Error("request failed", "error", err)
		RespondErrorWithCode(w, "internal server error", CodeInternal, http.StatusInternalServerError)
	}
}

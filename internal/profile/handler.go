package profile

import (
	"net/http"

	"github.com/redmonkez12/matcha/internal/auth"
	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/httputil"
	"github.com/redmonkez12/matcha/internal/logging"
)

type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Me handles GET /api/me.
// @Summary      Current user
// @Description  Account, profile, tags, photos and profile completeness of the session user.
// @Tags         profile
// @Produce      json
// @Success      200 {object} Me
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.RespondDomainError(w, r, h.logger, domain.ErrUnauthorized)
		return
	}

	me, err := h.service.GetMe(r.Context(), userID)
	if err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, me, http.StatusOK)
}

// Update handles PUT /api/profile.
// @Summary      Update profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     CSRFToken
// @Param        request body UpdateProfileInput true "Gender, preference and bio"
// @Success      200 {object} domain.Profile
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/profile [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.RespondDomainError(w, r, h.logger, domain.ErrUnauthorized)
		return
	}

	var req UpdateProfileInput
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	p, err := h.service.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, p, http.StatusOK)
}

package tag

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

type AttachRequest struct {
	Tags []string `json:"tags"`
}

type DetachRequest struct {
	Tag string `json:"tag"`
}

type TagsResponse struct {
	Tags []domain.Tag `json:"tags"`
}

// Search handles GET /api/tags?q=.
// @Summary      Search tags
// @Tags         tags
// @Produce      json
// @Param        q query string false "Tag prefix, with or without '#'"
// @Success      200 {object} TagsResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/tags [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, TagsResponse{Tags: tags}, http.StatusOK)
}

// Attach handles POST /api/tags/attach.
// @Summary      Attach tags
// @Description  Links the tags to the session user, creating unknown ones. Blank entries are ignored.
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     CSRFToken
// @Param        request body AttachRequest true "Tags to attach"
// @Success      200 {object} TagsResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid tag"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/tags/attach [post]
func (h *Handler) Attach(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.RespondDomainError(w, r, h.logger, domain.ErrUnauthorized)
		return
	}

	var req AttachRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	tags, err := h.service.Attach(r.Context(), userID, req.Tags)
	if err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, TagsResponse{Tags: tags}, http.StatusOK)
}

// Detach handles DELETE /api/tags/detach.
// @Summary      Detach a tag
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     CSRFToken
// @Param        request body DetachRequest true "Tag to detach"
// @Success      200 {object} TagsResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid tag"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/tags/detach [delete]
func (h *Handler) Detach(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.RespondDomainError(w, r, h.logger, domain.ErrUnauthorized)
		return
	}

	var req DetachRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	if err := h.service.Detach(r.Context(), userID, req.Tag); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	tags, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, TagsResponse{Tags: tags}, http.StatusOK)
}

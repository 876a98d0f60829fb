package photo

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/auth"
	"github.com/redmonkez12/matcha/internal/domain"
	"github.com/redmonkez12/matcha/internal/httputil"
	"github.com/redmonkez12/matcha/internal/logging"
)

// multipart overhead allowed on top of the file itself
const formOverhead = 1 << 20

type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type PhotosResponse struct {
	Photos []domain.Photo `json:"photos"`
}

// List handles GET /api/photos.
// @Summary      List photos
// @Tags         photos
// @Produce      json
// @Success      200 {object} PhotosResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/photos [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.RespondDomainError(w, r, h.logger, domain.ErrUnauthorized)
		return
	}
	h.respondList(w, r, userID)
}

// Upload handles POST /api/photos with a multipart "file" field.
// @Summary      Upload a photo
// @Description  JPEG, PNG or WebP up to 5 MB, at most 5 photos per user. The first photo becomes primary.
// @Tags         photos
// @Accept       mpfd
// @Produce      json
// @Security     CSRFToken
// @Param        file formData file true "Image file"
// @Success      201 {object} domain.Photo
// @Failure      400 {object} httputil.ErrorResponse "Invalid file or photo limit reached"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/photos [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.RespondDomainError(w, r, h.logger, domain.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxPhotoBytes+formOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondDomainError(w, r, h.logger, domain.NewValidationError("file", "file exceeds the 5 MB limit"))
			return
		}
		httputil.RespondDomainError(w, r, h.logger, domain.NewValidationError("file", "file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, domain.MaxPhotoBytes+1))
	if err != nil {
		httputil.RespondDomainError(w, r, h.logger, domain.NewValidationError("file", "could not read file"))
		return
	}

	p, err := h.service.Upload(r.Context(), userID, Upload{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	})
	if err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, p, http.StatusCreated)
}

// SetPrimary handles PUT /api/photos/{photoID}/primary.
// @Summary      Set primary photo
// @Tags         photos
// @Produce      json
// @Security     CSRFToken
// @Param        photoID path string true "Photo ID" format(uuid)
// @Success      200 {object} PhotosResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "Photo not found"
// @Router       /api/photos/{photoID}/primary [put]
func (h *Handler) SetPrimary(w http.ResponseWriter, r *http.Request) {
	userID, photoID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if err := h.service.SetPrimary(r.Context(), userID, photoID); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}
	h.respondList(w, r, userID)
}

// Delete handles DELETE /api/photos/{photoID}.
// @Summary      Delete a photo
// @Description  Deleting the primary photo promotes the oldest remaining one.
// @Tags         photos
// @Produce      json
// @Security     CSRFToken
// @Param        photoID path string true "Photo ID" format(uuid)
// @Success      200 {object} PhotosResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "Photo not found"
// @Router       /api/photos/{photoID} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, photoID, ok := h.ids(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), userID, photoID); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}
	h.respondList(w, r, userID)
}

func (h *Handler) ids(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httputil.RespondDomainError(w, r, h.logger, domain.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	photoID, err := uuid.Parse(chi.URLParam(r, "photoID"))
	if err != nil {
		httputil.RespondDomainError(w, r, h.logger, domain.ErrNotFound)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, photoID, true
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	photos, err := h.service.List(r.Context(), userID)
	if err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}
	httputil.RespondJSON(w, PhotosResponse{Photos: photos}, http.StatusOK)
}

package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/matcha/internal/auth"
	"github.com/redmonkez12/matcha/internal/config"
	"github.com/redmonkez12/matcha/internal/httputil"
	"github.com/redmonkez12/matcha/internal/logging"
	"github.com/redmonkez12/matcha/internal/photo"
	"github.com/redmonkez12/matcha/internal/profile"
	"github.com/redmonkez12/matcha/internal/tag"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth    *auth.Handler
	Session *auth.Middleware
	// CSRF is nil when CSRF protection is disabled.
	CSRF    *auth.CSRF
	Profile *profile.Handler
	Tags    *tag.Handler
	Photos  *photo.Handler
	// UploadDir is served under UploadPrefix when photos are stored on disk.
	UploadDir    string
	UploadPrefix string
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", auth.CSRFHeader},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth)

	// Swagger UI is only mounted in development
	if cfg.Server.IsDevelopment() {
		logger.Info("Swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	if h.UploadDir != "" {
		prefix := "/" + strings.Trim(h.UploadPrefix, "/")
		fs := http.StripPrefix(prefix, http.FileServer(http.Dir(h.UploadDir)))
		r.Get(prefix+"/*", func(w http.ResponseWriter, r *http.Request) {
			// no directory listings
			if strings.HasSuffix(r.URL.Path, "/") {
				http.NotFound(w, r)
				return
			}
			fs.ServeHTTP(w, r)
		})
	}

	r.Route("/api", func(r chi.Router) {
		if h.CSRF != nil {
			r.Get("/csrf", h.CSRF.IssueToken)
		}

		r.Group(func(r chi.Router) {
			if h.CSRF != nil {
				r.Use(h.CSRF.Protect)
			}

			r.Route("/auth", func(r chi.Router) {
				r.Post("/register", h.Auth.Register)
				r.Post("/verify-email", h.Auth.VerifyEmail)
				r.Post("/resend-verification", h.Auth.ResendVerification)
				r.Post("/forgot-password", h.Auth.ForgotPassword)
				r.Post("/reset-password", h.Auth.ResetPassword)
				r.Post("/login", h.Auth.Login)
				r.Post("/logout", h.Auth.Logout)
			})

			r.Group(func(r chi.Router) {
				r.Use(h.Session.RequireSession)

				r.Get("/me", h.Profile.Me)
				r.Put("/profile", h.Profile.Update)

				r.Get("/tags", h.Tags.Search)
				r.Post("/tags/attach", h.Tags.Attach)
				r.Delete("/tags/detach", h.Tags.Detach)

				r.Get("/photos", h.Photos.List)
				r.Post("/photos", h.Photos.Upload)
				r.Put("/photos/{photoID}/primary", h.Photos.SetPrimary)
				r.Delete("/photos/{photoID}", h.Photos.Delete)
			})
		})
	})

	return r
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

package auth

import (
	"context"
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/redmonkez12/matcha/internal/httputil"
	"github.com/redmonkez12/matcha/internal/logging"
	"github.com/redmonkez12/matcha/internal/ratelimit"
)

// RateLimiter throttles unauthenticated endpoints.
type RateLimiter interface {
	AllowIP(ctx context.Context, purpose, ip string) (bool, error)
	AcquireEmailCooldown(ctx context.Context, purpose, email string) (bool, error)
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter RateLimiter
	cookies     Cookies
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter RateLimiter, cookies Cookies, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		cookies:     cookies,
		logger:      logger,
	}
}

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

type RegisterResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// LoginRequest takes a username or an email in Username.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register.
// @Summary      Register a new user
// @Description  Create an account and its profile. A verification email is sent; the account cannot log in until it is verified.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     CSRFToken
// @Param        request body RegisterInput true "Registration details"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email or username already taken"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, ratelimit.PurposeRegister) {
		return
	}

	var req RegisterInput
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	logging.FromContext(r.Context(), h.logger).Info("user registered", "user_id", user.ID)

	httputil.RespondJSON(w, RegisterResponse{
		User:    UserResponse{ID: user.ID, Email: user.Email},
		Message: "Registration successful. Please check your email to verify your account.",
	}, http.StatusCreated)
}

// VerifyEmail handles POST /api/auth/verify-email.
// @Summary      Verify email address
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     CSRFToken
// @Param        request body TokenRequest true "Token from the verification link"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid or expired token"
// @Router       /api/auth/verify-email [post]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Token); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	httputil.RespondMessage(w, "Email verified successfully. You can now login.")
}

// ResendVerification handles POST /api/auth/resend-verification.
// @Summary      Resend verification email
// @Description  Always answers with the same message whether or not the email is registered.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     CSRFToken
// @Param        request body EmailRequest true "Account email"
// @Success      200 {object} httputil.MessageResponse
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /api/auth/resend-verification [post]
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}
	if !h.allow(w, r, ratelimit.PurposeResend) || !h.cooldown(w, r, ratelimit.PurposeResend, req.Email) {
		return
	}

	if err := h.service.ResendVerification(r.Context(), req.Email); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	httputil.RespondMessage(w, "If your email is registered and not verified, a new verification link has been sent.")
}

// ForgotPassword handles POST /api/auth/forgot-password.
// @Summary      Request password reset
// @Description  Always answers with the same message whether or not the email is registered.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     CSRFToken
// @Param        request body EmailRequest true "Account email"
// @Success      200 {object} httputil.MessageResponse
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /api/auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}
	if !h.allow(w, r, ratelimit.PurposeForgot) || !h.cooldown(w, r, ratelimit.PurposeForgot, req.Email) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	httputil.RespondMessage(w, "If an account exists with that email, a password reset link has been sent.")
}

// ResetPassword handles POST /api/auth/reset-password.
// @Summary      Reset password
// @Description  Sets a new password and ends every open session of the account.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     CSRFToken
// @Param        request body ResetPasswordRequest true "Reset token and new password"
// @Success      200 {object} httputil.MessageResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid token or weak password"
// @Router       /api/auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	httputil.RespondMessage(w, "Password reset successfully. You can now login with your new password.")
}

// Login handles POST /api/auth/login and sets the session cookie.
// @Summary      User login
// @Description  Accepts a username or an email. On success the session cookie is set.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     CSRFToken
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} httputil.MessageResponse
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      403 {object} httputil.ErrorResponse "Email not verified"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, ratelimit.PurposeLogin) {
		return
	}

	var req LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.RespondDomainError(w, r, h.logger, err)
		return
	}

	h.cookies.SetSession(w, session.Secret, session.ExpiresAt)
	logging.FromContext(r.Context(), h.logger).Info("user logged in", "user_id", session.UserID)

	httputil.RespondMessage(w, "logged in successfully")
}

// Logout handles POST /api/auth/logout. It always clears the cookie.
// @Summary      User logout
// @Tags         auth
// @Produce      json
// @Security     CSRFToken
// @Success      200 {object} httputil.MessageResponse
// @Router       /api/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if secret := h.cookies.Session(r); secret != "" {
		if err := h.service.Logout(r.Context(), secret); err != nil {
			logging.FromContext(r.Context(), h.logger).Warn("failed to delete session", "error", err)
		}
	}

	h.cookies.ClearSession(w)
	httputil.RespondMessage(w, "logged out")
}

// allow applies the per-IP budget. Limiter errors never block a request.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.FromContext(r.Context(), h.logger)

	ip := clientIP(r)
	ok, err := h.rateLimiter.AllowIP(r.Context(), purpose, ip)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err)
		return true
	}
	if !ok {
		logger.Warn("IP rate limit exceeded", "purpose", purpose, "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeRateLimited, http.StatusTooManyRequests)
		return false
	}
	return true
}

func (h *Handler) cooldown(w http.ResponseWriter, r *http.Request, purpose, email string) bool {
	logger := logging.FromContext(r.Context(), h.logger)

	ok, err := h.rateLimiter.AcquireEmailCooldown(r.Context(), purpose, email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err)
		return true
	}
	if !ok {
		httputil.RespondErrorWithCode(w, "please wait before requesting another email", httputil.CodeRateLimited, http.StatusTooManyRequests)
		return false
	}
	return true
}

// clientIP reads RemoteAddr, which chi's RealIP middleware has already
// replaced with the forwarded address when behind a proxy.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/redmonkez12/matcha/internal/httputil"
	"github.com/redmonkez12/matcha/internal/logging"
)

// CSRFHeader carries the token returned by GET /api/csrf.
const CSRFHeader = "X-CSRF-TOKEN"

var ErrCSRFMismatch = errors.New("invalid csrf token")

// CSRF implements double-submit protection. The cookie holds a random
// nonce; the header holds a PASETO v4.local token (XChaCha20-Poly1305)
// wrapping the same nonce, which only this server can mint.
type CSRF struct {
	key     paseto.V4SymmetricKey
	ttl     time.Duration
	cookies Cookies
	logger  *logging.Logger
}

func NewCSRF(symmetricKey []byte, ttl time.Duration, cookies Cookies, logger *logging.Logger) (*CSRF, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &CSRF{key: key, ttl: ttl, cookies: cookies, logger: logger}, nil
}

// Issue returns a fresh nonce and the token wrapping it.
func (c *CSRF) Issue() (nonce, tokenStr string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	nonce = base64.RawURLEncoding.EncodeToString(b)

	now := time.Now()
	t := paseto.NewToken()
	t.SetIssuedAt(now)
	t.SetExpiration(now.Add(c.ttl))
	t.SetString("nonce", nonce)

	return nonce, t.V4Encrypt(c.key, nil), nil
}

// Verify checks that tokenStr is an unexpired token wrapping nonce.
func (c *CSRF) Verify(tokenStr, nonce string) error {
	if tokenStr == "" || nonce == "" {
		return ErrCSRFMismatch
	}

	parser := paseto.NewParser()
	t, err := parser.ParseV4Local(c.key, tokenStr, nil)
	if err != nil {
		return ErrCSRFMismatch
	}

	wrapped, err := t.GetString("nonce")
	if err != nil {
		return ErrCSRFMismatch
	}
	if subtle.ConstantTimeCompare([]byte(wrapped), []byte(nonce)) != 1 {
		return ErrCSRFMismatch
	}

	return nil
}

// CSRFResponse carries the token to echo in the X-CSRF-TOKEN header.
type CSRFResponse struct {
	Token string `json:"token"`
}

// IssueToken handles GET /api/csrf.
// @Summary      Issue a CSRF token
// @Description  Sets the CSRF cookie and returns the matching token. Send it back in the X-CSRF-TOKEN header on every POST, PUT and DELETE.
// @Tags         auth
// @Produce      json
// @Success      200 {object} CSRFResponse
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/csrf [get]
func (c *CSRF) IssueToken(w http.ResponseWriter, r *http.Request) {
	nonce, tokenStr, err := c.Issue()
	if err != nil {
		httputil.RespondDomainError(w, r, c.logger, fmt.Errorf("failed to issue csrf token: %w", err))
		return
	}

	c.cookies.SetCSRF(w, nonce, c.ttl)
	w.Header().Set("Cache-Control", "no-store")
	httputil.RespondJSON(w, CSRFResponse{Token: tokenStr}, http.StatusOK)
}

// Protect rejects state-changing requests without a matching token.
func (c *CSRF) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if err := c.Verify(r.Header.Get(CSRFHeader), c.cookies.CSRF(r)); err != nil {
			logging.FromContext(r.Context(), c.logger).Warn("csrf check failed", "method", r.Method)
			httputil.RespondErrorWithCode(w, "invalid csrf token", httputil.CodeCSRF, http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

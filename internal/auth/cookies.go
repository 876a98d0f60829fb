package auth

import (
	"net/http"
	"time"
)

// Cookies names and writes the session and CSRF cookies.
type Cookies struct {
	SessionName string
	CSRFName    string
	// Secure marks cookies HTTPS-only; off in development.
	Secure bool
}

func (c Cookies) SetSession(w http.ResponseWriter, secret string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.SessionName,
		Value:    secret,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.SessionName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Session returns the session secret, or "" when the cookie is absent.
func (c Cookies) Session(r *http.Request) string {
	cookie, err := r.Cookie(c.SessionName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (c Cookies) SetCSRF(w http.ResponseWriter, nonce string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.CSRFName,
		Value:    nonce,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (c Cookies) CSRF(r *http.Request) string {
	cookie, err := r.Cookie(c.CSRFName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

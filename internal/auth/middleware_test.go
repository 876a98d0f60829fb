package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/redmonkez12/matcha/internal/domain"
)

func jsonDecode(b []byte, v any) error {
	return json.Unmarshal(b, v)
}

type staticAuthenticator map[string]uuid.UUID

func (a staticAuthenticator) Authenticate(_ context.Context, secret string) (uuid.UUID, error) {
	if id, ok := a[secret]; ok {
		return id, nil
	}
	return uuid.Nil, domain.ErrUnauthorized
}

func TestRequireSession(t *testing.T) {
	userID := uuid.New()
	m := NewMiddleware(staticAuthenticator{"good": userID}, testCookies)

	var seen uuid.UUID
	h := m.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized","code":"UNAUTHORIZED"}`, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "matcha_session", Value: "bad"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: "matcha_session", Value: "good"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, seen)
}

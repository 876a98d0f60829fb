package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/redmonkez12/matcha/docs"
	"github.com/redmonkez12/matcha/internal/auth"
	"github.com/redmonkez12/matcha/internal/blob"
	"github.com/redmonkez12/matcha/internal/config"
	"github.com/redmonkez12/matcha/internal/httputil"
	"github.com/redmonkez12/matcha/internal/logging"
	"github.com/redmonkez12/matcha/internal/photo"
	"github.com/redmonkez12/matcha/internal/profile"
	"github.com/redmonkez12/matcha/internal/ratelimit"
	"github.com/redmonkez12/matcha/internal/store/memstore"
	"github.com/redmonkez12/matcha/internal/tag"
	"github.com/redmonkez12/matcha/internal/token"
)

type linkRecorder struct {
	mu    sync.Mutex
	links map[string]string
}

func (n *linkRecorder) SendVerificationEmail(_ context.Context, to, link string) error {
	return n.record("verify:"+to, link)
}

func (n *linkRecorder) SendPasswordResetEmail(_ context.Context, to, link string) error {
	return n.record("reset:"+to, link)
}

func (n *linkRecorder) record(key, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.links[key] = link
	return nil
}

func (n *linkRecorder) token(t *testing.T, key string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	u, err := url.Parse(n.links[key])
	require.NoError(t, err)
	return u.Query().Get("token")
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
	csrf string
}

func (c *client) do(method, path string, body io.Reader, contentType string) (int, map[string]any) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.csrf != "" {
		req.Header.Set(auth.CSRFHeader, c.csrf)
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(c.t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (c *client) json(method, path string, payload any) (int, map[string]any) {
	c.t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(c.t, err)
		body = bytes.NewReader(b)
	}
	return c.do(method, path, body, "application/json")
}

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

func (c *client) upload(data []byte, contentType string) (int, map[string]any) {
	c.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="me.png"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(c.t, err)
	_, err = part.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())
	return c.do(http.MethodPost, "/api/photos", &body, mw.FormDataContentType())
}

func newTestServer(t *testing.T) (*httptest.Server, *linkRecorder) {
	t.Helper()
	return newTestServerForEnv(t, "dev")
}

func newTestServerForEnv(t *testing.T, env string) (*httptest.Server, *linkRecorder) {
	t.Helper()
	logger := logging.NewNop()
	st := memstore.New()
	notifier := &linkRecorder{links: map[string]string{}}
	cookies := auth.Cookies{SessionName: "matcha_session", CSRFName: "matcha_csrf"}

	authService := auth.NewService(st, token.NewService(nil), notifier,
		auth.Hasher{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16},
		logger, auth.Config{
			VerificationTTL: 24 * time.Hour,
			ResetTTL:        time.Hour,
			SessionTTL:      time.Hour,
			FrontendURL:     "http://localhost:5173",
		})

	csrf, err := auth.NewCSRF([]byte("0123456789abcdef0123456789abcdef"), time.Hour, cookies, logger)
	require.NoError(t, err)

	disk, err := blob.NewDisk(t.TempDir(), "/uploads")
	require.NoError(t, err)

	cfg := &config.Config{Server: config.ServerConfig{Env: env}}
	router := NewRouter(cfg, Handlers{
		Auth:         auth.NewHandler(authService, ratelimit.Noop{}, cookies, logger),
		Session:      auth.NewMiddleware(authService, cookies),
		CSRF:         csrf,
		Profile:      profile.NewHandler(profile.NewService(st), logger),
		Tags:         tag.NewHandler(tag.NewService(st), logger),
		Photos:       photo.NewHandler(photo.NewService(st, disk, logger), logger),
		UploadDir:    disk.Dir(),
		UploadPrefix: disk.PublicPrefix(),
	}, logger)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, notifier
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: srv.URL, http: &http.Client{Jar: jar}}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	status, body := c.json(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestSwaggerOnlyInDevelopment(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	doc, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(doc), `"/api/photos/{photoID}/primary"`)
	assert.Contains(t, string(doc), `"X-CSRF-TOKEN"`)
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "script-src 'self'")

	prod, _ := newTestServerForEnv(t, "prod")
	resp, err = prod.Client().Get(prod.URL + "/swagger/doc.json")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnsafeRequestsNeedCSRFToken(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	status, body := c.json(http.MethodPost, "/api/auth/login", map[string]string{"username": "x", "password": "y"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, httputil.CodeCSRF, body["code"])
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t, srv)

	status, _ := c.json(http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestOnboardingFlow(t *testing.T) {
	srv, notifier := newTestServer(t)
	c := newClient(t, srv)

	status, body := c.json(http.MethodGet, "/api/csrf", nil)
	require.Equal(t, http.StatusOK, status)
	c.csrf = body["token"].(string)

	status, body = c.json(http.MethodPost, "/api/auth/register", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"username":   "ada",
		"email":      "a@b.com",
		"password":   "Abcdef1!",
	})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = c.json(http.MethodPost, "/api/auth/register", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"username":   "someone",
		"email":      "A@B.com",
		"password":   "Abcdef1!",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "email", body["field"])

	status, _ = c.json(http.MethodPost, "/api/auth/login", map[string]string{"username": "ada", "password": "Abcdef1!"})
	assert.Equal(t, http.StatusForbidden, status)

	verify := notifier.token(t, "verify:a@b.com")
	status, _ = c.json(http.MethodPost, "/api/auth/verify-email", map[string]string{"token": verify})
	require.Equal(t, http.StatusOK, status)

	status, _ = c.json(http.MethodPost, "/api/auth/verify-email", map[string]string{"token": verify})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = c.json(http.MethodPost, "/api/auth/login", map[string]string{"username": "ada", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.json(http.MethodPost, "/api/auth/login", map[string]string{"username": "ada", "password": "Abcdef1!"})
	require.Equal(t, http.StatusOK, status)

	status, body = c.json(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["is_profile_complete"])

	status, body = c.json(http.MethodPut, "/api/profile", map[string]string{"gender": "female", "preference": "male", "bio": "short"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bio", body["field"])

	status, _ = c.json(http.MethodPut, "/api/profile", map[string]string{"gender": "female", "preference": "male", "bio": "Loves hiking and Go."})
	require.Equal(t, http.StatusOK, status)

	status, body = c.json(http.MethodPost, "/api/tags/attach", map[string][]string{"tags": {"#Hiking", "go"}})
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["tags"], 2)

	status, body = c.json(http.MethodGet, "/api/tags?q=%23hi", nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["tags"], 1)
	assert.Equal(t, "#Hiking", body["tags"].([]any)[0].(map[string]any)["name"])

	status, body = c.json(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["is_profile_complete"])

	status, body = c.upload(pngBytes, "image/png")
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, true, body["is_primary"])
	photoURL := body["url"].(string)

	resp, err := c.http.Get(srv.URL + photoURL)
	require.NoError(t, err)
	served, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, pngBytes, served)

	status, body = c.json(http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["is_profile_complete"])

	status, _ = c.json(http.MethodPost, "/api/auth/logout", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = c.json(http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestPasswordResetRevokesSessions(t *testing.T) {
	srv, notifier := newTestServer(t)
	c := newClient(t, srv)

	_, body := c.json(http.MethodGet, "/api/csrf", nil)
	c.csrf = body["token"].(string)

	status, _ := c.json(http.MethodPost, "/api/auth/register", map[string]string{
		"first_name": "Ada", "last_name": "Lovelace", "username": "ada", "email": "a@b.com", "password": "Abcdef1!",
	})
	require.Equal(t, http.StatusCreated, status)
	status, _ = c.json(http.MethodPost, "/api/auth/verify-email", map[string]string{"token": notifier.token(t, "verify:a@b.com")})
	require.Equal(t, http.StatusOK, status)
	status, _ = c.json(http.MethodPost, "/api/auth/login", map[string]string{"username": "a@b.com", "password": "Abcdef1!"})
	require.Equal(t, http.StatusOK, status)

	status, _ = c.json(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "nobody@b.com"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = c.json(http.MethodPost, "/api/auth/forgot-password", map[string]string{"email": "a@b.com"})
	require.Equal(t, http.StatusOK, status)
	reset := notifier.token(t, "reset:a@b.com")

	status, body = c.json(http.MethodPost, "/api/auth/reset-password", map[string]string{"token": reset, "new_password": "weak"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "new_password", body["field"])

	status, _ = c.json(http.MethodPost, "/api/auth/reset-password", map[string]string{"token": reset, "new_password": "Newpass1!"})
	require.Equal(t, http.StatusOK, status)

	status, _ = c.json(http.MethodGet, "/api/me", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = c.json(http.MethodPost, "/api/auth/login", map[string]string{"username": "ada", "password": "Newpass1!"})
	assert.Equal(t, http.StatusOK, status)
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFieldsInJSONMode(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false)

	logger.WithFields(map[string]any{"user_id": "u-1"}).Info("profile updated")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "profile updated", record["msg"])
	assert.Equal(t, "u-1", record["user_id"])
}

func TestRequestLoggerLevelsByStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false)

	var fromCtx *Logger
	h := middleware.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = FromContext(r.Context(), nil)
		w.WriteHeader(http.StatusNotFound)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/me", nil))

	require.NotNil(t, fromCtx)
	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "request completed", record["msg"])
	assert.EqualValues(t, 404, record["status"])
	assert.NotEmpty(t, record["request_id"])
}

func TestFromContextFallback(t *testing.T) {
	fallback := NewNop()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))
}

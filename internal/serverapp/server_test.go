package serverapp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/config"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Storage.Backend = "memory"

	h, err := NewHandler(Options{Config: cfg, DataDir: t.TempDir()})
	require.NoError(t, err)
	return h
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var b []byte
	if body != nil {
		b, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewHandler_RequiresConfig(t *testing.T) {
	_, err := NewHandler(Options{})
	assert.Error(t, err)
}

func TestNewHandler_RejectsUnknownBackend(t *testing.T) {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	cfg.Storage.Backend = "redis"

	_, err := NewHandler(Options{Config: cfg, DataDir: t.TempDir()})
	assert.Error(t, err)
}

func TestHealthAndReadyEndpoints(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = doJSON(t, h, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouting_TaskLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/tasks", map[string]any{"title": "wired end to end"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rec = doJSON(t, h, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/tasks/"+created.ID+"/toggle", map[string]any{"currentStatus": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodDelete, "/api/tasks/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouting_BatchIsNotSwallowedByTasksSub(t *testing.T) {
	h := newTestHandler(t)

	// An exact /api/tasks/batch registration must win over the /api/tasks/
	// prefix pattern.
	rec := doJSON(t, h, http.MethodPost, "/api/tasks/batch", map[string]any{
		"op":  "delete",
		"ids": []string{"task_missing"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.False(t, out.OK)
}

func TestRouting_PrefsAndStats(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/views", map[string]any{
		"name":    "errands",
		"filters": map[string]any{"tags": []string{"errands"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/views", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/settings/pomodoro", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

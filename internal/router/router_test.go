package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-records/internal/config"
	"github.com/stemsi/student-records/internal/handler"
	"github.com/stemsi/student-records/internal/repository"
	"github.com/stemsi/student-records/internal/response"
	"github.com/stemsi/student-records/internal/service"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := service.NewStudentService(repository.NewMemoryStudentStore(), time.Second, zerolog.Nop())
	return SetupRouter(ctx, cfg, &Handlers{
		Student: handler.NewStudentHandler(svc, zerolog.Nop()),
		Health:  handler.NewHealthHandler(svc),
	}, zerolog.Nop())
}

func testConfig() *config.Config {
	return &config.Config{GinMode: gin.TestMode}
}

func TestAPIRoutes(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	require.NotEmpty(t, w.Header().Get(response.HeaderRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/students", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t, testConfig())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/teachers", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, response.ErrRouteNotFound, body.Code)
}

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"http://localhost:5173"}
	r := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodOptions, "/api/students", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWriteRoutesAreRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 1
	r := newTestRouter(t, cfg)

	body := `{"name":"Amy","age":21,"gender":"F","midterm":70,"final":80}`
	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/students", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	require.Equal(t, http.StatusCreated, post())
	require.Equal(t, http.StatusTooManyRequests, post())

	// Reads stay unlimited.
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/students", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestStaticClient(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>Students</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "script.js"), []byte("console.log(1)"), 0o644))

	cfg := testConfig()
	cfg.StaticDir = dir
	r := newTestRouter(t, cfg)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Students")
	require.Equal(t, "public, max-age=300", w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/script.js", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "console.log(1)", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing.css", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), string(response.ErrRouteNotFound))
}

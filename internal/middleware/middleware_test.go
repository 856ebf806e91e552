package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-records/internal/response"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterRefillsPerInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	require.True(t, rl.allow("1.1.1.1"))
	require.True(t, rl.allow("1.1.1.1"))
	require.False(t, rl.allow("1.1.1.1"))
	require.True(t, rl.allow("2.2.2.2"), "buckets are per IP")

	clock = clock.Add(time.Minute)
	require.True(t, rl.allow("1.1.1.1"))

	clock = clock.Add(10 * time.Minute)
	rl.cleanup()
	require.Empty(t, rl.visitors)
}

func TestRateLimiterMiddlewareRejectsWith429(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := gin.New()
	r.Use(response.RequestIDMiddleware(), NewRateLimiter(ctx, 1, time.Minute).Middleware())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "60", w.Header().Get("Retry-After"))

	var body response.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, response.ErrRateLimitExceeded, body.Code)
	require.NotEmpty(t, body.Error)
}

func brotliRouter(payload string) *gin.Engine {
	r := gin.New()
	r.Use(Brotli())
	r.GET("/data", func(c *gin.Context) { c.String(http.StatusOK, payload) })
	return r
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	payload := strings.Repeat("student-record ", 200)

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=0.9")
	w := httptest.NewRecorder()
	brotliRouter(payload).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	require.Less(t, w.Body.Len(), len(payload))

	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	require.NoError(t, err)
	require.Equal(t, payload, string(plain))
}

func TestBrotliLeavesSmallBodiesAlone(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Accept-Encoding", "br")
	w := httptest.NewRecorder()
	brotliRouter("tiny").ServeHTTP(w, req)

	require.Empty(t, w.Header().Get("Content-Encoding"))
	require.Equal(t, "tiny", w.Body.String())
}

func TestBrotliSkipsClientsWithoutSupport(t *testing.T) {
	payload := strings.Repeat("x", 4096)
	w := httptest.NewRecorder()
	brotliRouter(payload).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/data", nil))

	require.Empty(t, w.Header().Get("Content-Encoding"))
	require.Equal(t, payload, w.Body.String())
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	r := gin.New()
	r.Use(response.RequestIDMiddleware(), RequestLogger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/ok?q=amy", nil)
	req.Header.Set(response.HeaderRequestID, "req-1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	require.Equal(t, "info", first["level"])
	require.Equal(t, "/ok?q=amy", first["path"])
	require.Equal(t, "req-1", first["request_id"])
	require.Equal(t, float64(200), first["status"])
	require.Equal(t, "error", second["level"])
}

func TestCacheHeaders(t *testing.T) {
	r := gin.New()
	r.GET("/static", CacheControl(3600), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fresh", CacheControl(0), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for path, want := range map[string]string{
		"/static": "public, max-age=3600",
		"/fresh":  "no-cache",
		"/api":    "no-store",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, want, w.Header().Get("Cache-Control"), path)
	}
}

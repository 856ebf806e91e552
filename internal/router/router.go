package router

import (
	"context"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/student-records/internal/config"
	"github.com/stemsi/student-records/internal/handler"
	"github.com/stemsi/student-records/internal/middleware"
	"github.com/stemsi/student-records/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Student *handler.StudentHandler
	Health  *handler.HealthHandler
}

// staticMaxAge keeps the browser client fresh across deploys.
const staticMaxAge = 300

// SetupRouter configures the API routes and the optional static client.
// ctx bounds background work such as rate limiter cleanup.
func SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	handlers *Handlers,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// Apply request ID middleware globally so every response includes it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(middleware.Brotli())

	// ─── API ───────────────────────────────────────────────────────────
	api := router.Group("/api")
	api.Use(middleware.NoStore())
	{
		api.GET("/health", handlers.Health.Health)

		// Writes are rate limited per IP when a limit is configured.
		writes := []gin.HandlerFunc{}
		if cfg.RateLimitPerMinute > 0 {
			limiter := middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute)
			writes = append(writes, limiter.Middleware())
		}

		students := api.Group("/students")
		{
			students.GET("", handlers.Student.ListStudents)
			students.GET("/:id", handlers.Student.GetStudent)
			students.POST("", append(writes, handlers.Student.CreateStudent)...)
			students.PUT("/:id", append(writes, handlers.Student.UpdateStudent)...)
			students.DELETE("/:id", append(writes, handlers.Student.DeleteStudent)...)
		}
	}

	// ─── Browser client ────────────────────────────────────────────────
	if cfg.StaticDir != "" {
		router.NoRoute(staticClient(cfg.StaticDir))
	} else {
		router.NoRoute(routeNotFound)
	}

	return router
}

func routeNotFound(c *gin.Context) {
	response.Fail(c, http.StatusNotFound, response.ErrRouteNotFound)
}

// staticClient serves files from dir (index.html at /) for GET and HEAD
// requests outside /api. Everything else is a missing route.
func staticClient(dir string) gin.HandlerFunc {
	fs := gin.Dir(dir, false)
	files := http.FileServer(fs)
	cache := middleware.CacheControl(staticMaxAge)

	return func(c *gin.Context) {
		method := c.Request.Method
		p := c.Request.URL.Path
		if (method != http.MethodGet && method != http.MethodHead) || p == "/api" || strings.HasPrefix(p, "/api/") {
			routeNotFound(c)
			return
		}

		name := path.Clean(p)
		if name == "/" {
			name = "/index.html"
		}
		f, err := fs.Open(name)
		if err != nil {
			routeNotFound(c)
			return
		}
		_ = f.Close()

		cache(c)
		files.ServeHTTP(c.Writer, c.Request)
	}
}

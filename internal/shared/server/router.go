package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"realm-uploads/internal/attachments"
	"realm-uploads/internal/avatars"
	"realm-uploads/internal/emoji"
	"realm-uploads/internal/exports"
	"realm-uploads/internal/onboarding"
	"realm-uploads/internal/realms"
	"realm-uploads/internal/shared/config"
	"realm-uploads/internal/shared/metrics"
	"realm-uploads/internal/shared/server/middleware"
	localstore "realm-uploads/internal/shared/storage/object/local"
	"realm-uploads/internal/users"
)

const (
	rateGroupUpload   = "UPLOAD"
	rateGroupDownload = "DOWNLOAD"
)

// RouterDeps are the handlers mounted under /api/v1. Nil handlers are skipped.
type RouterDeps struct {
	Config            config.Config
	Health            *Health
	UsersHandler      *users.Handler
	AvatarsHandler    *avatars.Handler
	OnboardingHandler *onboarding.Handler
	AttachmentHandler *attachments.Handler
	RealmsHandler     *realms.Handler
	EmojiHandler      *emoji.Handler
	ExportsHandler    *exports.Handler
	// LocalObjects serves the filesystem buckets when OBJECT_STORE=local.
	LocalObjects *localstore.Handler
	RateLimiter  *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	if deps.Health != nil {
		r.GET("/health", deps.Health.Handle)
	}
	r.GET("/metrics", metrics.Handler())
	if deps.LocalObjects != nil {
		deps.LocalObjects.RegisterRoutes(r.Group("/local-objects"))
	}

	authenticated := []gin.HandlerFunc{
		middleware.Auth(deps.Config.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: rateGroupFor,
			Limiter:  deps.RateLimiter,
			Rules: map[string]middleware.RateLimitRule{
				rateGroupUpload:   {Rate: 1, Burst: 20},
				rateGroupDownload: {Rate: 10, Burst: 100},
			},
		}),
	}
	api := r.Group("/api/v1", authenticated...)

	if deps.UsersHandler != nil {
		deps.UsersHandler.RegisterRoutes(api)
	}
	if deps.AvatarsHandler != nil {
		deps.AvatarsHandler.RegisterRoutes(api)
	}
	if deps.OnboardingHandler != nil {
		deps.OnboardingHandler.RegisterRoutes(api)
	}
	if deps.AttachmentHandler != nil {
		deps.AttachmentHandler.RegisterRoutes(api)
		// Message bodies link to /user_uploads/... at the site root.
		deps.AttachmentHandler.RegisterServeRoutes(r.Group("", authenticated...))
	}
	if deps.RealmsHandler != nil {
		deps.RealmsHandler.RegisterRoutes(api)
	}
	if deps.EmojiHandler != nil {
		deps.EmojiHandler.RegisterRoutes(api)
	}
	if deps.ExportsHandler != nil {
		deps.ExportsHandler.RegisterRoutes(api)
	}

	if deps.Config.Env == "dev" {
		if deps.UsersHandler != nil {
			deps.UsersHandler.RegisterDevRoutes(api)
		}
		if deps.RealmsHandler != nil {
			deps.RealmsHandler.RegisterDevRoutes(api)
		}
	}

	return r
}

// rateGroupFor limits writes that carry file bodies and attachment downloads.
func rateGroupFor(c *gin.Context) string {
	switch {
	case c.Request.Method == http.MethodPost:
		return rateGroupUpload
	case c.Request.Method == http.MethodGet && strings.HasSuffix(c.FullPath(), "/user_uploads/:realm_id/*rest"):
		return rateGroupDownload
	default:
		return ""
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}

// Server wraps http.Server with the timeouts the API runs with.
func Server(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

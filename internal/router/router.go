package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/anamnese-api/internal/middleware"
	"github.com/jwalitptl/anamnese-api/pkg/metrics"
)

// Handler registers a group of routes under /api.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// OperationalHandler registers routes at the root, outside /api.
type OperationalHandler interface {
	RegisterRoutes(gin.IRoutes)
}

type RouterConfig struct {
	Mode       string
	Logger     zerolog.Logger
	CORSConfig middleware.CORSConfig
	RateLimit  middleware.RateLimitConfig
	Timeout    middleware.TimeoutConfig
	SizeLimit  middleware.SizeLimitConfig
	Security   middleware.SecurityConfig
	Compress   middleware.CompressConfig
}

type Router struct {
	engine *gin.Engine
}

func NewRouter(config RouterConfig, m *metrics.Metrics, operational []OperationalHandler, handlers ...Handler) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()
	// no proxy in front by default; ClientIP uses the socket address
	_ = engine.SetTrustedProxies(nil)

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(config.Logger),
		middleware.Metrics(m),
		middleware.CORS(config.CORSConfig),
		middleware.SecurityHeaders(config.Security),
		middleware.Compress(config.Compress),
	)

	for _, h := range operational {
		h.RegisterRoutes(engine)
	}

	api := engine.Group("/api")
	api.Use(
		middleware.NewRateLimiter(config.RateLimit).RateLimit(),
		middleware.SizeLimit(config.SizeLimit),
		middleware.Timeout(config.Timeout),
	)
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}

	return &Router{engine: engine}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

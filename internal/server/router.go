package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourorg/signal-service/internal/handler"
	"github.com/yourorg/signal-service/internal/middleware"
)

// Handlers groups the HTTP handlers served by the router
type Handlers struct {
	Health *handler.HealthHandler
	Signal *handler.SignalHandler
	Auth   *handler.AuthHandler
}

// RouterConfig holds router level options
type RouterConfig struct {
	RateLimitEnabled  bool
	RequestsPerMinute int
	BurstSize         int
}

// NewRouter builds the gin engine with middleware and routes
func NewRouter(h Handlers, tokens middleware.TokenValidator, cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	router.GET("/", h.Health.Root)
	router.GET("/health", h.Health.Health)

	api := router.Group("/api")
	{
		api.POST("/trading-signal", h.Signal.GetTradingSignal)

		auth := api.Group("/auth")
		if cfg.RateLimitEnabled {
			auth.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RequestsPerMinute, cfg.BurstSize)))
		}
		{
			auth.POST("/telegram", h.Auth.TelegramAuth)
			auth.POST("/send-verification", h.Auth.SendVerification)
			auth.GET("/verify", h.Auth.Verify)
			auth.GET("/me", middleware.AuthMiddleware(tokens, logger), h.Auth.Me)
		}
	}

	return router
}

package handler

import (
	"log/slog"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/partyplanner/backend/internal/config"
	"github.com/partyplanner/backend/internal/metrics"
	"github.com/partyplanner/backend/internal/ratelimit"
	"github.com/partyplanner/backend/internal/service"
)

// RouterDeps carries everything NewRouter wires into the engine.
type RouterDeps struct {
	Config   *config.Config
	Auth     *service.AuthService
	DB       Pinger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", csrfHeader}
	corsConfig.ExposeHeaders = []string{csrfHeader, requestIDHeader}
	router.Use(cors.New(corsConfig))

	store := cookie.NewStore([]byte(cfg.CSRF.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Auth.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Auth.CookieSecure,
		SameSite: deps.Auth.CookieConfig().SameSite,
	})
	router.Use(sessions.Sessions(CSRFSessionName, store))

	router.GET("/", Root)
	router.GET("/ping", Ping)
	router.GET("/openapi.json", OpenAPIDoc)
	if deps.DB != nil {
		router.GET("/readyz", Ready(deps.DB, logger))
	}
	if cfg.Server.MetricsEnabled && deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	apiLimiter := ratelimit.NewRequestLimiter(cfg.RateLimit.APIRequests, cfg.RateLimit.APIWindow, cfg.RateLimit.APIMaxClients)
	authHandler := NewAuthHandler(deps.Auth, cfg.CSRF.Enabled, logger)
	auth := router.Group("/api/v1/auth")

	// Login is throttled by the attempt limiter inside AuthService only.
	login := auth.Group("")
	if cfg.CSRF.Enabled {
		login.Use(VerifyCSRF())
	}
	login.POST("/login", authHandler.Login)

	throttled := auth.Group("")
	throttled.Use(RateLimit(apiLimiter, deps.Metrics))
	throttled.GET("/config", authHandler.Config)
	throttled.GET("/csrf", CSRFToken)
	throttled.GET("/session", authHandler.Session)
	throttled.GET("/me", AuthMiddleware(deps.Auth), authHandler.Me)

	mutating := throttled.Group("")
	if cfg.CSRF.Enabled {
		mutating.Use(VerifyCSRF())
	}
	mutating.POST("/register", authHandler.Register)
	mutating.POST("/logout", authHandler.Logout)

	return router
}

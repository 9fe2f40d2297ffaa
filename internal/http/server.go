package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/auth"
	"github.com/jmehdipour/billing-sync/internal/config"
	"github.com/jmehdipour/billing-sync/internal/http/middleware"
	"github.com/jmehdipour/billing-sync/internal/repository"
)

// Deps are the components the HTTP surface is wired to.
type Deps struct {
	Ingress    Ingress
	Catalog    CatalogReader
	Customers  CustomerResolver
	Sessions   SessionCreator
	Deliveries repository.DeliveriesRepository // nil when ClickHouse is off
	Redis      *redis.Client                   // nil disables rate limiting
	Verifier   *auth.Verifier
	Registry   *prometheus.Registry
}

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func NewServer(cfg config.Config, logger *zap.Logger, d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.WARN)

	e.Use(echoMid.Recover())
	e.Use(echoMid.RequestLoggerWithConfig(echoMid.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz" || c.Path() == "/metrics"
		},
		LogValuesFunc: func(c echo.Context, v echoMid.RequestLoggerValues) error {
			logger.Debug("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	if cfg.HTTP.BodyLimit != "" {
		e.Use(echoMid.BodyLimit(cfg.HTTP.BodyLimit))
	}

	if d.Registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{})))
	}

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.JWTMiddleware(d.Verifier)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          d.Redis,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:user:",
		Window:         time.Second,
		RetryAfterHint: true,
	})
	adminMW := middleware.AdminKeyMiddleware(cfg.Admin.Keys)

	site := cfg.SiteURL()

	// routes
	api := e.Group("/api")
	api.POST("/webhooks", webhookHandler(d.Ingress, d.Deliveries, logger))
	api.POST("/create-checkout-session", checkoutSessionHandler(d.Customers, d.Sessions, site, logger), authMW, rlMW)
	api.POST("/create-portal-link", portalLinkHandler(d.Customers, d.Sessions, site, logger), authMW, rlMW)

	v1 := e.Group("/v1")
	v1.GET("/products", listProductsHandler(d.Catalog, logger))
	v1.GET("/admin/deliveries", listDeliveriesHandler(d.Deliveries), adminMW)

	return &Server{e: e, log: logger}
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.log.Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

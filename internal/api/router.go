package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/library-system/internal/api/handler"
	"github.com/99minutos/library-system/internal/api/middleware"
	"github.com/99minutos/library-system/internal/core/policy"
	"github.com/99minutos/library-system/internal/core/ports"
)

// Dependencies are the services the router wires into handlers.
type Dependencies struct {
	Auth      ports.AuthService
	Books     ports.BookService
	Purchases ports.PurchaseService
	Tokens    ports.TokenValidator

	// PurchaseRule guards POST /api/books/purchase.
	PurchaseRule policy.Rule
	// Health is pinged by GET /health/ready, keyed by dependency name.
	Health map[string]handler.PingFunc
	// Registry receives the HTTP metrics and backs GET /metrics.
	// Defaults to the global Prometheus registry.
	Registry *prometheus.Registry

	Logger zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	// Outside the request logger, which renders errors, so the recorded status is the real one.
	e.Use(prometheusMiddleware(deps.Registry))
	e.Use(requestLogger(deps.Logger))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	bookHandler := handler.NewBookHandler(deps.Books)
	purchaseHandler := handler.NewPurchaseHandler(deps.Purchases)
	healthHandler := handler.NewHealthHandler(deps.Health)
	requireAuth := middleware.Auth(deps.Tokens)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/assign-admin", authHandler.AssignAdmin, requireAuth, middleware.Authorize(policy.AssignAdmin))

	// --- Catalog routes (reads are anonymous) ---
	books := e.Group("/api/books")
	books.GET("", bookHandler.List)
	books.GET("/user-books", bookHandler.UserBooks)
	books.GET("/search/:name", bookHandler.Search)
	books.GET("/:id", bookHandler.Get)

	manage := middleware.Authorize(policy.ManageBooks)
	books.POST("", bookHandler.Create, requireAuth, manage)
	books.PUT("/:id", bookHandler.Update, requireAuth, manage)
	books.DELETE("/:id", bookHandler.Delete, requireAuth, manage)

	books.POST("/purchase", purchaseHandler.Purchase, requireAuth, middleware.Authorize(deps.PurchaseRule))

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", metricsHandler(deps.Registry))

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func prometheusMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: "library",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(cfg)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}

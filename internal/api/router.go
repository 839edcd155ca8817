package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/sirpyerre/discussion-api/docs"
	"github.com/sirpyerre/discussion-api/internal/api/handler"
	"github.com/sirpyerre/discussion-api/internal/api/middleware"
	"github.com/sirpyerre/discussion-api/internal/core/execution"
	"github.com/sirpyerre/discussion-api/internal/core/service"
)

// Deps is everything the HTTP surface needs from the composition root.
type Deps struct {
	Ops     *service.Operations
	Runtime *execution.Runtime
	Log     zerolog.Logger
	// Checks are the readiness probes keyed by dependency name.
	Checks    map[string]handler.Check
	RateRPS   float64
	RateBurst int
	KeepAlive time.Duration
	// Registerer receives the HTTP metrics; nil means the default registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(accessLog(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "forum",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Probes, metrics and docs (no execution context) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Checks).Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Operations ---
	v1 := e.Group("/v1", middleware.Caller(d.Runtime))
	if d.RateRPS > 0 {
		v1.Use(middleware.RateLimit(d.RateRPS, d.RateBurst))
	}

	auth := handler.NewAuthHandler(d.Ops)
	v1.POST("/auth/register", auth.Register)
	v1.POST("/auth/login", auth.Login)

	users := handler.NewUserHandler(d.Ops)
	v1.GET("/me", users.Me)
	v1.GET("/users", users.List)
	v1.GET("/users/:id", users.Get)
	v1.GET("/users/:id/posts", users.Posts)
	v1.GET("/users/:id/comments", users.Comments)

	posts := handler.NewPostHandler(d.Ops)
	v1.GET("/posts", posts.List)
	v1.POST("/posts", posts.Create)
	v1.GET("/posts/:id", posts.Get)
	v1.PATCH("/posts/:id", posts.Update)
	v1.DELETE("/posts/:id", posts.Delete)

	comments := handler.NewCommentHandler(d.Ops)
	v1.GET("/posts/:id/comments", comments.List)
	v1.POST("/posts/:id/comments", comments.Create)
	v1.PATCH("/comments/:id", comments.Update)
	v1.DELETE("/comments/:id", comments.Delete)

	subs := handler.NewSubscriptionHandler(d.Ops, d.KeepAlive)
	v1.GET("/subscriptions/posts", subs.PostCreated)
	v1.GET("/subscriptions/comments", subs.CommentAdded)

	return e
}

// accessLog writes one structured line per request.
func accessLog(log zerolog.Logger) echo.MiddlewareFunc {
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
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev = ev.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID)
			if id, ok := c.Get("user_id").(string); ok {
				ev = ev.Str("user_id", id)
			}
			ev.Msg("request")
			return nil
		},
	})
}

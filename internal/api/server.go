// Package api exposes form operations over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"eicrcore/internal/core"
	"eicrcore/internal/maxzs"
)

// DefaultBodyLimit caps request bodies; scan payloads are small JSON documents.
const DefaultBodyLimit = "4M"

// Controller owns the echo instance and the routes under /api/v1.
type Controller struct {
	Echo    *echo.Echo
	Group   *echo.Group
	svc     *core.Service
	calc    *maxzs.Calculator
	metrics http.Handler
	logger  *zap.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger injects a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetricsHandler serves h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(c *Controller) { c.metrics = h }
}

// WithCalculator replaces the max Zs calculator used by the lookup route.
func WithCalculator(calc *maxzs.Calculator) Option {
	return func(c *Controller) {
		if calc != nil {
			c.calc = calc
		}
	}
}

// New builds a controller with its routes registered.
func New(svc *core.Service, opts ...Option) *Controller {
	c := &Controller{
		Echo:   echo.New(),
		svc:    svc,
		calc:   maxzs.New(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Echo.HideBanner = true
	c.Echo.HidePort = true
	c.Echo.HTTPErrorHandler = c.errorHandler
	c.Echo.Use(middleware.Recover())
	c.Echo.Use(middleware.RequestID())
	c.Echo.Use(middleware.BodyLimit(DefaultBodyLimit))
	c.Echo.Use(c.requestLogger())

	c.Echo.GET("/healthz", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics))
	}
	c.Group = c.Echo.Group("/api/v1")
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	g := c.Group
	g.GET("/forms", c.ListForms)
	g.GET("/maxzs", c.LookupMaxZs)
	g.GET("/presets", c.ListPresets)
	g.GET("/openapi.yaml", c.OpenAPI)

	f := g.Group("/forms/:id")
	f.GET("/circuits", c.ListCircuits)
	f.POST("/circuits", c.AddCircuit)
	f.DELETE("/circuits", c.RemoveAll)
	f.PATCH("/circuits/:circuitID", c.UpdateCircuit)
	f.DELETE("/circuits/:circuitID", c.DeleteCircuit)
	f.POST("/undo", c.Undo)
	f.POST("/board-scans", c.ImportBoardScan)
	f.POST("/test-scans", c.ImportTestScan)
	f.POST("/scribbles", c.ImportScribble)
	f.GET("/scans", c.ListScans)
	f.POST("/bulk", c.Bulk)
	f.POST("/commands/:action", c.Command)
	f.GET("/compliance", c.Compliance)
	f.POST("/export", c.Export)
	f.POST("/flush", c.Flush)
}

func (c *Controller) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				c.logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			c.logger.Debug("request", fields...)
			return nil
		},
	})
}

// Start serves on addr until Shutdown is called.
func (c *Controller) Start(addr string) error {
	err := c.Echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server, waiting up to timeout for in-flight requests.
func (c *Controller) Shutdown(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Echo.Shutdown(ctx)
}

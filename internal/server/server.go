// Package server exposes extraction results as a read-only JSON API.
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/pfrederiksen/ski-status/internal/logger"
	"github.com/pfrederiksen/ski-status/internal/metrics"
	"github.com/pfrederiksen/ski-status/internal/resort"
)

// Results is where the API reads extraction results from.
// *scheduler.Scheduler satisfies it.
type Results interface {
	Latest() ([]resort.ExtractionResult, time.Time)
	Refresh(ctx context.Context) []resort.ExtractionResult
}

// Options configures the HTTP app
type Options struct {
	Metrics  *metrics.Metrics
	Logger   *logger.Logger
	Location *time.Location // time zone for timestamps in responses
}

// New creates the fiber app with every route registered.
func New(results Results, opts Options) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	app := fiber.New(fiber.Config{
		AppName:               "ski-status",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			if code >= fiber.StatusInternalServerError {
				opts.Logger.Error("Request failed", logger.Fields{
					"method": c.Method(),
					"path":   c.Path(),
				}, err)
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestLogger(opts.Logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		_, updated := results.Latest()
		body := fiber.Map{
			"status":  "ok",
			"service": "ski-status",
		}
		if !updated.IsZero() {
			body["updated_at"] = updated.In(opts.Location)
		}
		return c.JSON(body)
	})

	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics.Handler()))
	}

	RegisterRoutes(app, results, opts.Location)
	return app
}

// requestLogger logs one line per request at debug level.
func requestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		log.Debug("HTTP request", logger.Fields{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      c.Response().StatusCode(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return err
	}
}

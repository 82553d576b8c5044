package middleware

import (
	"errors"
	"time"

	"mcbarchive/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request counts and latency keyed by the matched route
// pattern, so path parameters do not explode label cardinality.
func (m *Middleware) Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}

		route := "unmatched"
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}

		metrics.RecordAPIRequest(c.Method(), route, status, time.Since(start))
		return err
	}
}

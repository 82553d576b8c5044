package middleware

import (
	"strings"
	"time"

	"mcbarchive/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// DeviceIDHeader identifies the anonymous device casting a vote.
const DeviceIDHeader = "X-Device-ID"

// UpvoteRateLimit caps vote attempts per device, or per client IP when the
// device header is missing, within a one minute window.
func (m *Middleware) UpvoteRateLimit() fiber.Handler {
	limit := m.Config.UpvoteRateLimit
	if limit <= 0 {
		limit = config.DefaultUpvoteRateLimit
	}

	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			if deviceID := strings.TrimSpace(c.Get(DeviceIDHeader)); deviceID != "" {
				return "device:" + deviceID
			}
			return "ip:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			m.log.Function("UpvoteRateLimit").Warn(
				"Upvote rate limit reached",
				"ip", c.IP(),
				"traceID", GetTraceID(c),
			)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate_limited",
			})
		},
	})
}

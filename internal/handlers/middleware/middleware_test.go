package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mcbarchive/config"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceID_GeneratedWhenMissing(t *testing.T) {
	m := New(config.Config{})
	app := fiber.New()
	app.Use(m.TraceID())

	var localID string
	app.Get("/", func(c *fiber.Ctx) error {
		localID = GetTraceID(c)
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	header := resp.Header.Get(TraceIDHeader)
	_, parseErr := uuid.Parse(header)
	assert.NoError(t, parseErr)
	assert.Equal(t, header, localID)
}

func TestTraceID_IncomingHeader(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		echoed   bool
	}{
		{"kept", "req-7f3a", true},
		{"too long replaced", strings.Repeat("a", 129), false},
		{"whitespace replaced", "req 7f3a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(config.Config{})
			app := fiber.New()
			app.Use(m.TraceID())
			app.Get("/", func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(TraceIDHeader, tt.incoming)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			header := resp.Header.Get(TraceIDHeader)
			if tt.echoed {
				assert.Equal(t, tt.incoming, header)
				return
			}
			_, parseErr := uuid.Parse(header)
			assert.NoError(t, parseErr)
		})
	}
}

func TestUpvoteRateLimit_KeyedPerDevice(t *testing.T) {
	m := New(config.Config{UpvoteRateLimit: 1})
	app := fiber.New()
	app.Post("/", m.UpvoteRateLimit(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	send := func(deviceID string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(DeviceIDHeader, deviceID)
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusNoContent, send("device-1"))
	assert.Equal(t, fiber.StatusTooManyRequests, send("device-1"))
	assert.Equal(t, fiber.StatusNoContent, send("device-2"))
}

func TestUpvoteRateLimit_DefaultsWhenUnset(t *testing.T) {
	m := New(config.Config{})
	assert.NotNil(t, m.UpvoteRateLimit())
}

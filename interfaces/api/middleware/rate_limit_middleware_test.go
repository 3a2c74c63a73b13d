package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safesight/pkg/config"
)

func newLimitedApp(handler fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(handler)
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	cfg := &config.RateLimitConfig{
		Enabled:       true,
		MaxRequests:   2,
		WindowSeconds: 60,
	}
	app := newLimitedApp(RateLimiter(cfg))

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.False(t, payload.Success)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", payload.Error.Code)
}

func TestAuthRateLimiter_UsesAuthWindow(t *testing.T) {
	cfg := &config.RateLimitConfig{
		Enabled:           true,
		MaxRequests:       100,
		WindowSeconds:     60,
		AuthMaxRequests:   1,
		AuthWindowSeconds: 60,
	}
	app := newLimitedApp(AuthRateLimiter(cfg))

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "AUTH_RATE_LIMIT_EXCEEDED")
}

func TestRateLimiter_DisabledPassesThrough(t *testing.T) {
	cfg := &config.RateLimitConfig{Enabled: false, MaxRequests: 1, WindowSeconds: 60}
	app := newLimitedApp(RateLimiter(cfg))

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

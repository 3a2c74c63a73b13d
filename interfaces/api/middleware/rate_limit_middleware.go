package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"safesight/pkg/config"
)

func passthrough(c *fiber.Ctx) error {
	return c.Next()
}

// ipLimiter builds a per-client-IP sliding window limiter. Counting is
// per IP rather than per token because the detection ingest endpoints
// are unauthenticated.
func ipLimiter(maxRequests, windowSeconds int, code, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        maxRequests,
		Expiration: time.Duration(windowSeconds) * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error": fiber.Map{
					"code":    code,
					"message": message,
				},
			})
		},
	})
}

// RateLimiter limits all API traffic, including the camera pipelines'
// detection ingest. The window must stay wide enough for a pipeline's
// burst rate; see config.RateLimitConfig defaults.
func RateLimiter(cfg *config.RateLimitConfig) fiber.Handler {
	if !cfg.Enabled {
		return passthrough
	}
	return ipLimiter(cfg.MaxRequests, cfg.WindowSeconds,
		"RATE_LIMIT_EXCEEDED", "Too many requests. Please try again later.")
}

// AuthRateLimiter is a tighter limiter for the login endpoint.
func AuthRateLimiter(cfg *config.RateLimitConfig) fiber.Handler {
	if !cfg.Enabled {
		return passthrough
	}
	return ipLimiter(cfg.AuthMaxRequests, cfg.AuthWindowSeconds,
		"AUTH_RATE_LIMIT_EXCEEDED", "Too many authentication attempts. Please try again later.")
}

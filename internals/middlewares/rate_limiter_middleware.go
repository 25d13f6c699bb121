package middlewares

import (
	"time"

	helper "horseclub_backend/internals/helpers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Global limiter for regular endpoints
func GlobalRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, "too many requests, try again later")
		},
	})
}

// Stricter limiter for the login routes
func LoginRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, "too many login attempts, try again in a minute")
		},
	})
}

package middlewares

import (
	"fmt"

	"horseclub_backend/internals/configs"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// RecoveryMiddleware turns panics into a 500
func RecoveryMiddleware() fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			configs.Log.WithFields(map[string]interface{}{
				"method":     c.Method(),
				"path":       c.Path(),
				"request_id": c.Locals("request_id"),
			}).Error(fmt.Sprintf("panic: %v", e))
		},
	})
}

// middlewares/cors.go

package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const corsMethods = "GET,POST,PUT,PATCH,DELETE,OPTIONS"

// CorsMiddleware: the admin frontend may come from any origin; the token travels in a header.
// Every OPTIONS request stops here with 200; preflights also get the CORS headers.
func CorsMiddleware() fiber.Handler {
	handler := cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  corsMethods,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		ExposeHeaders: "Content-Disposition, X-Request-ID",
		MaxAge:        600,
	})

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodOptions {
			return handler(c)
		}
		if c.Get(fiber.HeaderOrigin) != "" && c.Get(fiber.HeaderAccessControlRequestMethod) != "" {
			// preflight: cors writes the headers and a 204
			if err := handler(c); err != nil {
				return err
			}
			c.Response().ResetBody()
		} else {
			c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
			c.Set(fiber.HeaderAllow, corsMethods)
		}
		return c.SendStatus(fiber.StatusOK)
	}
}

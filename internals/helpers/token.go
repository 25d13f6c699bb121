// helpers/token.go
package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// raw JWT stored in Locals by the auth middleware
const LocRawToken = "raw_token"

// GetRawAccessToken returns the access token from:
// 1) Locals("raw_token") set by the middleware
// 2) Authorization header "Bearer <token>"
// 3) cookie "access_token"
func GetRawAccessToken(c *fiber.Ctx) string {
	if v, ok := c.Locals(LocRawToken).(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	fields := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(fields) == 2 && strings.EqualFold(fields[0], "Bearer") {
		return strings.Trim(fields[1], "\"'")
	}
	return strings.TrimSpace(c.Cookies("access_token"))
}

func SetRawAccessToken(c *fiber.Ctx, raw string) {
	if strings.TrimSpace(raw) != "" {
		c.Locals(LocRawToken, raw)
	}
}

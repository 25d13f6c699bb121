package middlewares

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func corsApp() *fiber.App {
	app := fiber.New()
	app.Use(CorsMiddleware())
	app.Get("/api/horses", func(c *fiber.Ctx) error { return c.SendString("horses") })
	return app
}

func TestCorsPreflightReturns200(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodOptions, "/api/horses", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://stable.example.com")
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, fiber.MethodPatch)

	resp, err := corsApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowMethods), "PATCH")
}

func TestCorsPlainOptionsShortCircuits(t *testing.T) {
	resp, err := corsApp().Test(httptest.NewRequest(fiber.MethodOptions, "/api/unknown", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

func TestCorsSimpleRequestPassesThrough(t *testing.T) {
	req := httptest.NewRequest(fiber.MethodGet, "/api/horses", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://stable.example.com")

	resp, err := corsApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}

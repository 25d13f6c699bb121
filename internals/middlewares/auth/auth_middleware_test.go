package auth

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"horseclub_backend/internals/constants"
	helper "horseclub_backend/internals/helpers"
)

const testSecret = "test-secret"

type fakeGuard struct {
	blacklisted map[string]bool
	active      map[uuid.UUID]bool
}

func (g fakeGuard) IsBlacklisted(_ context.Context, token string) (bool, error) {
	return g.blacklisted[token], nil
}

func (g fakeGuard) IsActive(_ context.Context, id uuid.UUID) (bool, error) {
	active, ok := g.active[id]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	return active, nil
}

func sign(t *testing.T, secret string, id uuid.UUID, role string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":        id.String(),
		"role":      role,
		"user_name": "stable-office",
		"exp":       exp.Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newApp(guard TokenGuard) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: helper.FiberErrorHandler})
	mw := AuthWithGuard(guard, func() string { return testSecret })
	app.Get("/me", mw, func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(string) + "|" + c.Locals("userRole").(string))
	})
	app.Get("/audit", mw, OnlyRoles(constants.RoleErrorAdmin("audit logs"), constants.AdminOnly...), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthWithGuard(t *testing.T) {
	admin, trainer, inactive, ghost := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	revoked := sign(t, testSecret, admin, constants.RoleAdmin, now.Add(2*time.Hour))
	guard := fakeGuard{
		blacklisted: map[string]bool{revoked: true},
		active:      map[uuid.UUID]bool{admin: true, trainer: true, inactive: false},
	}
	app := newApp(guard)

	cases := []struct {
		name   string
		path   string
		header string
		cookie string
		want   int
	}{
		{"no token", "/me", "", "", fiber.StatusUnauthorized},
		{"bad scheme", "/me", "Token abc", "", fiber.StatusUnauthorized},
		{"valid", "/me", "Bearer " + sign(t, testSecret, admin, constants.RoleAdmin, now.Add(time.Hour)), "", fiber.StatusOK},
		{"cookie fallback", "/me", "", sign(t, testSecret, trainer, constants.RoleTrainer, now.Add(time.Hour)), fiber.StatusOK},
		{"wrong secret", "/me", "Bearer " + sign(t, "other", admin, constants.RoleAdmin, now.Add(time.Hour)), "", fiber.StatusUnauthorized},
		{"expired", "/me", "Bearer " + sign(t, testSecret, admin, constants.RoleAdmin, now.Add(-time.Hour)), "", fiber.StatusUnauthorized},
		{"blacklisted", "/me", "Bearer " + revoked, "", fiber.StatusUnauthorized},
		{"deactivated", "/me", "Bearer " + sign(t, testSecret, inactive, constants.RoleAdmin, now.Add(time.Hour)), "", fiber.StatusForbidden},
		{"unknown account", "/me", "Bearer " + sign(t, testSecret, ghost, constants.RoleAdmin, now.Add(time.Hour)), "", fiber.StatusUnauthorized},
		{"admin only ok", "/audit", "Bearer " + sign(t, testSecret, admin, constants.RoleAdmin, now.Add(time.Hour)), "", fiber.StatusNoContent},
		{"admin only forbidden", "/audit", "Bearer " + sign(t, testSecret, trainer, constants.RoleTrainer, now.Add(time.Hour)), "", fiber.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.Header.Set("Cookie", "access_token="+tc.cookie)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestAuthWithGuardStoresClaims(t *testing.T) {
	id := uuid.New()
	app := newApp(fakeGuard{active: map[uuid.UUID]bool{id: true}})

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, testSecret, id, constants.RoleAccountant, time.Now().Add(time.Hour)))
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, id.String()+"|"+constants.RoleAccountant, string(body))
}

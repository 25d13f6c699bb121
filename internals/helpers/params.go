package helper

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ResolveID reads the entity id from the :id path param, falling back to ?id=
// so the flat routes (/api/billing-charges-void?id=...) share handlers with the REST ones.
func ResolveID(c *fiber.Ctx) (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Params("id"))
	if raw == "" {
		raw = strings.TrimSpace(c.Query("id"))
	}
	if raw == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "missing id")
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// QueryUUID parses an optional UUID query param. ok is false when absent;
// err is non-nil when present but malformed.
func QueryUUID(c *fiber.Ctx, key string) (id uuid.UUID, ok bool, err error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return uuid.Nil, false, nil
	}
	id, err = uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false, fiber.NewError(fiber.StatusBadRequest, key+" is not a valid uuid")
	}
	return id, true, nil
}

// QueryDate parses an optional YYYY-MM-DD (or RFC3339) query param.
func QueryDate(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, key+" must be YYYY-MM-DD")
	}
	return &t, nil
}

// WriteFiberError writes a *fiber.Error with its own status; anything else is a 500.
func WriteFiberError(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return JsonError(c, fe.Code, fe.Message)
	}
	return JsonError(c, fiber.StatusInternalServerError, err.Error())
}

// TrimPtr returns nil for nil or blank strings.
func TrimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

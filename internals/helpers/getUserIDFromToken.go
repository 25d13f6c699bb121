package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetUserIDFromToken reads user_id from c.Locals("user_id").
// 401 when not logged in, 400 when the id is malformed.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	v := c.Locals("user_id")
	if v == nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "not logged in")
	}

	switch t := v.(type) {
	case uuid.UUID:
		if t == uuid.Nil {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "not logged in")
		}
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "not logged in")
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "user id in token is invalid")
		}
		return id, nil
	default:
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "user id in token is invalid")
	}
}

// Actor identifies who performed a mutation, for audit rows.
type Actor struct {
	ID        *uuid.UUID
	Name      string
	IP        string
	UserAgent string
}

// GetActor collects the actor from the auth locals and the request. Never fails:
// unauthenticated calls yield an actor without ID.
func GetActor(c *fiber.Ctx) Actor {
	a := Actor{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	if id, err := GetUserIDFromToken(c); err == nil {
		a.ID = &id
	}
	if name, ok := c.Locals("user_name").(string); ok {
		a.Name = name
	}
	return a
}

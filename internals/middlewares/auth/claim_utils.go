// internals/middlewares/auth/claims_utils.go
package auth

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* ======== Extractors ======== */

func extractBearerToken(c *fiber.Ctx) (string, error) {
	// 1) Authorization header, falling back to the cookie
	auth := strings.TrimSpace(c.Get("Authorization"))
	if auth == "" {
		if cookieTok := c.Cookies("access_token"); cookieTok != "" {
			auth = "Bearer " + cookieTok
		}
	}
	if auth == "" {
		return "", fmt.Errorf("unauthorized - no token provided")
	}

	// 2) robust split: tolerates double spaces, case-insensitive
	fields := strings.Fields(auth)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", fmt.Errorf("unauthorized - invalid token format")
	}

	// 3) strip surrounding quotes
	tok := strings.Trim(strings.TrimSpace(fields[1]), "\"'")
	if tok == "" {
		return "", fmt.Errorf("unauthorized - empty token")
	}
	return tok, nil
}

func validateTokenExpiry(claims jwt.MapClaims, skew time.Duration) error {
	expVal, ok := claims["exp"]
	if !ok {
		return fmt.Errorf("token has no exp")
	}

	var expUnix int64
	switch t := expVal.(type) {
	case float64:
		expUnix = int64(t)
	case int64:
		expUnix = t
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid exp format")
		}
		expUnix = n
	default:
		return fmt.Errorf("invalid exp type %T", t)
	}

	expTime := time.Unix(expUnix, 0).UTC()
	if time.Now().UTC().After(expTime.Add(skew)) {
		return fmt.Errorf("token expired at %v", expTime)
	}
	return nil
}

func extractUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	idRaw, ok := claims["id"]
	if !ok {
		return uuid.Nil, fmt.Errorf("no user id")
	}
	s, ok := idRaw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("invalid user id type")
	}
	return uuid.Parse(strings.TrimSpace(s))
}

func ensureAdminActive(ctx context.Context, db *gorm.DB, userID uuid.UUID) (bool, error) {
	var row struct {
		IsActive bool
	}
	if err := db.WithContext(ctx).Table("admins").Select("is_active").Where("id = ?", userID).First(&row).Error; err != nil {
		return false, err
	}
	return row.IsActive, nil
}

/* ======== Store claims to Locals ======== */

func storeBasicClaimsToLocals(c *fiber.Ctx, claims jwt.MapClaims) {
	if role, ok := claims["role"].(string); ok {
		c.Locals("userRole", role)
	}
	if userName, ok := claims["user_name"].(string); ok {
		c.Locals("user_name", userName)
	}
}

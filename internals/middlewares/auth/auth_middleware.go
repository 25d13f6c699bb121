// internals/middlewares/auth/auth_middleware.go
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"horseclub_backend/internals/configs"
	authRepo "horseclub_backend/internals/features/users/auth/repository"
	helper "horseclub_backend/internals/helpers"
)

const expirySkew = 30 * time.Second

// TokenGuard answers the two DB questions the middleware asks per request.
type TokenGuard interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	// IsActive returns gorm.ErrRecordNotFound for unknown accounts.
	IsActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

type gormGuard struct{ db *gorm.DB }

func (g gormGuard) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return authRepo.IsTokenBlacklisted(ctx, g.db, token)
}

func (g gormGuard) IsActive(ctx context.Context, userID uuid.UUID) (bool, error) {
	return ensureAdminActive(ctx, g.db, userID)
}

func AuthMiddleware(db *gorm.DB) fiber.Handler {
	return AuthWithGuard(gormGuard{db: db}, func() string { return configs.JWTSecret })
}

// AuthWithGuard verifies the bearer token (or access_token cookie) and stores
// user_id, userRole and user_name in Locals.
func AuthWithGuard(guard TokenGuard, secret func() string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := configs.Log.WithField("path", c.Path())

		// 1) Authorization (or cookie)
		tokenString, err := extractBearerToken(c)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		// 2) parse & verify JWT
		secretKey := secret()
		if secretKey == "" {
			log.Error("JWT_SECRET kosong")
			return fiber.NewError(fiber.StatusInternalServerError, "missing JWT secret")
		}

		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true, ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
		if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		}); err != nil {
			log.WithError(err).Debug("token parse failed")
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized - invalid token")
		}

		// 3) exp check
		if err := validateTokenExpiry(claims, expirySkew); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized - token expired")
		}

		// 4) blacklist check (once per request)
		ctx := c.UserContext()
		if c.Locals("token_checked") == nil {
			black, err := guard.IsBlacklisted(ctx, tokenString)
			if err != nil {
				log.WithError(err).Error("blacklist lookup failed")
				return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
			}
			if black {
				return fiber.NewError(fiber.StatusUnauthorized, "unauthorized - token is blacklisted")
			}
			c.Locals("token_checked", true)
		}

		// 5) user_id + active account check
		userID, err := extractUserID(claims)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unauthorized - invalid or missing user id")
		}
		active, err := guard.IsActive(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusUnauthorized, "unauthorized - user not found")
			}
			log.WithError(err).Error("account lookup failed")
			return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
		}
		if !active {
			return fiber.NewError(fiber.StatusForbidden, "account is deactivated")
		}

		// 6) store claims in Locals
		c.Locals("user_id", userID.String())
		helper.SetRawAccessToken(c, tokenString)
		storeBasicClaimsToLocals(c, claims)

		return c.Next()
	}
}

package service

import (
	"errors"
	"strings"
	"time"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"horseclub_backend/internals/configs"
	authModel "horseclub_backend/internals/features/users/auth/model"
	authRepo "horseclub_backend/internals/features/users/auth/repository"
	helpers "horseclub_backend/internals/helpers"
)

const accessTTLDefault = 12 * time.Hour

/* ==========================
   Small Helpers
========================== */

func nowUTC() time.Time { return time.Now().UTC() }

func accessTTL() time.Duration {
	if configs.Cfg.JWTAccessTTL > 0 {
		return time.Duration(configs.Cfg.JWTAccessTTL) * time.Minute
	}
	return accessTTLDefault
}

func getJWTSecret() (string, error) {
	secret := strings.TrimSpace(configs.JWTSecret)
	if secret == "" {
		return "", fiber.NewError(fiber.StatusInternalServerError, "JWT_SECRET is not set")
	}
	return secret, nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

func CheckPasswordHash(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// BuildAccessClaims: claims read by AuthMiddleware (id, user_name, role, exp).
func BuildAccessClaims(a authModel.Admin, now time.Time, ttl time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"id":        a.ID.String(),
		"user_name": a.UserName,
		"role":      a.Role,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}
}

// SignAccessToken signs the claims with HS256.
func SignAccessToken(claims jwt.MapClaims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

/* ==========================
   LOGIN
========================== */

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

func Login(db *gorm.DB, c *fiber.Ctx) error {
	var input loginRequest
	if err := c.BodyParser(&input); err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	input.Identifier = strings.TrimSpace(input.Identifier)
	if err := helpers.Validate.Struct(&input); err != nil {
		return helpers.JsonValidationError(c, err)
	}

	admin, err := authRepo.FindAdminByEmailOrUsername(c.UserContext(), db, input.Identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helpers.JsonError(c, fiber.StatusUnauthorized, "invalid identifier or password")
		}
		return helpers.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	if err := CheckPasswordHash(admin.Password, input.Password); err != nil {
		return helpers.JsonError(c, fiber.StatusUnauthorized, "invalid identifier or password")
	}
	if !admin.IsActive {
		return helpers.JsonError(c, fiber.StatusForbidden, "account is deactivated")
	}

	return issueTokens(c, *admin)
}

/* ==========================
   LOGIN GOOGLE
========================== */

// LoginGoogle only signs in existing staff; the Google account is linked on first use by email.
func LoginGoogle(db *gorm.DB, c *fiber.Ctx) error {
	var input struct {
		IDToken string `json:"id_token" validate:"required"`
	}
	if err := c.BodyParser(&input); err != nil {
		return helpers.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helpers.Validate.Struct(&input); err != nil {
		return helpers.JsonValidationError(c, err)
	}
	if configs.Cfg.GoogleClientID == "" {
		return helpers.JsonError(c, fiber.StatusNotFound, "google login is not configured")
	}

	v := googleAuthIDTokenVerifier.Verifier{}
	if err := v.VerifyIDToken(input.IDToken, []string{configs.Cfg.GoogleClientID}); err != nil {
		return helpers.JsonError(c, fiber.StatusUnauthorized, "invalid google id token")
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(input.IDToken)
	if err != nil {
		return helpers.JsonError(c, fiber.StatusUnauthorized, "failed to decode google id token")
	}

	ctx := c.UserContext()
	admin, err := authRepo.FindAdminByGoogleSub(ctx, db, claimSet.Sub)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		admin, err = authRepo.FindAdminByEmail(ctx, db, claimSet.Email)
		if err == nil {
			if lerr := authRepo.LinkGoogleSub(ctx, db, admin.ID, claimSet.Sub); lerr != nil {
				configs.Log.WithError(lerr).Warn("link google account failed")
			}
		}
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return helpers.JsonError(c, fiber.StatusForbidden, "no staff account for this google user")
		}
		return helpers.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	if !admin.IsActive {
		return helpers.JsonError(c, fiber.StatusForbidden, "account is deactivated")
	}

	return issueTokens(c, *admin)
}

func issueTokens(c *fiber.Ctx, admin authModel.Admin) error {
	secret, err := getJWTSecret()
	if err != nil {
		return helpers.WriteFiberError(c, err)
	}
	now := nowUTC()
	ttl := accessTTL()

	token, err := SignAccessToken(BuildAccessClaims(admin, now, ttl), secret)
	if err != nil {
		return helpers.JsonError(c, fiber.StatusInternalServerError, "failed to sign access token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    token,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
		Path:     "/",
		Expires:  now.Add(ttl),
	})

	return helpers.JsonOK(c, "login successful", fiber.Map{
		"user":         ToAdminResponse(admin),
		"access_token": token,
		"expires_at":   now.Add(ttl),
	})
}

/* ==========================
   LOGOUT
========================== */

func Logout(db *gorm.DB, c *fiber.Ctx) error {
	accessToken := helpers.GetRawAccessToken(c)
	if accessToken != "" {
		ttl := resolveBlacklistTTL(accessToken)
		if err := authRepo.BlacklistToken(c.UserContext(), db, accessToken, ttl); err != nil {
			configs.Log.WithError(err).Warn("failed to blacklist token")
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    "",
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
		Path:     "/",
		Expires:  nowUTC().Add(-time.Hour),
		MaxAge:   -1,
	})
	return helpers.JsonOK(c, "logout successful", nil)
}

// resolveBlacklistTTL keeps the token blacklisted until just after it would expire anyway.
func resolveBlacklistTTL(accessToken string) time.Duration {
	ttl := accessTTL()
	secret, err := getJWTSecret()
	if err != nil {
		return ttl
	}
	claims := jwt.MapClaims{}
	parser := jwt.Parser{SkipClaimsValidation: true}
	if _, err := parser.ParseWithClaims(accessToken, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}); err != nil {
		return ttl
	}
	if exp, ok := claims["exp"].(float64); ok {
		until := time.Until(time.Unix(int64(exp), 0))
		if until > 0 {
			return until + time.Minute
		}
		return time.Minute
	}
	return ttl
}

/* ==========================
   ME
========================== */

type AdminResponse struct {
	ID       uuid.UUID `json:"id"`
	UserName string    `json:"user_name"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
	IsActive bool      `json:"is_active"`
}

func ToAdminResponse(a authModel.Admin) AdminResponse {
	return AdminResponse{
		ID:       a.ID,
		UserName: a.UserName,
		Email:    a.Email,
		FullName: a.FullName,
		Role:     a.Role,
		IsActive: a.IsActive,
	}
}

func Me(db *gorm.DB, c *fiber.Ctx) error {
	userID, err := helpers.GetUserIDFromToken(c)
	if err != nil {
		return helpers.WriteFiberError(c, err)
	}
	admin, err := authRepo.FindAdminByID(c.UserContext(), db, userID)
	if err != nil {
		return helpers.WriteDBError(c, err, "user not found")
	}
	return helpers.JsonOK(c, "ok", ToAdminResponse(*admin))
}

package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"horseclub_backend/internals/configs"
	"horseclub_backend/internals/constants"
	authModel "horseclub_backend/internals/features/users/auth/model"
	authRepo "horseclub_backend/internals/features/users/auth/repository"
	authService "horseclub_backend/internals/features/users/auth/service"
)

// SeedAdmin creates the first admin from SEED_ADMIN_EMAIL / SEED_ADMIN_PASSWORD.
// Skipped when the env is empty or the email already exists.
func SeedAdmin(ctx context.Context, db *gorm.DB, email, password string) {
	log := configs.Log.WithField("seed", "admin")
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		log.Debug("SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD not set, skipped")
		return
	}

	_, err := authRepo.FindAdminByEmail(ctx, db, email)
	if err == nil {
		log.WithField("email", email).Info("admin already exists, skipped")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.WithError(err).Error("lookup admin failed")
		return
	}

	hashed, err := authService.HashPassword(password)
	if err != nil {
		log.WithError(err).Error("hash password failed")
		return
	}
	userName := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		userName = email[:i]
	}
	admin := &authModel.Admin{
		UserName: userName,
		Email:    email,
		Password: hashed,
		FullName: "Administrator",
		Role:     constants.RoleAdmin,
		IsActive: true,
	}
	if err := authRepo.CreateAdmin(ctx, db, admin); err != nil {
		log.WithError(err).Error("insert admin failed")
		return
	}
	log.WithField("email", email).Info("admin seeded")
}

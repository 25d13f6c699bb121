// internals/features/users/auth/repository/auth_repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	authModel "horseclub_backend/internals/features/users/auth/model"
)

/* ====================== ADMIN ====================== */

func FindAdminByEmailOrUsername(ctx context.Context, db *gorm.DB, identifier string) (*authModel.Admin, error) {
	var a authModel.Admin
	if err := db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?) OR user_name = ?", identifier, identifier).
		First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func FindAdminByGoogleSub(ctx context.Context, db *gorm.DB, sub string) (*authModel.Admin, error) {
	var a authModel.Admin
	if err := db.WithContext(ctx).Where("google_sub = ?", sub).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func FindAdminByEmail(ctx context.Context, db *gorm.DB, email string) (*authModel.Admin, error) {
	var a authModel.Admin
	if err := db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func FindAdminByID(ctx context.Context, db *gorm.DB, id uuid.UUID) (*authModel.Admin, error) {
	var a authModel.Admin
	if err := db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func LinkGoogleSub(ctx context.Context, db *gorm.DB, id uuid.UUID, sub string) error {
	return db.WithContext(ctx).Model(&authModel.Admin{}).
		Where("id = ?", id).
		Update("google_sub", sub).Error
}

func CreateAdmin(ctx context.Context, db *gorm.DB, a *authModel.Admin) error {
	return db.WithContext(ctx).Create(a).Error
}

/* ====================== BLACKLIST TOKEN ====================== */

// BlacklistToken is idempotent: a second logout with the same token is a no-op.
func BlacklistToken(ctx context.Context, db *gorm.DB, token string, ttl time.Duration) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&authModel.TokenBlacklist{
			Token:     token,
			ExpiredAt: time.Now().UTC().Add(ttl),
		}).Error
}

func IsTokenBlacklisted(ctx context.Context, db *gorm.DB, token string) (bool, error) {
	var exists bool
	err := db.WithContext(ctx).
		Raw(`SELECT EXISTS(SELECT 1 FROM token_blacklist WHERE token = ? AND deleted_at IS NULL)`, token).
		Scan(&exists).Error
	return exists, err
}

// CleanupExpiredBlacklist hard-deletes rows that expired before the cutoff.
func CleanupExpiredBlacklist(ctx context.Context, db *gorm.DB, before time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM token_blacklist WHERE expired_at < ?`, before)
	return res.RowsAffected, res.Error
}

package scheduler

import (
	"context"
	"time"

	"horseclub_backend/internals/configs"
	authRepo "horseclub_backend/internals/features/users/auth/repository"

	"gorm.io/gorm"
)

// StartBlacklistCleanupScheduler purges expired blacklist rows once a day
// until ctx is cancelled.
func StartBlacklistCleanupScheduler(ctx context.Context, db *gorm.DB) {
	ttlDays := configs.Cfg.BlacklistTTLDays
	if ttlDays <= 0 {
		ttlDays = 7
	}
	log := configs.Log.WithField("component", "blacklist-cleanup")

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			deleteBefore := time.Now().UTC().Add(-time.Duration(ttlDays) * 24 * time.Hour)
			n, err := authRepo.CleanupExpiredBlacklist(ctx, db, deleteBefore)
			switch {
			case err != nil:
				log.WithError(err).Warn("cleanup failed")
			case n > 0:
				log.WithField("deleted", n).Info("expired tokens removed")
			default:
				log.Debug("nothing to clean")
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

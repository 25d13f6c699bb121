package seeds

import (
	"context"
	"time"

	"gorm.io/gorm"

	"horseclub_backend/internals/configs"
	pricingRules "horseclub_backend/internals/seeds/pricing/rules"
	authSeed "horseclub_backend/internals/seeds/users/auth"
)

func RunAllSeeds(db *gorm.DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	//* First admin
	authSeed.SeedAdmin(ctx, db, configs.Cfg.SeedAdminEmail, configs.Cfg.SeedAdminPassword)

	//* Pricing
	pricingRules.SeedPricingRulesFromJSON(ctx, db, "internals/seeds/pricing/rules/data_pricing_rules.json")
}

package rules

import (
	"context"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"horseclub_backend/internals/configs"
	pricingModel "horseclub_backend/internals/features/finance/pricing/model"
	helper "horseclub_backend/internals/helpers"
)

type PricingRuleSeed struct {
	Name            string  `json:"name"`
	Priority        int     `json:"priority"`
	Discipline      *string `json:"discipline"`
	MinDurationMin  *int    `json:"min_duration_min"`
	MaxDurationMin  *int    `json:"max_duration_min"`
	BaseAmountCents int64   `json:"base_amount_cents"`
	PerMinuteCents  int64   `json:"per_minute_cents"`
	Currency        string  `json:"currency"`
}

// SeedPricingRulesFromJSON only runs while pricing_rules is empty.
func SeedPricingRulesFromJSON(ctx context.Context, db *gorm.DB, filePath string) {
	log := configs.Log.WithField("seed", "pricing_rules")

	var count int64
	if err := db.WithContext(ctx).Model(&pricingModel.PricingRule{}).Count(&count).Error; err != nil {
		log.WithError(err).Error("count pricing rules failed")
		return
	}
	if count > 0 {
		log.Debug("pricing rules present, skipped")
		return
	}

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.WithError(err).WithField("file", filePath).Warn("seed file not readable")
		return
	}
	var seeds []PricingRuleSeed
	if err := sonic.Unmarshal(file, &seeds); err != nil {
		log.WithError(err).Error("decode seed file failed")
		return
	}

	rows := make([]pricingModel.PricingRule, 0, len(seeds))
	for _, s := range seeds {
		cur := strings.ToUpper(strings.TrimSpace(s.Currency))
		if cur == "" {
			cur = configs.Cfg.DefaultCurrency
		}
		var disc *string
		if s.Discipline != nil {
			d := helper.NormalizeDiscipline(*s.Discipline)
			disc = &d
		}
		rows = append(rows, pricingModel.PricingRule{
			Name:            s.Name,
			IsActive:        true,
			Priority:        s.Priority,
			Discipline:      disc,
			MinDurationMin:  s.MinDurationMin,
			MaxDurationMin:  s.MaxDurationMin,
			BaseAmountCents: s.BaseAmountCents,
			PerMinuteCents:  s.PerMinuteCents,
			Currency:        cur,
		})
	}
	if len(rows) == 0 {
		return
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		log.WithError(err).Error("insert pricing rules failed")
		return
	}
	log.WithField("count", len(rows)).Info("pricing rules seeded")
}

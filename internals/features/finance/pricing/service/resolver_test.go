package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pricingModel "horseclub_backend/internals/features/finance/pricing/model"
)

type staticRules []pricingModel.PricingRule

func (s staticRules) ActiveRules(context.Context, string) ([]pricingModel.PricingRule, error) {
	return s, nil
}

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func rule(name string, prio int, mut ...func(*pricingModel.PricingRule)) pricingModel.PricingRule {
	r := pricingModel.PricingRule{
		ID:        uuid.New(),
		Name:      name,
		IsActive:  true,
		Priority:  prio,
		Currency:  "EUR",
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, m := range mut {
		m(&r)
	}
	return r
}

func TestMatches(t *testing.T) {
	rider := uuid.New()
	horse := uuid.New()
	in := ChargeContext{Discipline: "Dressage", DurationMin: 45, RiderID: &rider, HorseID: &horse, Currency: "EUR"}

	cases := []struct {
		name string
		rule pricingModel.PricingRule
		want bool
	}{
		{"catch-all", rule("all", 100), true},
		{"discipline case-insensitive", rule("d", 1, func(r *pricingModel.PricingRule) { r.Discipline = strp("dressage") }), true},
		{"other discipline", rule("j", 1, func(r *pricingModel.PricingRule) { r.Discipline = strp("jumping") }), false},
		{"min duration inclusive", rule("min", 1, func(r *pricingModel.PricingRule) { r.MinDurationMin = intp(45) }), true},
		{"too short", rule("min", 1, func(r *pricingModel.PricingRule) { r.MinDurationMin = intp(60) }), false},
		{"too long", rule("max", 1, func(r *pricingModel.PricingRule) { r.MaxDurationMin = intp(30) }), false},
		{"same rider", rule("r", 1, func(r *pricingModel.PricingRule) { r.RiderID = &rider }), true},
		{"other rider", rule("r", 1, func(r *pricingModel.PricingRule) { id := uuid.New(); r.RiderID = &id }), false},
		{"other horse", rule("h", 1, func(r *pricingModel.PricingRule) { id := uuid.New(); r.HorseID = &id }), false},
		{"other currency", rule("usd", 1, func(r *pricingModel.PricingRule) { r.Currency = "USD" }), false},
		{"inactive", rule("off", 1, func(r *pricingModel.PricingRule) { r.IsActive = false }), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Matches(tc.rule, in))
		})
	}
}

func TestMatchingRules_Order(t *testing.T) {
	rider := uuid.New()
	in := ChargeContext{Discipline: "jumping", DurationMin: 60, RiderID: &rider, Currency: "EUR"}

	generic := rule("generic", 10)
	specific := rule("specific", 10, func(r *pricingModel.PricingRule) {
		r.Discipline = strp("jumping")
		r.RiderID = &rider
	})
	older := rule("older", 5)
	newer := rule("newer", 5, func(r *pricingModel.PricingRule) { r.CreatedAt = r.CreatedAt.Add(time.Hour) })

	got := MatchingRules([]pricingModel.PricingRule{generic, newer, specific, older}, in)
	names := make([]string, 0, len(got))
	for _, r := range got {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"older", "newer", "specific", "generic"}, names)
}

func TestComputeCharge(t *testing.T) {
	ctx := context.Background()

	t.Run("base plus per minute", func(t *testing.T) {
		r := rule("lesson", 1, func(r *pricingModel.PricingRule) {
			r.BaseAmountCents = 1500
			r.PerMinuteCents = 40
		})
		res, err := ComputeCharge(ctx, staticRules{r}, ChargeContext{DurationMin: 30, Currency: "eur"}, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1500+40*30), res.AmountCents)
		assert.Equal(t, "EUR", res.Currency)
		require.NotNil(t, res.PricingRuleID)
		assert.Equal(t, r.ID, *res.PricingRuleID)
		assert.Equal(t, "lesson", res.ComputedDetails.RuleName)
		assert.False(t, res.ComputedDetails.Fallback)
	})

	t.Run("negative amount clamps to zero", func(t *testing.T) {
		r := rule("discount", 1, func(r *pricingModel.PricingRule) { r.BaseAmountCents = -500 })
		res, err := ComputeCharge(ctx, staticRules{r}, ChargeContext{DurationMin: 30, Currency: "EUR"}, 0)
		require.NoError(t, err)
		assert.Zero(t, res.AmountCents)
		assert.True(t, res.ComputedDetails.Clamped)
		assert.Equal(t, int64(-500), res.ComputedDetails.RawAmountCents)
	})

	t.Run("fallback when nothing matches", func(t *testing.T) {
		res, err := ComputeCharge(ctx, staticRules{}, ChargeContext{DurationMin: 30, Currency: "EUR"}, 2000)
		require.NoError(t, err)
		assert.Equal(t, int64(2000), res.AmountCents)
		assert.Nil(t, res.PricingRuleID)
		assert.True(t, res.ComputedDetails.Fallback)
	})
}

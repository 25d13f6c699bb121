package service

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	pricingModel "horseclub_backend/internals/features/finance/pricing/model"
)

// ChargeContext is what a charge is priced on.
type ChargeContext struct {
	Discipline  string     `json:"discipline"`
	DurationMin int        `json:"duration_min"`
	RiderID     *uuid.UUID `json:"rider_id,omitempty"`
	HorseID     *uuid.UUID `json:"horse_id,omitempty"`
	Currency    string     `json:"currency"`
}

// ChargeDetails is stored on the charge as computed_details.
type ChargeDetails struct {
	Input           ChargeContext `json:"input"`
	RuleName        string        `json:"rule_name,omitempty"`
	RulePriority    *int          `json:"rule_priority,omitempty"`
	BaseAmountCents int64         `json:"base_amount_cents"`
	PerMinuteCents  int64         `json:"per_minute_cents"`
	RawAmountCents  int64         `json:"raw_amount_cents"`
	Clamped         bool          `json:"clamped,omitempty"`
	Fallback        bool          `json:"fallback,omitempty"`
	Candidates      int           `json:"candidates"`
}

type ChargeResult struct {
	AmountCents     int64         `json:"amount_cents"`
	Currency        string        `json:"currency"`
	PricingRuleID   *uuid.UUID    `json:"pricing_rule_id"`
	ComputedDetails ChargeDetails `json:"computed_details"`
}

// RuleSource lists active rules for a currency.
type RuleSource interface {
	ActiveRules(ctx context.Context, currency string) ([]pricingModel.PricingRule, error)
}

type GormRuleSource struct{ DB *gorm.DB }

func (s GormRuleSource) ActiveRules(ctx context.Context, currency string) ([]pricingModel.PricingRule, error) {
	var rules []pricingModel.PricingRule
	err := s.DB.WithContext(ctx).
		Where("is_active = TRUE AND currency = ?", strings.ToUpper(currency)).
		Order("priority ASC, created_at ASC, id ASC").
		Find(&rules).Error
	return rules, err
}

// ComputeCharge prices in with the best matching active rule, or with
// fallbackCents when nothing matches.
func ComputeCharge(ctx context.Context, src RuleSource, in ChargeContext, fallbackCents int64) (ChargeResult, error) {
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	rules, err := src.ActiveRules(ctx, in.Currency)
	if err != nil {
		return ChargeResult{}, errors.Wrap(err, "load pricing rules")
	}

	candidates := MatchingRules(rules, in)
	if len(candidates) == 0 {
		amount := fallbackCents
		if amount < 0 {
			amount = 0
		}
		return ChargeResult{
			AmountCents: amount,
			Currency:    in.Currency,
			ComputedDetails: ChargeDetails{
				Input:           in,
				BaseAmountCents: amount,
				RawAmountCents:  fallbackCents,
				Clamped:         fallbackCents < 0,
				Fallback:        true,
			},
		}, nil
	}

	rule := candidates[0]
	raw := rule.BaseAmountCents + rule.PerMinuteCents*int64(in.DurationMin)
	amount := raw
	if amount < 0 {
		amount = 0
	}
	id := rule.ID
	prio := rule.Priority
	return ChargeResult{
		AmountCents:   amount,
		Currency:      in.Currency,
		PricingRuleID: &id,
		ComputedDetails: ChargeDetails{
			Input:           in,
			RuleName:        rule.Name,
			RulePriority:    &prio,
			BaseAmountCents: rule.BaseAmountCents,
			PerMinuteCents:  rule.PerMinuteCents,
			RawAmountCents:  raw,
			Clamped:         raw < 0,
			Candidates:      len(candidates),
		},
	}, nil
}

// MatchingRules filters rules that apply to in and orders them best first:
// priority asc, specificity desc, created_at asc, id asc.
func MatchingRules(rules []pricingModel.PricingRule, in ChargeContext) []pricingModel.PricingRule {
	out := make([]pricingModel.PricingRule, 0, len(rules))
	for _, r := range rules {
		if Matches(r, in) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if sa, sb := Specificity(a), Specificity(b); sa != sb {
			return sa > sb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
	return out
}

func Matches(r pricingModel.PricingRule, in ChargeContext) bool {
	if !r.IsActive {
		return false
	}
	if !strings.EqualFold(r.Currency, in.Currency) {
		return false
	}
	if r.RiderID != nil && (in.RiderID == nil || *r.RiderID != *in.RiderID) {
		return false
	}
	if r.HorseID != nil && (in.HorseID == nil || *r.HorseID != *in.HorseID) {
		return false
	}
	if r.Discipline != nil && !strings.EqualFold(strings.TrimSpace(*r.Discipline), strings.TrimSpace(in.Discipline)) {
		return false
	}
	if r.MinDurationMin != nil && in.DurationMin < *r.MinDurationMin {
		return false
	}
	if r.MaxDurationMin != nil && in.DurationMin > *r.MaxDurationMin {
		return false
	}
	return true
}

// Specificity counts the concrete filters of a rule.
func Specificity(r pricingModel.PricingRule) int {
	n := 0
	if r.RiderID != nil {
		n++
	}
	if r.HorseID != nil {
		n++
	}
	if r.Discipline != nil {
		n++
	}
	if r.MinDurationMin != nil {
		n++
	}
	if r.MaxDurationMin != nil {
		n++
	}
	return n
}

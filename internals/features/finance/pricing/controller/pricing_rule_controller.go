package controller

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	auditService "horseclub_backend/internals/features/audit/logs/service"
	"horseclub_backend/internals/features/finance/pricing/dto"
	"horseclub_backend/internals/features/finance/pricing/model"
	pricingService "horseclub_backend/internals/features/finance/pricing/service"
	helper "horseclub_backend/internals/helpers"
)

const entityPricingRule = "pricing_rule"

type PricingRuleController struct {
	DB              *gorm.DB
	Audit           auditService.Auditor
	DefaultCurrency string
	FallbackCents   int64
}

func NewPricingRuleController(db *gorm.DB, audit auditService.Auditor, currency string, fallbackCents int64) *PricingRuleController {
	if currency == "" {
		currency = "EUR"
	}
	return &PricingRuleController{DB: db, Audit: audit, DefaultCurrency: currency, FallbackCents: fallbackCents}
}

var ruleSort = map[string]string{
	"priority":   "priority",
	"name":       "name",
	"created_at": "created_at",
}

// GET /api/pricing-rules?is_active=&discipline=&currency=
func (ctl *PricingRuleController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "priority", "asc", helper.AdminOpts)
	q := ctl.DB.WithContext(c.UserContext()).Model(&model.PricingRule{})

	if v := strings.TrimSpace(c.Query("is_active")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "is_active must be true/false")
		}
		q = q.Where("is_active = ?", b)
	}
	if d := strings.TrimSpace(c.Query("discipline")); d != "" {
		q = q.Where("discipline = ?", helper.NormalizeDiscipline(d))
	}
	if cur := strings.TrimSpace(c.Query("currency")); cur != "" {
		q = q.Where("currency = ?", strings.ToUpper(cur))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	rows := make([]model.PricingRule, 0)
	if err := q.Order(p.OrderClause(ruleSort, "priority")).Order("created_at ASC").
		Limit(p.Limit()).Offset(p.Offset()).
		Find(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonList(c, rows, helper.BuildMeta(total, p))
}

func (ctl *PricingRuleController) Get(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var m model.PricingRule
	if err := ctl.DB.WithContext(c.UserContext()).First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "pricing rule not found")
	}
	return helper.JsonOK(c, "ok", m)
}

// POST /api/pricing-rules
func (ctl *PricingRuleController) Create(c *fiber.Ctx) error {
	var req dto.CreatePricingRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	m := req.ToModel(ctl.DefaultCurrency)
	if !dto.ValidRange(m) {
		return helper.JsonError(c, fiber.StatusBadRequest, "min_duration_min must not exceed max_duration_min")
	}
	if err := ctl.DB.WithContext(c.UserContext()).Create(&m).Error; err != nil {
		return helper.WriteDBError(c, err, "pricing rule not found")
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionCreate,
		EntityType: entityPricingRule,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		After:      m,
	})
	return helper.JsonCreated(c, "pricing rule created", m)
}

// PATCH /api/pricing-rules/:id
// Existing charges are not repriced.
func (ctl *PricingRuleController) Update(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var req dto.UpdatePricingRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	db := ctl.DB.WithContext(c.UserContext())
	var m model.PricingRule
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "pricing rule not found")
	}
	before := m
	req.Apply(&m)
	if m.Name == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "name cannot be empty")
	}
	if !dto.ValidRange(m) {
		return helper.JsonError(c, fiber.StatusBadRequest, "min_duration_min must not exceed max_duration_min")
	}
	if err := db.Save(&m).Error; err != nil {
		return helper.WriteDBError(c, err, "pricing rule not found")
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionUpdate,
		EntityType: entityPricingRule,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		Before:     before,
		After:      m,
	})
	return helper.JsonUpdated(c, "pricing rule updated", m)
}

// DELETE /api/pricing-rules/:id (409 once a charge uses it; deactivate instead)
func (ctl *PricingRuleController) Delete(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	db := ctl.DB.WithContext(c.UserContext())
	var m model.PricingRule
	if err := db.First(&m, "id = ?", id).Error; err != nil {
		return helper.WriteDBError(c, err, "pricing rule not found")
	}
	if err := db.Delete(&model.PricingRule{}, "id = ?", id).Error; err != nil {
		if helper.IsForeignKeyViolation(err) {
			return helper.JsonError(c, fiber.StatusConflict, "pricing rule is used by billing charges; deactivate it instead")
		}
		return helper.WriteDBError(c, err, "pricing rule not found")
	}

	ctl.Audit.Log(c.UserContext(), auditService.Entry{
		Action:     auditService.ActionDelete,
		EntityType: entityPricingRule,
		EntityID:   &m.ID,
		Actor:      helper.GetActor(c),
		Before:     m,
	})
	return helper.JsonDeleted(c, "pricing rule deleted", fiber.Map{"id": m.ID})
}

// POST /api/pricing-rules/preview: price a training without saving anything.
func (ctl *PricingRuleController) Preview(c *fiber.Ctx) error {
	var req dto.PreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}
	currency := ctl.DefaultCurrency
	if req.Currency != nil {
		currency = *req.Currency
	}

	res, err := pricingService.ComputeCharge(c.UserContext(), pricingService.GormRuleSource{DB: ctl.DB}, pricingService.ChargeContext{
		Discipline:  helper.NormalizeDiscipline(req.Discipline),
		DurationMin: req.DurationMin,
		RiderID:     req.RiderID,
		HorseID:     req.HorseID,
		Currency:    currency,
	}, ctl.FallbackCents)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "ok", res)
}

package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/features/finance/charges/dto"
	"horseclub_backend/internals/features/finance/charges/model"
	chargeService "horseclub_backend/internals/features/finance/charges/service"
	helper "horseclub_backend/internals/helpers"
)

type BillingChargeController struct {
	DB      *gorm.DB
	Charges *chargeService.Service
}

func NewBillingChargeController(db *gorm.DB, charges *chargeService.Service) *BillingChargeController {
	return &BillingChargeController{DB: db, Charges: charges}
}

var chargeSort = map[string]string{
	"created_at":    "billing_charges.created_at",
	"paid_at":       "billing_charges.paid_at",
	"amount_cents":  "billing_charges.amount_cents",
	"training_date": "t.training_date",
}

const chargeListSelect = `billing_charges.*,
	NULLIF(TRIM(COALESCE(r.first_name, '') || ' ' || COALESCE(r.last_name, '')), '') AS rider_name,
	h.name AS horse_name, t.training_date AS training_date`

func (ctl *BillingChargeController) baseQuery(c *fiber.Ctx) *gorm.DB {
	return ctl.DB.WithContext(c.UserContext()).
		Model(&model.BillingCharge{}).
		Joins("LEFT JOIN riders r ON r.id = billing_charges.rider_id").
		Joins("LEFT JOIN horses h ON h.id = billing_charges.horse_id").
		Joins("LEFT JOIN trainings t ON t.id = billing_charges.training_id")
}

// GET /api/billing-charges?status=&rider_id=&horse_id=&from=&to=&q=
// from/to filter on the training date (created_at for charges without a training).
func (ctl *BillingChargeController) List(c *fiber.Ctx) error {
	p := helper.ParseFiber(c, "created_at", "desc", helper.DefaultOpts)
	q := ctl.baseQuery(c)

	if s := strings.ToLower(strings.TrimSpace(c.Query("status"))); s != "" {
		q = q.Where("billing_charges.status = ?", s)
	}
	for _, key := range []string{"rider_id", "horse_id", "training_id"} {
		id, ok, err := helper.QueryUUID(c, key)
		if err != nil {
			return helper.WriteFiberError(c, err)
		}
		if ok {
			q = q.Where("billing_charges."+key+" = ?", id)
		}
	}
	from, err := helper.QueryDate(c, "from")
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	to, err := helper.QueryDate(c, "to")
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	if from != nil {
		q = q.Where("COALESCE(t.training_date, billing_charges.created_at::date) >= ?", from.Format("2006-01-02"))
	}
	if to != nil {
		q = q.Where("COALESCE(t.training_date, billing_charges.created_at::date) <= ?", to.Format("2006-01-02"))
	}
	if s := strings.TrimSpace(c.Query("q")); s != "" {
		like := "%" + s + "%"
		q = q.Where(`billing_charges.note ILIKE ? OR billing_charges.paid_reference ILIKE ?
			OR h.name ILIKE ? OR (r.first_name || ' ' || r.last_name) ILIKE ?`, like, like, like, like)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	rows := make([]dto.ChargeListItem, 0)
	if err := q.Select(chargeListSelect).
		Order(p.OrderClause(chargeSort, "created_at")).
		Limit(p.Limit()).Offset(p.Offset()).
		Scan(&rows).Error; err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonList(c, rows, helper.BuildMeta(total, p))
}

// GET /api/billing-charges/:id
func (ctl *BillingChargeController) Get(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var row dto.ChargeListItem
	res := ctl.baseQuery(c).Select(chargeListSelect).Where("billing_charges.id = ?", id).Limit(1).Scan(&row)
	if res.Error != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return helper.JsonError(c, fiber.StatusNotFound, chargeService.ErrChargeNotFound.Error())
	}
	return helper.JsonOK(c, "ok", row)
}

// PATCH /api/billing-charges/:id (note / paid_reference only)
func (ctl *BillingChargeController) Patch(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var in chargeService.PatchInput
	if err := c.BodyParser(&in); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := helper.Validate.Struct(in); err != nil {
		return helper.JsonValidationError(c, err)
	}
	ch, err := ctl.Charges.Update(c.UserContext(), id, in, helper.GetActor(c))
	if err != nil {
		return chargeService.WriteError(c, err)
	}
	return helper.JsonUpdated(c, "charge updated", ch)
}

// DELETE /api/billing-charges/:id
func (ctl *BillingChargeController) Delete(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	ch, err := ctl.Charges.Delete(c.UserContext(), id, helper.GetActor(c))
	if err != nil {
		return chargeService.WriteError(c, err)
	}
	return helper.JsonDeleted(c, "charge deleted", fiber.Map{"id": ch.ID})
}

// POST /api/billing-charges/:id/mark-paid  (alias /api/billing-charges-mark-paid?id=)
func (ctl *BillingChargeController) MarkPaid(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var in chargeService.MarkPaidInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := helper.Validate.Struct(in); err != nil {
		return helper.JsonValidationError(c, err)
	}

	ch, idempotent, err := ctl.Charges.MarkPaid(c.UserContext(), id, in, helper.GetActor(c))
	if err != nil {
		return chargeService.WriteError(c, err)
	}
	msg := "charge marked as paid"
	if idempotent {
		msg = "charge already paid"
	}
	return helper.JsonOK(c, msg, dto.MarkPaidResponse{Charge: ch, Idempotent: idempotent})
}

// POST /api/billing-charges/:id/void  (alias /api/billing-charges-void?id=)
func (ctl *BillingChargeController) Void(c *fiber.Ctx) error {
	id, err := helper.ResolveID(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	var req dto.VoidChargeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	if err := helper.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	ch, err := ctl.Charges.Void(c.UserContext(), id, req.Reason, helper.GetActor(c))
	if err != nil {
		return chargeService.WriteError(c, err)
	}
	return helper.JsonOK(c, "charge voided", ch)
}

package controller

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/configs"
	reportService "horseclub_backend/internals/features/finance/reports/service"
	helper "horseclub_backend/internals/helpers"
	"horseclub_backend/internals/helpers/dbtime"
)

const maxReportDays = 366

type ReportController struct {
	DB  *gorm.DB
	Loc *time.Location
	Now func() time.Time
}

func NewReportController(db *gorm.DB, loc *time.Location) *ReportController {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportController{DB: db, Loc: loc, Now: time.Now}
}

// parsePeriod: defaults to the current month (club timezone).
func (ctl *ReportController) parsePeriod(c *fiber.Ctx) (reportService.Period, error) {
	today := dbtime.DateOf(ctl.Now(), ctl.Loc)
	p := reportService.Period{From: dbtime.FirstOfMonth(today), To: today}
	from, err := helper.QueryDate(c, "from")
	if err != nil {
		return p, err
	}
	to, err := helper.QueryDate(c, "to")
	if err != nil {
		return p, err
	}
	if from != nil {
		p.From = *from
	}
	if to != nil {
		p.To = *to
	}
	if p.To.Before(p.From) {
		return p, fiber.NewError(fiber.StatusBadRequest, "to must not be before from")
	}
	if p.To.Sub(p.From) > maxReportDays*24*time.Hour {
		return p, fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("period is limited to %d days", maxReportDays))
	}
	return p, nil
}

// GET /api/reports/cashdesk?from=&to=
func (ctl *ReportController) Cashdesk(c *fiber.Ctx) error {
	p, err := ctl.parsePeriod(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	rep, err := reportService.Cashdesk(c.UserContext(), ctl.DB, p, ctl.Loc)
	if err != nil {
		configs.Log.WithError(err).Error("cashdesk report failed")
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	return helper.JsonOK(c, "ok", rep)
}

// GET /api/reports/billing.csv?from=&to=&status=
func (ctl *ReportController) BillingCSV(c *fiber.Ctx) error {
	p, err := ctl.parsePeriod(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))

	rows, err := reportService.LoadBillingRows(c.UserContext(), ctl.DB, p, status)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	var buf bytes.Buffer
	if err := reportService.WriteBillingCSV(&buf, rows, ctl.Loc); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to write csv")
	}

	name := fmt.Sprintf("billing_%s_%s.csv", p.From.Format("20060102"), p.To.Format("20060102"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(buf.Bytes())
}

// GET /api/reports/official-pack.zip?from=&to=
func (ctl *ReportController) OfficialPack(c *fiber.Ctx) error {
	p, err := ctl.parsePeriod(c)
	if err != nil {
		return helper.WriteFiberError(c, err)
	}
	pack, err := reportService.LoadOfficialPack(c.UserContext(), ctl.DB, p)
	if err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, err.Error())
	}
	var buf bytes.Buffer
	if err := reportService.WriteOfficialPack(&buf, pack, ctl.Now().In(ctl.Loc)); err != nil {
		return helper.JsonError(c, fiber.StatusInternalServerError, "failed to build zip")
	}

	name := fmt.Sprintf("official_pack_%s_%s.zip", p.From.Format("20060102"), p.To.Format("20060102"))
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(buf.Bytes())
}

package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/configs"
	"horseclub_backend/internals/constants"
	auditService "horseclub_backend/internals/features/audit/logs/service"
	"horseclub_backend/internals/features/finance/pricing/controller"
	authMiddleware "horseclub_backend/internals/middlewares/auth"
)

func PricingRuleRoutes(api fiber.Router, db *gorm.DB, audit auditService.Auditor) {
	ctl := controller.NewPricingRuleController(db, audit, configs.Cfg.DefaultCurrency, configs.Cfg.PricingDefaultAmountCents)
	finance := authMiddleware.OnlyRoles(constants.RoleErrorFinance("pricing rules"), constants.FinanceRoles...)

	g := api.Group("/pricing-rules")
	g.Get("/", ctl.List)
	g.Post("/preview", ctl.Preview)
	g.Get("/:id", ctl.Get)
	g.Post("/", finance, ctl.Create)
	g.Patch("/:id", finance, ctl.Update)
	g.Delete("/:id", finance, ctl.Delete)

	api.Get("/pricing-rules-id", ctl.Get)
	api.Patch("/pricing-rules-id", finance, ctl.Update)
	api.Delete("/pricing-rules-id", finance, ctl.Delete)
	api.Post("/pricing-rules-preview", ctl.Preview)
}

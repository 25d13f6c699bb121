package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/constants"
	"horseclub_backend/internals/features/finance/charges/controller"
	chargeService "horseclub_backend/internals/features/finance/charges/service"
	authMiddleware "horseclub_backend/internals/middlewares/auth"
)

func BillingChargeRoutes(api fiber.Router, db *gorm.DB, charges *chargeService.Service) {
	ctl := controller.NewBillingChargeController(db, charges)
	finance := authMiddleware.OnlyRoles(constants.RoleErrorFinance("billing charges"), constants.FinanceRoles...)

	// per-route middleware: Group(prefix, mw) would also catch the /billing-charges-* aliases
	g := api.Group("/billing-charges")
	g.Get("/", finance, ctl.List)
	g.Get("/:id", finance, ctl.Get)
	g.Patch("/:id", finance, ctl.Patch)
	g.Delete("/:id", finance, ctl.Delete)
	g.Post("/:id/mark-paid", finance, ctl.MarkPaid)
	g.Post("/:id/void", finance, ctl.Void)

	api.Get("/billing-charges-id", finance, ctl.Get)
	api.Patch("/billing-charges-id", finance, ctl.Patch)
	api.Delete("/billing-charges-id", finance, ctl.Delete)
	api.Post("/billing-charges-mark-paid", finance, ctl.MarkPaid)
	api.Post("/billing-charges-void", finance, ctl.Void)
}

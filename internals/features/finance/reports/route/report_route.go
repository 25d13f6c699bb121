package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/configs"
	"horseclub_backend/internals/constants"
	"horseclub_backend/internals/features/finance/reports/controller"
	authMiddleware "horseclub_backend/internals/middlewares/auth"
)

func ReportRoutes(api fiber.Router, db *gorm.DB) {
	ctl := controller.NewReportController(db, configs.ClubLocation())
	finance := authMiddleware.OnlyRoles(constants.RoleErrorFinance("reports"), constants.FinanceRoles...)

	g := api.Group("/reports")
	g.Get("/cashdesk", finance, ctl.Cashdesk)
	g.Get("/billing.csv", finance, ctl.BillingCSV)
	g.Get("/official-pack.zip", finance, ctl.OfficialPack)
}

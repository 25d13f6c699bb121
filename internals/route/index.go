package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/configs"
	auditRoute "horseclub_backend/internals/features/audit/logs/route"
	auditService "horseclub_backend/internals/features/audit/logs/service"
	horseRoute "horseclub_backend/internals/features/club/horses/route"
	riderRoute "horseclub_backend/internals/features/club/riders/route"
	trainerRoute "horseclub_backend/internals/features/club/trainers/route"
	chargeRoute "horseclub_backend/internals/features/finance/charges/route"
	chargeService "horseclub_backend/internals/features/finance/charges/service"
	pricingRoute "horseclub_backend/internals/features/finance/pricing/route"
	reportRoute "horseclub_backend/internals/features/finance/reports/route"
	notificationRoute "horseclub_backend/internals/features/notifications/route"
	bookingRoute "horseclub_backend/internals/features/training/bookings/route"
	trainingService "horseclub_backend/internals/features/training/service"
	slotRoute "horseclub_backend/internals/features/training/slots/route"
	trainingRoute "horseclub_backend/internals/features/training/trainings/route"
	authRoute "horseclub_backend/internals/features/users/auth/route"
	"horseclub_backend/internals/helpers/storage"
	authMiddleware "horseclub_backend/internals/middlewares/auth"
)

var startTime time.Time

// Deps are the long-lived services shared by the feature routes.
type Deps struct {
	Audit    auditService.Auditor
	Training *trainingService.Service
	Charges  *chargeService.Service
	Files    *storage.LocalStore
}

func SetupRoutes(app *fiber.App, db *gorm.DB, deps Deps) {
	startTime = time.Now()
	log := configs.Log.WithField("component", "routes")

	BaseRoutes(app, db)
	app.Static(deps.Files.PublicPrefix, deps.Files.Dir, fiber.Static{
		Compress: true,
		MaxAge:   86400,
	})

	api := app.Group("/api")

	// ===================== AUTH =====================
	log.Info("Setting up AuthRoutes...")
	authRoute.AuthRoutes(api, db)

	// ===================== PROTECTED =====================
	// everything below needs a token; roles are checked per route
	protected := api.Group("", authMiddleware.AuthMiddleware(db))

	log.Info("Setting up club registries...")
	horseRoute.HorseRoutes(protected, db, deps.Audit, deps.Files)
	riderRoute.RiderRoutes(protected, db, deps.Audit)
	trainerRoute.TrainerRoutes(protected, db, deps.Audit)

	log.Info("Setting up training flow...")
	slotRoute.TrainingSlotRoutes(protected, db, deps.Audit, deps.Training)
	bookingRoute.TrainingBookingRoutes(protected, db, deps.Training)
	trainingRoute.TrainingRoutes(protected, db, deps.Audit)

	log.Info("Setting up finance...")
	pricingRoute.PricingRuleRoutes(protected, db, deps.Audit)
	chargeRoute.BillingChargeRoutes(protected, db, deps.Charges)
	reportRoute.ReportRoutes(protected, db)

	log.Info("Setting up audit & notifications...")
	auditRoute.AuditLogRoutes(protected, db)
	notificationRoute.NotificationRoutes(protected, db)
}

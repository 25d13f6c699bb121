package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"horseclub_backend/internals/features/notifications/controller"
)

func NotificationRoutes(api fiber.Router, db *gorm.DB) {
	ctl := controller.NewNotificationController(db)

	g := api.Group("/notifications")
	g.Get("/", ctl.List)
	g.Post("/read-all", ctl.MarkAllRead)
	g.Post("/:id/read", ctl.MarkRead)

	api.Post("/notifications-read", ctl.MarkRead)
}

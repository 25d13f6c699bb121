// file: internals/features/users/auth/route/user_route.go
package route

import (
	controller "horseclub_backend/internals/features/users/auth/controller"
	"horseclub_backend/internals/middlewares"
	authMiddleware "horseclub_backend/internals/middlewares/auth"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// AuthRoutes: /api/auth/login* is public, the rest needs a token.
func AuthRoutes(api fiber.Router, db *gorm.DB) {
	ctrl := controller.NewAuthController(db)

	baseAuth := api.Group("/auth")
	baseAuth.Post("/login", middlewares.LoginRateLimiter(), ctrl.Login)
	baseAuth.Post("/login-google", middlewares.LoginRateLimiter(), ctrl.LoginGoogle)

	requireAuth := authMiddleware.AuthMiddleware(db)
	baseAuth.Post("/logout", requireAuth, ctrl.Logout)
	baseAuth.Get("/me", requireAuth, ctrl.Me)
}

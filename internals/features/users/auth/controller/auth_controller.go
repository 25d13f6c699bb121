package controller

import (
	"horseclub_backend/internals/features/users/auth/service"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthController struct {
	DB *gorm.DB
}

func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{DB: db}
}

func (ac *AuthController) Login(c *fiber.Ctx) error       { return service.Login(ac.DB, c) }
func (ac *AuthController) LoginGoogle(c *fiber.Ctx) error { return service.LoginGoogle(ac.DB, c) }
func (ac *AuthController) Logout(c *fiber.Ctx) error      { return service.Logout(ac.DB, c) }
func (ac *AuthController) Me(c *fiber.Ctx) error          { return service.Me(ac.DB, c) }

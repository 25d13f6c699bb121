package service

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"horseclub_backend/internals/configs"
	helper "horseclub_backend/internals/helpers"
)

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrChargeNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidPaidMethod):
		return http.StatusBadRequest
	case errors.Is(err, ErrPayVoidedCharge), errors.Is(err, ErrAlreadyVoid), errors.Is(err, ErrDeletePaidCharge):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func WriteError(c *fiber.Ctx, err error) error {
	code := HTTPStatus(err)
	if code == http.StatusInternalServerError {
		configs.Log.WithError(err).WithField("path", c.Path()).Error("billing charge operation failed")
	}
	return helper.JsonError(c, code, err.Error())
}

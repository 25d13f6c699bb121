package service_test

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	chargeService "horseclub_backend/internals/features/finance/charges/service"
)

func TestChargeHTTPStatus(t *testing.T) {
	assert.Equal(t, fiber.StatusNotFound, chargeService.HTTPStatus(errors.Wrap(chargeService.ErrChargeNotFound, "mark paid")))
	assert.Equal(t, fiber.StatusBadRequest, chargeService.HTTPStatus(chargeService.ErrInvalidPaidMethod))
	assert.Equal(t, fiber.StatusConflict, chargeService.HTTPStatus(chargeService.ErrPayVoidedCharge))
	assert.Equal(t, fiber.StatusConflict, chargeService.HTTPStatus(chargeService.ErrAlreadyVoid))
	assert.Equal(t, fiber.StatusConflict, chargeService.HTTPStatus(chargeService.ErrDeletePaidCharge))
	assert.Equal(t, fiber.StatusInternalServerError, chargeService.HTTPStatus(errors.New("boom")))
}

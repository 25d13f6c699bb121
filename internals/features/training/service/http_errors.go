package service

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"horseclub_backend/internals/configs"
	helper "horseclub_backend/internals/helpers"
)

// WriteError renders a flow error. StepError keeps its discriminator as the
// error field so clients know which attendance step failed.
func WriteError(c *fiber.Ctx, err error) error {
	var se *StepError
	if errors.As(err, &se) {
		configs.Log.WithError(se.Err).WithField("booking_id", se.BookingID).Error(se.Step)
		return helper.JsonErrorWithDetails(c, fiber.StatusInternalServerError, se.Step, fiber.Map{
			"detail":     se.Err.Error(),
			"booking_id": se.BookingID,
		})
	}
	code := HTTPStatus(err)
	if code == fiber.StatusInternalServerError {
		configs.Log.WithError(err).WithField("path", c.Path()).Error("training flow failed")
	}
	return helper.JsonError(c, code, err.Error())
}

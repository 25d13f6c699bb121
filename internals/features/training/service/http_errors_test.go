package service_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horseclub_backend/internals/features/training/service"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		service.ErrSlotNotFound:                          fiber.StatusNotFound,
		service.ErrBookingNotFound:                       fiber.StatusNotFound,
		service.ErrCapacityExceeded:                      fiber.StatusBadRequest,
		service.ErrSlotNotOpen:                           fiber.StatusBadRequest,
		service.ErrUnknownReference:                      fiber.StatusBadRequest,
		errors.Wrap(service.ErrDuplicateBooking, "book"): fiber.StatusConflict,
		service.ErrInvalidTransition:                     fiber.StatusConflict,
		errors.New("db down"):                            fiber.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, service.HTTPStatus(err), err.Error())
	}
}

func TestWriteErrorStepError(t *testing.T) {
	bookingID := uuid.New()
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return service.WriteError(c, &service.StepError{
			Step:      service.StepChargeCreate,
			BookingID: bookingID,
			Err:       errors.New("insert failed"),
		})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, sonic.Unmarshal(raw, &body))
	assert.Equal(t, service.StepChargeCreate, body["error"])
	assert.Equal(t, "insert failed", body["detail"])
	assert.Equal(t, bookingID.String(), body["booking_id"])
}

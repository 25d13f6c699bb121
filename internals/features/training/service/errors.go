package service

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrMissingParticipants = errors.New("horse_id and rider_id are required")
	ErrSlotNotFound        = errors.New("slot not found")
	ErrSlotNotOpen         = errors.New("slot not open")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrDuplicateBooking    = errors.New("duplicate booking")
	ErrUnknownReference    = errors.New("horse or rider does not exist")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrBookingCancelled    = errors.New("booking cancelled")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrInvalidMarkStatus   = errors.New("status must be attended or no_show")
)

// Attendance steps that report their own error code.
const (
	StepTrainingCreate = "training_create_failed"
	StepChargeCreate   = "charge_create_failed"
)

// StepError tells the caller which step of attendance marking failed.
// The whole transaction is rolled back when it is returned.
type StepError struct {
	Step      string
	BookingID uuid.UUID
	Err       error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// HTTPStatus maps flow errors to response codes. Unknown errors are 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrSlotNotFound), errors.Is(err, ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrMissingParticipants),
		errors.Is(err, ErrSlotNotOpen),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrBookingCancelled),
		errors.Is(err, ErrInvalidMarkStatus),
		errors.Is(err, ErrUnknownReference):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateBooking), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

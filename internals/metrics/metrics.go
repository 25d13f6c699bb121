package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horseclub",
		Name:      "bookings_total",
		Help:      "Booking attempts by outcome.",
	}, []string{"outcome"})

	AttendanceMarksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horseclub",
		Name:      "attendance_marks_total",
		Help:      "Attendance marks by requested status and outcome.",
	}, []string{"status", "outcome"})

	ChargeTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horseclub",
		Name:      "charge_transitions_total",
		Help:      "Billing charge transitions (created, paid, voided).",
	}, []string{"transition"})

	AuditWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horseclub",
		Name:      "audit_write_failures_total",
		Help:      "Audit rows that could not be persisted.",
	}, []string{"reason"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "horseclub",
		Name:      "events_published_total",
		Help:      "Domain events handed to the broker by routing key and result.",
	}, []string{"key", "result"})
)

// Handler serves the default registry on a fiber route.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

package constants

// Billing enums shared by models, DTO validation and reports.
const (
	ChargeUnpaid = "unpaid"
	ChargePaid   = "paid"
	ChargeVoid   = "void"

	BookingBooked    = "booked"
	BookingAttended  = "attended"
	BookingNoShow    = "no_show"
	BookingCancelled = "cancelled"

	SlotOpen      = "open"
	SlotClosed    = "closed"
	SlotCancelled = "cancelled"

	TrainingCompleted = "completed"
	TrainingPlanned   = "planned"
	TrainingCancelled = "cancelled"

	BillingNone = "none"
)

var PaidMethods = []string{"cash", "card", "bank", "transfer", "other"}

func IsPaidMethod(m string) bool {
	for _, x := range PaidMethods {
		if x == m {
			return true
		}
	}
	return false
}

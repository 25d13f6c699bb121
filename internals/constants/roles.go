package constants

import "fmt"

const (
	RoleAdmin      = "admin"
	RoleAccountant = "accountant"
	RoleTrainer    = "trainer"
)

// Role error message templates
const (
	ErrOnlyAdminsCanAccess  = "only admins may access %s"
	ErrOnlyFinanceCanAccess = "only admins or accountants may access %s"
	ErrOnlyStaffCanAccess   = "only club staff may access %s"
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorFinance(feature string) string {
	return fmt.Sprintf(ErrOnlyFinanceCanAccess, feature)
}

func RoleErrorStaff(feature string) string {
	return fmt.Sprintf(ErrOnlyStaffCanAccess, feature)
}

// ==========================
// Grouped Role Slices
// ==========================
var (
	AllRoles = []string{
		RoleAdmin,
		RoleAccountant,
		RoleTrainer,
	}

	// manages horses, riders, slots and attendance
	StaffRoles = []string{
		RoleAdmin,
		RoleTrainer,
	}

	FinanceRoles = []string{
		RoleAdmin,
		RoleAccountant,
	}

	AdminOnly = []string{
		RoleAdmin,
	}
)

// IsValidRole reports whether r is one of the known staff roles.
func IsValidRole(r string) bool {
	for _, x := range AllRoles {
		if x == r {
			return true
		}
	}
	return false
}

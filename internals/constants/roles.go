package constants

import "fmt"

const (
	RoleAdmin  = "admin"
	RoleStaff  = "staff"
	RoleClient = "client"
)

const (
	ErrOnlyAdminsCanAccess = "Only administrators may access %s."
	ErrOnlyStaffCanAccess  = "Only staff or administrators may access %s."
)

func RoleErrorAdmin(feature string) string {
	return fmt.Sprintf(ErrOnlyAdminsCanAccess, feature)
}

func RoleErrorStaff(feature string) string {
	return fmt.Sprintf(ErrOnlyStaffCanAccess, feature)
}

var (
	AllRoles = []string{
		RoleAdmin,
		RoleStaff,
		RoleClient,
	}

	// StaffAndAbove may process payments and manage bills.
	StaffAndAbove = []string{
		RoleStaff,
		RoleAdmin,
	}

	AdminOnly = []string{
		RoleAdmin,
	}
)

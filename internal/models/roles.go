package models

const (
	RoleLeader  = "leader"
	RoleAdmin   = "admin"
	RoleOwner   = "owner"
	RoleChecker = "checker"
)

// Roles lists every role a user record may carry.
var Roles = []string{RoleLeader, RoleAdmin, RoleOwner, RoleChecker}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

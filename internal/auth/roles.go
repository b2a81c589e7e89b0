package auth

// Roles accepted at registration. Anything else falls back to RoleTeacher.
const (
	RoleAdmin     = "admin"
	RoleDeveloper = "developer"
	RoleTeacher   = "teacher"
	RoleHR        = "hr"
)

var allowedRoles = map[string]bool{
	RoleAdmin:     true,
	RoleDeveloper: true,
	RoleTeacher:   true,
	RoleHR:        true,
}

// NormalizeRole validates a requested role against the allow-list and
// defaults to teacher when absent or unknown.
func NormalizeRole(role string) string {
	if allowedRoles[role] {
		return role
	}
	return RoleTeacher
}

// CanViewAllAttendance reports whether a role may read attendance across
// every teacher. Teachers only see their own roster; every other role is
// privileged.
func CanViewAllAttendance(role string) bool {
	return allowedRoles[role] && role != RoleTeacher
}

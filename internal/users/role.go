package users

import "strings"

type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// ParseUserRole keeps any role name as given, trimmed. Blank input is RoleUser.
func ParseUserRole(s string) UserRole {
	s = strings.TrimSpace(s)
	if s == "" {
		return RoleUser
	}
	return UserRole(s)
}

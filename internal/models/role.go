package models

import "strings"

type Role string

const (
	RoleAgent      Role = "agent"
	RoleEnterprise Role = "enterprise"
	RoleAdmin      Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleAgent || r == RoleEnterprise || r == RoleAdmin
}

// ParseRole normalizes user-supplied role strings. Only agent and enterprise
// may be chosen publicly (admin is never assignable from a signup flow).
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if r == RoleAgent || r == RoleEnterprise {
		return r, true
	}
	return "", false
}

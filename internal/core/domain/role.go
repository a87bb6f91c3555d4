package domain

import "strings"

// Role is the caller-asserted capability. It is a coarse trust boundary taken
// from a request header, not a verified identity; real authentication has to
// sit underneath it.
type Role string

const (
	RoleAssociate Role = "associate"
	RoleMerch     Role = "merch"
	RoleSupport   Role = "support"
)

var validRoles = map[Role]bool{
	RoleAssociate: true,
	RoleMerch:     true,
	RoleSupport:   true,
}

// ParseRole normalizes raw and checks it against the fixed role set.
func ParseRole(raw string) (Role, error) {
	normalized := Role(strings.ToLower(strings.TrimSpace(raw)))
	if normalized == "" {
		return "", Authenticationf("missing role assertion")
	}
	if !validRoles[normalized] {
		return "", Authenticationf("invalid role %q: expected one of associate, merch, support", raw)
	}
	return normalized, nil
}

func (r Role) Valid() bool {
	return validRoles[r]
}

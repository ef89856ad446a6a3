package models

import "fmt"

// Role is the access tier carried by a user and snapshotted into tokens.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

// ParseRole accepts exactly "admin" or "viewer". An empty input yields def.
func ParseRole(value string, def Role) (Role, error) {
	switch Role(value) {
	case "":
		return def, nil
	case RoleAdmin, RoleViewer:
		return Role(value), nil
	default:
		return "", fmt.Errorf("unknown role %q", value)
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleViewer
}

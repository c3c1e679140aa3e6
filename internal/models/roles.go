package models

// Role is the access level a user registers with.
type Role string

const (
	RoleImam  Role = "imam"
	RoleAdmin Role = "admin"
)

// DefaultRole is assigned when registration omits a role.
const DefaultRole = RoleImam

// ParseRole validates a role name, falling back to DefaultRole for blanks.
func ParseRole(name string) (Role, error) {
	switch Role(name) {
	case "":
		return DefaultRole, nil
	case RoleImam, RoleAdmin:
		return Role(name), nil
	default:
		return "", &ValidationError{Field: "role", Message: "role must be one of imam, admin"}
	}
}

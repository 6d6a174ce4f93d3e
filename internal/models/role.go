package models

import "fmt"

// Role is a room membership role. The numeric order is the permission
// hierarchy: owner > admin > moderator > member. All permission checks
// reduce to a single comparison via AtLeast.
type Role int

const (
	RoleMember Role = iota
	RoleModerator
	RoleAdmin
	RoleOwner
)

// ParseRole converts the stored text representation to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "member":
		return RoleMember, nil
	case "moderator":
		return RoleModerator, nil
	case "admin":
		return RoleAdmin, nil
	case "owner":
		return RoleOwner, nil
	default:
		return RoleMember, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleAdmin:
		return "admin"
	case RoleModerator:
		return "moderator"
	default:
		return "member"
	}
}

// AtLeast reports whether r grants at least the permissions of min.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// MarshalJSON serializes the role as its text form.
func (r Role) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

// UnmarshalJSON parses the text form of a role.
func (r *Role) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("invalid role literal %s", b)
	}
	parsed, err := ParseRole(string(b[1 : len(b)-1]))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

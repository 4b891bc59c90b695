package identity

import "strings"

// Role is the presentation-level role inferred from an account address.
// The server is the only authority on what an account may do.
type Role int

const (
	RoleUser Role = iota
	RoleStaff
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleStaff:
		return "staff"
	default:
		return "user"
	}
}

// RoleOf classifies an address by prefix: "admin" is an administrator,
// "ram" is desk staff, anything else is a passenger account.
func RoleOf(address string) Role {
	lower := strings.ToLower(strings.TrimSpace(address))
	switch {
	case strings.HasPrefix(lower, "admin"):
		return RoleAdmin
	case strings.HasPrefix(lower, "ram"):
		return RoleStaff
	default:
		return RoleUser
	}
}

// IsStaffAddress reports whether address belongs to staff or an admin.
func IsStaffAddress(address string) bool {
	return RoleOf(address) != RoleUser
}

// BadgeAddress turns a badge number into the sign-in address.
func BadgeAddress(badge, domain string) string {
	badge = strings.ToLower(strings.TrimSpace(badge))
	domain = strings.TrimPrefix(strings.TrimSpace(domain), "@")
	if badge == "" || domain == "" {
		return badge
	}
	if strings.Contains(badge, "@") {
		return badge
	}
	return badge + "@" + domain
}

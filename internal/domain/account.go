package domain

import "strings"

// Role is the authorization tag stored on an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "secretaria"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleStaff
}

// ParseRole normalizes free text into a Role. The second return value is
// false when the text names no known role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}

// Account is a staff or admin login.
type Account struct {
	ID           int64   `json:"id"`
	Name         string  `json:"nome_gf"`
	Email        string  `json:"email_gf"`
	PasswordHash string  `json:"-"`
	Role         Role    `json:"tipo_usuario"`
	Logo         *string `json:"logo"`
}

// NormalizeEmail trims and lowercases an email address. Emails are stored
// and compared in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"tipo"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

package domain

import (
	"slices"
	"time"
)

// Role claim values carried in access tokens.
const (
	RoleUser       = "User"
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "IsSuperAdmin"
)

// Permissions is the enumerated set of elevated rights held by a user.
// The zero value is an ordinary user.
type Permissions uint8

const (
	PermAdmin Permissions = 1 << iota
	PermSuperAdmin
)

// Stored names, used by the persistence adapters.
const (
	permAdminName      = "admin"
	permSuperAdminName = "superadmin"
)

// Has reports whether every permission in q is present in p.
func (p Permissions) Has(q Permissions) bool {
	return p&q == q
}

// Grant returns p with q added. Granting superadmin also grants admin.
func (p Permissions) Grant(q Permissions) Permissions {
	return (p | q).normalize()
}

func (p Permissions) normalize() Permissions {
	if p&PermSuperAdmin != 0 {
		p |= PermAdmin
	}
	return p
}

// Roles maps the permission set to token role claims:
//
//	none       → [User]
//	admin      → [Admin]
//	superadmin → [Admin IsSuperAdmin]
func (p Permissions) Roles() []string {
	p = p.normalize()
	roles := make([]string, 0, 2)
	if p.Has(PermAdmin) {
		roles = append(roles, RoleAdmin)
	} else {
		roles = append(roles, RoleUser)
	}
	if p.Has(PermSuperAdmin) {
		roles = append(roles, RoleSuperAdmin)
	}
	return roles
}

// Names returns the stored representation of p.
func (p Permissions) Names() []string {
	p = p.normalize()
	names := []string{}
	if p.Has(PermAdmin) {
		names = append(names, permAdminName)
	}
	if p.Has(PermSuperAdmin) {
		names = append(names, permSuperAdminName)
	}
	return names
}

// ParsePermissions is the inverse of Names. Unknown names are ignored.
func ParsePermissions(names []string) Permissions {
	var p Permissions
	if slices.Contains(names, permAdminName) {
		p |= PermAdmin
	}
	if slices.Contains(names, permSuperAdminName) {
		p |= PermSuperAdmin
	}
	return p.normalize()
}

// PermissionsFromFlags builds a set from the legacy is_admin / is_super_admin columns.
func PermissionsFromFlags(isAdmin, isSuperAdmin bool) Permissions {
	var p Permissions
	if isAdmin {
		p |= PermAdmin
	}
	if isSuperAdmin {
		p |= PermSuperAdmin
	}
	return p.normalize()
}

// User is a registered identity.
type User struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"-"`
	Permissions  Permissions `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func (u *User) IsAdmin() bool      { return u.Permissions.Has(PermAdmin) }
func (u *User) IsSuperAdmin() bool { return u.Permissions.Has(PermSuperAdmin) }

package domain

import (
	"slices"
	"time"
)

// AccessToken is the verified content of a signed bearer token.
type AccessToken struct {
	ID        string
	Subject   string
	UserID    int64
	Roles     []string
	Issuer    string
	Audience  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasRole reports whether the token carries the given role claim.
func (t *AccessToken) HasRole(role string) bool {
	return slices.Contains(t.Roles, role)
}

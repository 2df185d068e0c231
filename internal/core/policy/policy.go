// Package policy evaluates declarative role requirements against the role claims of a
// verified access token. It has no HTTP dependencies.
//
// A Rule holds one or more role sets. With MatchAny the caller must hold every role of
// at least one set; with MatchAll the caller must hold every role of every set.
package policy

import (
	"fmt"
	"slices"
	"strings"

	"github.com/99minutos/library-system/internal/core/domain"
)

// Decision is the outcome of evaluating a Rule.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Match selects how the role sets of a Rule combine.
type Match int

const (
	MatchAny Match = iota
	MatchAll
)

// RoleSet is a set of roles that must all be held together.
type RoleSet []string

// Rule is the authorization requirement of one endpoint.
type Rule struct {
	Name  string
	Sets  []RoleSet
	Match Match
}

// AnyOf builds a rule satisfied by holding at least one of the given roles.
func AnyOf(name string, roles ...string) Rule {
	sets := make([]RoleSet, 0, len(roles))
	for _, r := range roles {
		sets = append(sets, RoleSet{r})
	}
	return Rule{Name: name, Sets: sets, Match: MatchAny}
}

// AllOf builds a rule satisfied only by holding every given role at once.
// It matches stacking one role requirement per attribute on an endpoint.
func AllOf(name string, roles ...string) Rule {
	sets := make([]RoleSet, 0, len(roles))
	for _, r := range roles {
		sets = append(sets, RoleSet{r})
	}
	return Rule{Name: name, Sets: sets, Match: MatchAll}
}

// Evaluate decides whether a caller holding roles satisfies r.
// A rule with no sets denies everything.
func (r Rule) Evaluate(roles []string) Decision {
	if len(r.Sets) == 0 {
		return Deny
	}
	switch r.Match {
	case MatchAll:
		for _, set := range r.Sets {
			if !holdsAll(roles, set) {
				return Deny
			}
		}
		return Allow
	default:
		for _, set := range r.Sets {
			if holdsAll(roles, set) {
				return Allow
			}
		}
		return Deny
	}
}

// EvaluateToken is Evaluate for a verified token; a nil token is always denied.
func (r Rule) EvaluateToken(tok *domain.AccessToken) Decision {
	if tok == nil {
		return Deny
	}
	return r.Evaluate(tok.Roles)
}

func (r Rule) String() string {
	parts := make([]string, 0, len(r.Sets))
	for _, set := range r.Sets {
		parts = append(parts, "{"+strings.Join(set, ",")+"}")
	}
	sep := " OR "
	if r.Match == MatchAll {
		sep = " AND "
	}
	return fmt.Sprintf("%s: %s", r.Name, strings.Join(parts, sep))
}

func holdsAll(held []string, required RoleSet) bool {
	if len(required) == 0 {
		return false
	}
	for _, role := range required {
		if !slices.Contains(held, role) {
			return false
		}
	}
	return true
}

// Purchase policy modes accepted by PurchaseRule.
const (
	PurchasePolicyAny    = "any"
	PurchasePolicyLegacy = "legacy"
)

// Endpoint rules.
var (
	ManageBooks = AnyOf("manage-books", domain.RoleAdmin)
	AssignAdmin = AnyOf("assign-admin", domain.RoleSuperAdmin)
)

// PurchaseRule returns the rule guarding the purchase endpoint.
//
// "any" admits every authenticated role (User, Admin or IsSuperAdmin).
// "legacy" requires User AND IsSuperAdmin at once, which only a superadmin
// without admin rights could satisfy; since superadmin now implies admin, no
// caller passes it. It is kept for deployments that must keep purchases closed.
func PurchaseRule(mode string) (Rule, error) {
	switch mode {
	case "", PurchasePolicyAny:
		return AnyOf("purchase", domain.RoleUser, domain.RoleAdmin, domain.RoleSuperAdmin), nil
	case PurchasePolicyLegacy:
		return AllOf("purchase", domain.RoleUser, domain.RoleSuperAdmin), nil
	default:
		return Rule{}, fmt.Errorf("policy: unknown purchase policy %q", mode)
	}
}

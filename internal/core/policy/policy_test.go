package policy

import (
	"testing"

	"github.com/99minutos/library-system/internal/core/domain"
)

func TestRule_AnyOf(t *testing.T) {
	rule := AnyOf("r", "A", "B")

	cases := []struct {
		name  string
		roles []string
		want  Decision
	}{
		{"first role", []string{"A"}, Allow},
		{"second role", []string{"B"}, Allow},
		{"both", []string{"A", "B"}, Allow},
		{"neither", []string{"C"}, Deny},
		{"none", nil, Deny},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rule.Evaluate(tc.roles); got != tc.want {
				t.Fatalf("Evaluate(%v) = %v, want %v", tc.roles, got, tc.want)
			}
		})
	}
}

func TestRule_AllOf(t *testing.T) {
	rule := AllOf("r", "A", "B")

	if got := rule.Evaluate([]string{"A"}); got != Deny {
		t.Fatalf("expected deny with only A, got %v", got)
	}
	if got := rule.Evaluate([]string{"B", "A", "C"}); got != Allow {
		t.Fatalf("expected allow with superset, got %v", got)
	}
}

func TestRule_MultiRoleSet(t *testing.T) {
	rule := Rule{Name: "r", Sets: []RoleSet{{"A", "B"}, {"C"}}, Match: MatchAny}

	if got := rule.Evaluate([]string{"A"}); got != Deny {
		t.Fatalf("A alone should not satisfy {A,B}")
	}
	if got := rule.Evaluate([]string{"A", "B"}); got != Allow {
		t.Fatalf("A+B should satisfy {A,B}")
	}
	if got := rule.Evaluate([]string{"C"}); got != Allow {
		t.Fatalf("C should satisfy {C}")
	}
}

func TestRule_EmptyDenies(t *testing.T) {
	if got := (Rule{Name: "empty"}).Evaluate([]string{"A"}); got != Deny {
		t.Fatalf("empty rule must deny")
	}
	if got := (Rule{Name: "r", Sets: []RoleSet{{}}}).Evaluate([]string{"A"}); got != Deny {
		t.Fatalf("empty role set must deny")
	}
}

func TestRule_EvaluateToken_Nil(t *testing.T) {
	if got := ManageBooks.EvaluateToken(nil); got != Deny {
		t.Fatalf("nil token must deny")
	}
}

func TestAssignAdmin_RequiresSuperAdmin(t *testing.T) {
	admin := domain.PermAdmin.Roles()
	if got := AssignAdmin.Evaluate(admin); got != Deny {
		t.Fatalf("plain admin must be denied, roles %v", admin)
	}
	super := domain.PermSuperAdmin.Roles()
	if got := AssignAdmin.Evaluate(super); got != Allow {
		t.Fatalf("superadmin must be allowed, roles %v", super)
	}
}

func TestManageBooks(t *testing.T) {
	if got := ManageBooks.Evaluate(domain.Permissions(0).Roles()); got != Deny {
		t.Fatalf("ordinary user must not manage books")
	}
	if got := ManageBooks.Evaluate(domain.PermAdmin.Roles()); got != Allow {
		t.Fatalf("admin must manage books")
	}
	if got := ManageBooks.Evaluate(domain.PermSuperAdmin.Roles()); got != Allow {
		t.Fatalf("superadmin must manage books")
	}
}

func TestPurchaseRule_Any(t *testing.T) {
	rule, err := PurchaseRule(PurchasePolicyAny)
	if err != nil {
		t.Fatalf("PurchaseRule: %v", err)
	}
	for _, perms := range []domain.Permissions{0, domain.PermAdmin, domain.PermSuperAdmin} {
		if got := rule.Evaluate(perms.Roles()); got != Allow {
			t.Fatalf("expected allow for roles %v", perms.Roles())
		}
	}
	if got := rule.Evaluate(nil); got != Deny {
		t.Fatalf("expected deny without roles")
	}
}

func TestPurchaseRule_Legacy(t *testing.T) {
	rule, err := PurchaseRule(PurchasePolicyLegacy)
	if err != nil {
		t.Fatalf("PurchaseRule: %v", err)
	}
	for _, perms := range []domain.Permissions{0, domain.PermAdmin, domain.PermSuperAdmin} {
		if got := rule.Evaluate(perms.Roles()); got != Deny {
			t.Fatalf("legacy policy should deny roles %v", perms.Roles())
		}
	}
	if got := rule.Evaluate([]string{domain.RoleUser, domain.RoleSuperAdmin}); got != Allow {
		t.Fatalf("legacy policy should allow User+IsSuperAdmin")
	}
}

func TestPurchaseRule_Unknown(t *testing.T) {
	if _, err := PurchaseRule("everyone"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

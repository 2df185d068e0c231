package domain

import (
	"slices"
	"testing"
)

func TestPermissions_Roles(t *testing.T) {
	cases := []struct {
		name  string
		perms Permissions
		want  []string
	}{
		{"ordinary user", 0, []string{RoleUser}},
		{"admin", PermAdmin, []string{RoleAdmin}},
		{"superadmin implies admin", PermSuperAdmin, []string{RoleAdmin, RoleSuperAdmin}},
		{"both", PermAdmin | PermSuperAdmin, []string{RoleAdmin, RoleSuperAdmin}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.perms.Roles(); !slices.Equal(got, tc.want) {
				t.Fatalf("Roles() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPermissions_GrantIsIdempotent(t *testing.T) {
	p := Permissions(0).Grant(PermAdmin)
	if again := p.Grant(PermAdmin); again != p {
		t.Fatalf("granting twice changed the set: %v vs %v", again, p)
	}
	if !Permissions(0).Grant(PermSuperAdmin).Has(PermAdmin) {
		t.Fatalf("superadmin grant must include admin")
	}
}

func TestPermissions_NamesRoundTrip(t *testing.T) {
	for _, p := range []Permissions{0, PermAdmin, PermSuperAdmin | PermAdmin} {
		if got := ParsePermissions(p.Names()); got != p {
			t.Fatalf("ParsePermissions(%v) = %v, want %v", p.Names(), got, p)
		}
	}
	if got := ParsePermissions([]string{"superadmin"}); !got.Has(PermAdmin) {
		t.Fatalf("parsed superadmin must imply admin")
	}
}

func TestPermissionsFromFlags(t *testing.T) {
	if got := PermissionsFromFlags(false, true); got != PermAdmin|PermSuperAdmin {
		t.Fatalf("unexpected permissions %v", got)
	}
	if got := PermissionsFromFlags(false, false); got != 0 {
		t.Fatalf("expected no permissions, got %v", got)
	}
}

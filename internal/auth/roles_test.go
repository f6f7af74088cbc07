package auth

import "testing"

func TestParseRole(t *testing.T) {
	for _, role := range Roles {
		got, err := ParseRole(string(role))
		if err != nil || got != role {
			t.Errorf("ParseRole(%q) = %v, %v", role, got, err)
		}
	}
	if _, err := ParseRole("  Admin "); err != nil {
		t.Errorf("ParseRole should trim and lowercase: %v", err)
	}
	if _, err := ParseRole("intern"); err == nil {
		t.Error("ParseRole accepted an unknown role")
	}
	if _, err := ParseRole(""); err == nil {
		t.Error("ParseRole accepted an empty role")
	}
}

func TestGrantAllows(t *testing.T) {
	g := Grant{View: true, Export: true}
	cases := []struct {
		action Action
		want   bool
	}{
		{ActionView, true},
		{ActionCreate, false},
		{ActionEdit, false},
		{ActionDelete, false},
		{ActionExport, true},
		// Unrecognized actions follow the view slot.
		{Action("inspect"), true},
		{Action(""), true},
	}
	for _, tc := range cases {
		if got := g.Allows(tc.action); got != tc.want {
			t.Errorf("Allows(%q) = %v, want %v", tc.action, got, tc.want)
		}
	}

	blind := Grant{Create: true}
	if blind.Allows(Action("inspect")) {
		t.Error("unknown action must not follow the create slot")
	}
}

func TestDefaultGrantMatrix(t *testing.T) {
	cases := []struct {
		role   Role
		module Module
		want   Grant
	}{
		{RoleAdmin, ModuleUsers, AllowAll},
		{RoleAdmin, ModuleSettings, AllowAll},
		{RoleManager, ModuleUsers, Grant{View: true}},
		{RoleManager, ModuleCases, Grant{View: true, Create: true, Edit: true, Delete: true, Export: true}},
		{RoleAccountant, ModuleInvoices, Grant{View: true, Create: true, Edit: true, Export: true}},
		{RoleAccountant, ModuleCases, Grant{View: true, Export: true}},
		{RoleAccountant, ModuleUsers, Grant{}},
		{RoleTechnician, ModuleCases, Grant{View: true, Create: true, Edit: true}},
		{RoleTechnician, ModuleInvoices, Grant{View: true}},
		{RoleTechnician, ModuleSettings, Grant{}},
	}
	for _, tc := range cases {
		if got := DefaultGrant(tc.role, tc.module); got != tc.want {
			t.Errorf("DefaultGrant(%s, %s) = %+v, want %+v", tc.role, tc.module, got, tc.want)
		}
	}

	// Unknown pairs default to deny-everything.
	if got := DefaultGrant(Role("intern"), ModuleCases); got != (Grant{}) {
		t.Errorf("unknown role default = %+v, want zero grant", got)
	}
}

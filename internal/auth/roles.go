package auth

import "strings"

// Role is a named capability class. The set is fixed; extending it means
// adding a new constant and a matching row in defaultGrants.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleAccountant Role = "accountant"
	RoleTechnician Role = "technician"
)

// Roles lists every known role, admin first.
var Roles = []Role{RoleAdmin, RoleManager, RoleAccountant, RoleTechnician}

// ParseRole normalizes raw input into a known role.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.TrimSpace(strings.ToLower(raw)))
	for _, r := range Roles {
		if r == role {
			return r, nil
		}
	}
	return "", fmtErr(ErrInvalidInput, "unknown role %q", raw)
}

// Valid reports whether the role belongs to the fixed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Module is a functional area of the surrounding application that
// permissions are scoped to.
type Module string

const (
	ModuleCases    Module = "cases"
	ModuleDoctors  Module = "doctors"
	ModuleInvoices Module = "invoices"
	ModuleReports  Module = "reports"
	ModuleSettings Module = "settings"
	ModuleUsers    Module = "users"

	// ModuleSystem scopes authentication events in the activity log.
	ModuleSystem Module = "system"
)

// Modules lists every permission-scoped module.
var Modules = []Module{ModuleCases, ModuleDoctors, ModuleInvoices, ModuleReports, ModuleSettings, ModuleUsers}

// Action is one of the five capability slots within a module.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionExport Action = "export"
)

// Grant is the stored capability set for one (role, module) pair.
// The zero value is deny-everything.
type Grant struct {
	View   bool `json:"view"`
	Create bool `json:"create"`
	Edit   bool `json:"edit"`
	Delete bool `json:"delete"`
	Export bool `json:"export"`
}

// AllowAll is the grant synthesized for the admin role.
var AllowAll = Grant{View: true, Create: true, Edit: true, Delete: true, Export: true}

// Allows maps the requested action to its capability slot. Unrecognized
// actions fall back to the view slot.
func (g Grant) Allows(action Action) bool {
	switch action {
	case ActionCreate:
		return g.Create
	case ActionEdit:
		return g.Edit
	case ActionDelete:
		return g.Delete
	case ActionExport:
		return g.Export
	default:
		return g.View
	}
}

func grant(view, create, edit, del, export bool) Grant {
	return Grant{View: view, Create: create, Edit: edit, Delete: del, Export: export}
}

// defaultGrants is the one-time bootstrap matrix seeded for every role.
// Admin never consults stored grants, but a full row set is seeded for it
// anyway so the permissions table is self-describing.
var defaultGrants = map[Role]map[Module]Grant{
	RoleAdmin: {
		ModuleCases:    AllowAll,
		ModuleDoctors:  AllowAll,
		ModuleInvoices: AllowAll,
		ModuleReports:  AllowAll,
		ModuleSettings: AllowAll,
		ModuleUsers:    AllowAll,
	},
	RoleManager: {
		ModuleCases:    AllowAll,
		ModuleDoctors:  AllowAll,
		ModuleInvoices: AllowAll,
		ModuleReports:  AllowAll,
		ModuleSettings: grant(true, true, true, false, true),
		ModuleUsers:    grant(true, false, false, false, false),
	},
	RoleAccountant: {
		ModuleCases:    grant(true, false, false, false, true),
		ModuleDoctors:  grant(true, false, false, false, false),
		ModuleInvoices: grant(true, true, true, false, true),
		ModuleReports:  grant(true, false, false, false, true),
		ModuleSettings: {},
		ModuleUsers:    {},
	},
	RoleTechnician: {
		ModuleCases:    grant(true, true, true, false, false),
		ModuleDoctors:  grant(true, false, false, false, false),
		ModuleInvoices: grant(true, false, false, false, false),
		ModuleReports:  grant(true, false, false, false, false),
		ModuleSettings: {},
		ModuleUsers:    {},
	},
}

// DefaultGrant returns the bootstrap capability set for (role, module).
func DefaultGrant(role Role, module Module) Grant {
	return defaultGrants[role][module]
}

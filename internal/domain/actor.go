package domain

// Role classifies who is calling into the engine. Authentication itself is
// an external collaborator; the engine only enforces the decision points.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleTenant  Role = "tenant"
)

// Actor identifies the caller of an engine operation.
type Actor struct {
	ID   string
	Role Role
}

// Staff reports whether the actor may perform landlord-side operations.
func (a Actor) Staff() bool {
	return a.Role == RoleAdmin || a.Role == RoleManager
}

// Admin reports whether the actor may perform privileged operations such as
// hard deletion.
func (a Actor) Admin() bool {
	return a.Role == RoleAdmin
}

// Owns reports whether the actor is the tenant party of the contract.
func (a Actor) Owns(c Contract) bool {
	return a.Role == RoleTenant && a.ID == c.TenantID
}

package domain

// Role is the marketplace role carried by a verified identity.
// Admission is a capability check on the role, never type dispatch.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleSupport  Role = "support"
	RoleAdmin    Role = "admin"
)

// CanResolve reports whether the role may archive support conversations.
func (r Role) CanResolve() bool {
	return r == RoleSupport || r == RoleAdmin
}

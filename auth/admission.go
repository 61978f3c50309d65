package auth

import (
	"market-chat/domain"
	"market-chat/errors"
)

// Admission is the one-time gate a connection passes before it reaches
// the registry. It checks identity and role capability, nothing else:
// conversation membership is checked per message, not per connection,
// because one connection serves all of a user's conversations.
type Admission struct {
	allowed map[domain.Role]struct{}
}

// NewAdmission lists the roles allowed to hold a live connection.
// With no argument every marketplace role is admitted.
func NewAdmission(roles ...domain.Role) *Admission {
	if len(roles) == 0 {
		roles = []domain.Role{
			domain.RoleCustomer,
			domain.RoleSeller,
			domain.RoleSupport,
			domain.RoleAdmin,
		}
	}
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return &Admission{allowed: allowed}
}

// Admit rejects with ErrUnauthenticated when no verified identity was
// supplied and ErrForbidden when the account is disabled or the role
// may not open a live connection.
func (a *Admission) Admit(identity Identity) error {
	if identity.UserID == "" {
		return errors.ErrUnauthenticated
	}
	if identity.Disabled {
		return errors.ErrForbidden
	}
	if _, ok := a.allowed[identity.Role]; !ok {
		return errors.ErrForbidden
	}
	return nil
}

// Package auth holds the admission gate of the delivery engine and the
// adapter that turns the authentication collaborator's token into a
// verified identity. Credentials themselves are never validated here.
package auth

import (
	"market-chat/domain"
)

// Identity is the opaque (user, role) pair supplied by the
// authentication collaborator. The engine trusts it as-is.
type Identity struct {
	UserID   domain.UserID
	Role     domain.Role
	Disabled bool
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"market-chat/domain"
	"market-chat/errors"
)

func Test_Admission_Admit(t *testing.T) {
	tests := []struct {
		name     string
		gate     *Admission
		identity Identity
		want     error
	}{
		{
			name:     "customer admitted by default",
			gate:     NewAdmission(),
			identity: Identity{UserID: "alice", Role: domain.RoleCustomer},
		},
		{
			name:     "missing identity",
			gate:     NewAdmission(),
			identity: Identity{Role: domain.RoleCustomer},
			want:     errors.ErrUnauthenticated,
		},
		{
			name:     "disabled account",
			gate:     NewAdmission(),
			identity: Identity{UserID: "alice", Role: domain.RoleCustomer, Disabled: true},
			want:     errors.ErrForbidden,
		},
		{
			name:     "role outside the allow list",
			gate:     NewAdmission(domain.RoleSupport, domain.RoleAdmin),
			identity: Identity{UserID: "alice", Role: domain.RoleCustomer},
			want:     errors.ErrForbidden,
		},
		{
			name:     "role inside the allow list",
			gate:     NewAdmission(domain.RoleSupport, domain.RoleAdmin),
			identity: Identity{UserID: "agent-7", Role: domain.RoleSupport},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.gate.Admit(tt.identity)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func Test_TokenVerifier_RoundTrip(t *testing.T) {
	req := require.New(t)
	verifier := NewTokenVerifier("secret")

	identity := Identity{UserID: "alice", Role: domain.RoleSeller}
	token, err := verifier.Sign(identity, time.Hour)
	req.NoError(err)

	got, err := verifier.Verify(token)
	req.NoError(err)
	req.Equal(identity, got)
}

func Test_TokenVerifier_RejectsWrongSecret(t *testing.T) {
	req := require.New(t)

	token, err := NewTokenVerifier("secret").Sign(Identity{UserID: "alice", Role: domain.RoleCustomer}, time.Hour)
	req.NoError(err)

	_, err = NewTokenVerifier("other-secret").Verify(token)
	req.Error(err)
}

func Test_TokenVerifier_RejectsExpiredToken(t *testing.T) {
	req := require.New(t)
	verifier := NewTokenVerifier("secret")

	token, err := verifier.Sign(Identity{UserID: "alice", Role: domain.RoleCustomer}, -time.Minute)
	req.NoError(err)

	_, err = verifier.Verify(token)
	req.ErrorIs(err, jwt.ErrTokenExpired)
}

func Test_Role_CanResolve(t *testing.T) {
	req := require.New(t)
	req.True(domain.RoleSupport.CanResolve())
	req.True(domain.RoleAdmin.CanResolve())
	req.False(domain.RoleCustomer.CanResolve())
	req.False(domain.RoleSeller.CanResolve())
}

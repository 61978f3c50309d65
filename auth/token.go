package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"market-chat/domain"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	Disabled bool   `json:"disabled,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier turns a signed token from the authentication
// collaborator into a verified Identity. The secret is shared with that
// collaborator and loaded from configuration.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) TokenVerifier {
	return TokenVerifier{secret: []byte(secret)}
}

// Verify parses and validates the signature and expiration of a JWT string.
func (v TokenVerifier) Verify(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return Identity{}, jwt.ErrSignatureInvalid
	}
	return Identity{
		UserID:   domain.UserID(claims.UserID),
		Role:     domain.Role(claims.Role),
		Disabled: claims.Disabled,
	}, nil
}

// Sign creates a signed JWT for a specific identity. Used by tests and
// local tooling; in production the authentication collaborator issues
// the tokens.
func (v TokenVerifier) Sign(identity Identity, duration time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID:   string(identity.UserID),
		Role:     string(identity.Role),
		Disabled: identity.Disabled,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "market-chat",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

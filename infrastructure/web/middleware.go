package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"market-chat/auth"
)

const identityKey = "identity"

// AuthRequired extracts the bearer token, verifies it and injects the
// resulting identity into the request context. Browser WebSocket
// clients cannot set headers on the upgrade request, so a token query
// parameter is accepted as a fallback.
func AuthRequired(verifier auth.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token is missing"})
			return
		}
		identity, err := verifier.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityFrom(c *gin.Context) auth.Identity {
	value, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}
	}
	identity, _ := value.(auth.Identity)
	return identity
}

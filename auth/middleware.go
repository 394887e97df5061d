package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// ContextClaims is the gin context key the middleware stores the
	// validated claims under.
	ContextClaims = "auth_claims"
)

// RequireAuth rejects requests without a valid access token.
func RequireAuth(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ExtractBearer(c.GetHeader("Authorization"))
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		claims, err := m.Validate(tokenStr)
		if err != nil || claims.TokenType != "access" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireStaff rejects authenticated requests from non-staff users. It must
// run after RequireAuth.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentClaims(c)
		if claims == nil || !claims.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff only"})
			return
		}
		c.Next()
	}
}

// CurrentClaims returns the claims set by RequireAuth, or nil.
func CurrentClaims(c *gin.Context) *Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// CurrentUserID returns the authenticated user id, or 0.
func CurrentUserID(c *gin.Context) uint {
	if claims := CurrentClaims(c); claims != nil {
		return claims.UserID
	}
	return 0
}

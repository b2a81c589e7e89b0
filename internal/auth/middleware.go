package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by RequireAuth.
const (
	CtxUserID = "userId"
	CtxRole   = "role"
)

// RequireAuth enforces bearer JWT tokens signed with HS256. A missing or
// malformed header is 401; a token that fails verification (bad signature,
// expired) is 403, matching the distinction between "no credentials" and
// "bad credentials".
func RequireAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid token"})
			return
		}
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// UserID returns the authenticated user id set by RequireAuth.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserID)
}

// Role returns the authenticated role set by RequireAuth.
func Role(c *gin.Context) string {
	return c.GetString(CtxRole)
}

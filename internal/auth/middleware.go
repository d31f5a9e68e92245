package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"geoattend/internal/session"
)

const actorKey = "actor"

// RequireUser enforces bearer JWT tokens signed with HS256 and stores
// the authenticated actor on the gin context.
func RequireUser(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(actorKey, session.Actor{ID: claims.Subject, Role: claims.Role})
		c.Next()
	}
}

// ActorFrom returns the authenticated actor set by RequireUser.
func ActorFrom(c *gin.Context) session.Actor {
	v, _ := c.Get(actorKey)
	actor, _ := v.(session.Actor)
	return actor
}

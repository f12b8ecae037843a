package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timesheet/internal/auth"
	"timesheet/internal/domain"
	"timesheet/internal/service"
)

// actorKey is the gin context key holding the authenticated actor.
const actorKey = "actor"

// Authenticate returns middleware that verifies the bearer token, re-checks
// the account against the store (must exist and be ACTIVE, token must
// postdate the last password change) and attaches the actor to the context.
func Authenticate(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := auth.ParseBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortUnauthorized(c, "no token provided")
			return
		}

		actor, err := authService.VerifyAccess(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireRoles returns middleware that rejects actors whose role is not in
// the allowlist. SUPER_ADMIN passes wherever ADMIN does.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
		if role == domain.RoleAdmin {
			allowed[domain.RoleSuperAdmin] = true
		}
	}

	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			abortUnauthorized(c, "you are not authorized")
			return
		}

		if len(allowed) > 0 && !allowed[actor.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "forbidden access",
			})
			return
		}

		c.Next()
	}
}

// CurrentActor returns the authenticated actor attached by Authenticate.
func CurrentActor(c *gin.Context) (domain.Actor, bool) {
	value, exists := c.Get(actorKey)
	if !exists {
		return domain.Actor{}, false
	}
	actor, ok := value.(domain.Actor)
	return actor, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}

package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	// ActorHeader carries the identifier of the user performing the request
	ActorHeader = "X-Actor"
	// ActorRoleHeader carries the role of the user performing the request
	ActorRoleHeader = "X-Actor-Role"

	// ActorKey is the gin context key for the acting user
	ActorKey = "actor"
	// ActorRoleKey is the gin context key for the acting user's role
	ActorRoleKey = "actor_role"
)

// Actor resolves the acting user from request headers and stores it in the
// gin context for handlers and request logging. Requests without an actor
// header pass through; handlers that require one reject them individually.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor := c.GetHeader(ActorHeader); actor != "" {
			c.Set(ActorKey, actor)
		}
		if role := c.GetHeader(ActorRoleHeader); role != "" {
			c.Set(ActorRoleKey, role)
		}
		c.Next()
	}
}

// GetActor returns the acting user from the gin context, if resolved
func GetActor(c *gin.Context) string {
	return c.GetString(ActorKey)
}

// GetActorRole returns the acting user's role from the gin context, if resolved
func GetActorRole(c *gin.Context) string {
	return c.GetString(ActorRoleKey)
}

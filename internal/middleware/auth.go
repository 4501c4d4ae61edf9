package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/interclub/organizer/internal/authz"
	"github.com/interclub/organizer/internal/user"
	"github.com/interclub/organizer/pkg/token"
)

const (
	// ActorKey is the gin context key holding the authenticated authz.Actor.
	ActorKey = "auth_actor"
)

// AuthMiddleware validates the bearer token and loads the actor from the
// users table, so role changes (e.g. player promoted to captain) take effect
// without reissuing the token.
func AuthMiddleware(jwtSecret string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		bearerToken := strings.Split(authHeader, " ")
		if len(bearerToken) != 2 || strings.ToLower(bearerToken[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format. Expected: Bearer <token>"})
			return
		}

		claims, err := token.ValidateJWT(bearerToken[1], jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token: " + err.Error()})
			return
		}

		var u user.User
		if err := db.First(&u, claims.UserID).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found or inactive"})
			return
		}

		c.Set(ActorKey, authz.Actor{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			ClubID:    u.ClubID,
			Role:      u.Role,
		})
		c.Next()
	}
}

// GetActor extracts the authenticated actor from the context.
func GetActor(c *gin.Context) (authz.Actor, error) {
	v, exists := c.Get(ActorKey)
	if !exists {
		return authz.Actor{}, errors.New("actor not found in context")
	}
	actor, ok := v.(authz.Actor)
	if !ok {
		return authz.Actor{}, errors.New("actor in context has unexpected type")
	}
	return actor, nil
}

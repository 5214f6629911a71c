package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/Djacko3532/telemedecin/internal/domain"
)

// Session keys written by the auth collaborator. The signaling server
// trusts the tuple and performs no verification of its own.
const (
	sessionKeyUserID = "uid"
	sessionKeyRole   = "role"
	sessionKeyName   = "name"
)

// AuthRequired lifts the verified (userId, role, displayName) tuple
// from the cookie session onto the gin context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		uid, _ := sess.Get(sessionKeyUserID).(string)
		role, _ := sess.Get(sessionKeyRole).(string)
		name, _ := sess.Get(sessionKeyName).(string)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}
		user, err := domain.NewUser(domain.UserID(uid), domain.Role(role), name)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid session identity"})
			return
		}
		c.Set("user", user)
		c.Next()
	}
}

// RequireRole guards medecin-only routes.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("user")
		if !ok || v.(*domain.User).Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "insufficient role"})
			return
		}
		c.Next()
	}
}

// HandleLogin writes the identity tuple into the session. It stands in
// for the external auth service in development and tests; production
// deployments terminate auth upstream and only the session cookie
// reaches this server.
func HandleLogin(c *gin.Context) {
	var req struct {
		UserID      string `json:"userId" binding:"required"`
		Role        string `json:"role" binding:"required"`
		DisplayName string `json:"displayName" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "missing or invalid fields"})
		return
	}
	if _, err := domain.ParseRole(req.Role); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "unknown role"})
		return
	}
	sess := sessions.Default(c)
	sess.Set(sessionKeyUserID, req.UserID)
	sess.Set(sessionKeyRole, req.Role)
	sess.Set(sessionKeyName, req.DisplayName)
	if err := sess.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "could not save session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session established"})
}

func currentUser(c *gin.Context) *domain.User {
	v, _ := c.Get("user")
	return v.(*domain.User)
}

package auth

import "github.com/gin-gonic/gin"

const (
	userIDKey    = "userID"
	userEmailKey = "userEmail"
	userRoleKey  = "userRole"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(userEmailKey)
}

// GetUserRole returns the role resolved for the current request or empty string.
// The role is only present after the actor-loading middleware ran.
func GetUserRole(c *gin.Context) string {
	return c.GetString(userRoleKey)
}

// SetUserRole stores the role of the authenticated user for later handlers.
func SetUserRole(c *gin.Context, role string) {
	c.Set(userRoleKey, role)
}

// SetIdentity stores the identity carried by a validated token.
func SetIdentity(c *gin.Context, userID, email string) {
	c.Set(userIDKey, userID)
	c.Set(userEmailKey, email)
}

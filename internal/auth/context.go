package auth

import "github.com/gin-gonic/gin"

// Keys under which AuthRequired stores the caller's identity in the gin
// context.
const (
	ctxKeyUserID    = "userID"
	ctxKeyUserEmail = "userEmail"
)

// GetUserID returns the authenticated caller's user ID, or "" when the
// request did not pass AuthRequired.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxKeyUserID)
}

// GetUserEmail returns the authenticated caller's email, or "" when the
// request did not pass AuthRequired.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(ctxKeyUserEmail)
}

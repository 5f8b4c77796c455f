package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/id"
	"github.com/GriffinCanCode/ZenCode/backend/internal/shared/utils"
)

const (
	// HeaderUserID carries the caller's user id in both directions
	HeaderUserID = "X-User-ID"
	// ContextUserID is the gin context key holding the resolved user id
	ContextUserID = "user_id"
)

// User resolves the caller's id from X-User-ID. Callers without one are
// assigned a fresh UUID, returned in the response header.
func User() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		if userID == "" {
			userID = id.NewUserID().String()
		} else if err := utils.ValidateID(userID, HeaderUserID, true); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"status": "error",
				"error":  err.Error(),
				"kind":   "InvalidRequest",
			})
			return
		}

		c.Set(ContextUserID, userID)
		c.Header(HeaderUserID, userID)
		c.Next()
	}
}

// UserID returns the id stored by User
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

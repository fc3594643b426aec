package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dreamcut-backend/internal/middleware"
	"dreamcut-backend/internal/models"
)

// currentUserID reads the authenticated user set by AuthMiddleware. It
// writes the 401 itself and returns false when there is none.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized"})
		return uuid.Nil, false
	}

	s, _ := raw.(string)
	userID, err := uuid.Parse(s)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized", Message: "invalid user id"})
		return uuid.Nil, false
	}
	return userID, true
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type pledgeRequest struct {
	Date string `json:"date"`
}

// Pledge records the daily pledge for the client's local date.
func (h *Handler) Pledge(c *gin.Context) {
	var input pledgeRequest
	if err := c.ShouldBindJSON(&input); err != nil || input.Date == "" {
		badRequest(c, "pledge", "date is required (YYYY-MM-DD)")
		return
	}

	user, result, err := h.Users.Pledge(c.Request.Context(), c.Param("id"), input.Date)
	if err != nil {
		respondError(c, "pledge", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"result": result,
	})
}

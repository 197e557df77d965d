package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListUsers(c *gin.Context) {
	keys, err := h.Users.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, "list_users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": len(keys),
		"users": keys,
	})
}

func (h *Handler) Summaries(c *gin.Context) {
	report, err := h.Users.Summaries(c.Request.Context(), h.Cfg.SummaryConcurrency)
	if err != nil {
		respondError(c, "summaries", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

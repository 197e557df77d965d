package handlers

import (
	"net/http"

	"github.com/Bekzhanizb/QuitTrackerBackend/middleware"
	"github.com/Bekzhanizb/QuitTrackerBackend/models"
	"github.com/Bekzhanizb/QuitTrackerBackend/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email string `json:"email"`
}

// Login creates the user on first sight and returns a session token.
func (h *Handler) Login(c *gin.Context) {
	var input loginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "login", "invalid request body")
		return
	}

	email := utils.NormalizeEmail(input.Email)
	if err := middleware.ValidateEmail(email); err != nil {
		badRequest(c, "login", "a valid email is required")
		return
	}

	user, created, err := h.Users.Login(c.Request.Context(), email)
	if err != nil {
		respondError(c, "login", err)
		return
	}
	h.respondSession(c, user, created)
}

// Guest starts an anonymous session under a fresh guest id.
func (h *Handler) Guest(c *gin.Context) {
	user, err := h.Users.CreateGuest(c.Request.Context())
	if err != nil {
		respondError(c, "guest", err)
		return
	}
	h.respondSession(c, user, true)
}

func (h *Handler) respondSession(c *gin.Context, user models.UserRecord, created bool) {
	token, err := utils.GenerateToken([]byte(h.Cfg.JWTSecret), user.ID, user.IsGuest)
	if err != nil {
		utils.Logger.Error("token_generation_failed", zap.String("user_id", user.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"user":  user,
		"token": token,
	})
}

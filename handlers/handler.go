package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Bekzhanizb/QuitTrackerBackend/cache"
	"github.com/Bekzhanizb/QuitTrackerBackend/celebrate"
	"github.com/Bekzhanizb/QuitTrackerBackend/config"
	"github.com/Bekzhanizb/QuitTrackerBackend/services"
	"github.com/Bekzhanizb/QuitTrackerBackend/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	Cfg          config.Config
	Users        *services.UserService
	Celebrations *services.CelebrationHub
	Cache        *cache.Cache
}

func New(cfg config.Config, users *services.UserService, hub *services.CelebrationHub, c *cache.Cache) *Handler {
	return &Handler{
		Cfg:          cfg,
		Users:        users,
		Celebrations: hub,
		Cache:        c,
	}
}

// respondError maps domain errors onto status codes. Anything unknown is a
// 500 and gets logged.
func respondError(c *gin.Context, handler string, err error) {
	status := http.StatusInternalServerError
	kind := "internal"

	switch {
	case errors.Is(err, services.ErrUserNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrDuplicateEntry):
		status, kind = http.StatusConflict, "duplicate"
	case errors.Is(err, services.ErrOnboardingIncomplete):
		status, kind = http.StatusConflict, "onboarding"
	case errors.Is(err, celebrate.ErrNotShowing):
		status, kind = http.StatusConflict, "not_showing"
	case errors.Is(err, services.ErrInvalidPledgeDate), errors.Is(err, services.ErrInvalidImport),
		errors.Is(err, services.ErrInvalidProfile):
		status, kind = http.StatusBadRequest, "invalid"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status, kind = http.StatusServiceUnavailable, "cancelled"
	}

	utils.ErrorCount.WithLabelValues(handler, kind).Inc()
	if status >= 500 {
		utils.Logger.Error("request_failed",
			zap.String("handler", handler),
			zap.String("user_id", c.Param("id")),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, handler, msg string) {
	utils.ErrorCount.WithLabelValues(handler, "validation").Inc()
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

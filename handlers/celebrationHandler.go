package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/celebrate"
	"github.com/Bekzhanizb/QuitTrackerBackend/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) GetCelebrations(c *gin.Context) {
	view, err := h.Celebrations.Tick(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "celebrations", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) DismissCelebration(c *gin.Context) {
	category, ok := celebrate.ParseCategory(c.Param("category"))
	if !ok {
		badRequest(c, "dismiss_celebration", "unknown celebration category")
		return
	}

	view, err := h.Celebrations.Dismiss(c.Request.Context(), c.Param("id"), category, c.Param("itemId"))
	if err != nil {
		respondError(c, "dismiss_celebration", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// CelebrationStream pushes a celebration event per tick until the client
// goes away.
func (h *Handler) CelebrationStream(c *gin.Context) {
	id := c.Param("id")
	interval := h.Cfg.CelebrationTick
	if interval <= 0 {
		interval = time.Second
	}

	started := false
	err := h.Celebrations.Stream(c.Request.Context(), id, interval, func(v celebrate.View) error {
		if !started {
			started = true
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
		}
		c.SSEvent("celebration", v)
		c.Writer.Flush()
		return nil
	})

	switch {
	case err == nil:
	case !started:
		respondError(c, "celebration_stream", err)
	case errors.Is(err, c.Request.Context().Err()):
	default:
		utils.Logger.Warn("celebration_stream_stopped", zap.String("user_id", id), zap.Error(err))
	}
}

package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Bekzhanizb/QuitTrackerBackend/middleware"
	"github.com/Bekzhanizb/QuitTrackerBackend/models"
	"github.com/Bekzhanizb/QuitTrackerBackend/progress"
	"github.com/Bekzhanizb/QuitTrackerBackend/services"
	"github.com/Bekzhanizb/QuitTrackerBackend/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "get_user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type profileRequest struct {
	Profile *models.Profile `json:"profile"`
}

func (h *Handler) SetProfile(c *gin.Context) {
	var input profileRequest
	if err := c.ShouldBindJSON(&input); err != nil || input.Profile == nil {
		badRequest(c, "set_profile", "profile is required")
		return
	}
	if err := middleware.ValidateStruct(input.Profile); err != nil {
		badRequest(c, "set_profile", middleware.ValidationMessage(err))
		return
	}

	user, err := h.Users.SetProfile(c.Request.Context(), c.Param("id"), *input.Profile)
	if err != nil {
		respondError(c, "set_profile", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Progress returns the derived snapshot. ?days=N adds the trailing N-day
// history.
func (h *Handler) Progress(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > progress.MaxHistoryDays {
			badRequest(c, "progress", fmt.Sprintf("days must be between 1 and %d", progress.MaxHistoryDays))
			return
		}
		days = n
	}

	snap, rec, err := h.Users.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "progress", err)
		return
	}
	if days > 0 {
		snap.History = progress.History(rec.Profile, rec.Journal, snap.ComputedAt, days)
	}
	c.JSON(http.StatusOK, snap)
}

// Reset restarts the clock and drops pending celebrations.
func (h *Handler) Reset(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	user, err := h.Users.Reset(ctx, id)
	if err != nil {
		respondError(c, "reset", err)
		return
	}
	if err := h.Celebrations.Reset(ctx, id); err != nil {
		utils.Logger.Warn("celebration_reset_failed", zap.String("user_id", id), zap.Error(err))
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Import(c *gin.Context) {
	var payload services.ImportPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "import", "invalid backup payload")
		return
	}
	if payload.Profile != nil {
		if err := middleware.ValidateStruct(payload.Profile); err != nil {
			badRequest(c, "import", "profile: "+middleware.ValidationMessage(err))
			return
		}
	}
	for i := range payload.Journal {
		if err := middleware.ValidateStruct(payload.Journal[i]); err != nil {
			badRequest(c, "import", fmt.Sprintf("journal[%d]: %s", i, middleware.ValidationMessage(err)))
			return
		}
	}

	user, err := h.Users.Import(c.Request.Context(), c.Param("id"), payload)
	if err != nil {
		respondError(c, "import", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Export(c *gin.Context) {
	backup, err := h.Users.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "export", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="quit-tracker-%s.json"`, backup.ExportedAt.Format("2006-01-02")))
	c.JSON(http.StatusOK, backup)
}

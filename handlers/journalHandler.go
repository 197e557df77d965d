package handlers

import (
	"net/http"

	"github.com/Bekzhanizb/QuitTrackerBackend/middleware"
	"github.com/Bekzhanizb/QuitTrackerBackend/models"
	"github.com/gin-gonic/gin"
)

type entryRequest struct {
	Entry *models.JournalEntry `json:"entry"`
}

func bindEntry(c *gin.Context, handler string) (models.JournalEntry, bool) {
	var input entryRequest
	if err := c.ShouldBindJSON(&input); err != nil || input.Entry == nil {
		badRequest(c, handler, "entry is required")
		return models.JournalEntry{}, false
	}
	if id := c.Param("entryId"); id != "" {
		input.Entry.ID = id
	}
	if err := middleware.ValidateStruct(input.Entry); err != nil {
		badRequest(c, handler, middleware.ValidationMessage(err))
		return models.JournalEntry{}, false
	}
	return *input.Entry, true
}

func (h *Handler) AppendJournal(c *gin.Context) {
	entry, ok := bindEntry(c, "append_journal")
	if !ok {
		return
	}
	user, err := h.Users.AppendEntry(c.Request.Context(), c.Param("id"), entry)
	if err != nil {
		respondError(c, "append_journal", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// UpdateJournal replaces an entry; an unknown entry id leaves the record as is.
func (h *Handler) UpdateJournal(c *gin.Context) {
	entry, ok := bindEntry(c, "update_journal")
	if !ok {
		return
	}
	user, err := h.Users.UpdateEntry(c.Request.Context(), c.Param("id"), entry)
	if err != nil {
		respondError(c, "update_journal", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) RemoveJournal(c *gin.Context) {
	user, err := h.Users.RemoveEntry(c.Request.Context(), c.Param("id"), c.Param("entryId"))
	if err != nil {
		respondError(c, "remove_journal", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

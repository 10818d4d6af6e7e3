package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/meeting-summarizer/internal/domain/history"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
)

// ListSummaries returns the caller's saved summaries, newest first.
func (h *Handler) ListSummaries(c *gin.Context) {
	owner, ok := summaryOwner(c)
	if !ok {
		return
	}
	records, err := h.historySvc.List(c.Request.Context(), owner)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": records})
}

// SaveSummary persists an edited summary for the caller.
func (h *Handler) SaveSummary(c *gin.Context) {
	owner, ok := summaryOwner(c)
	if !ok {
		return
	}
	var req history.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "Invalid request body", err))
		return
	}
	id, err := h.historySvc.Save(c.Request.Context(), owner, req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// GetSummary returns one of the caller's summaries.
func (h *Handler) GetSummary(c *gin.Context) {
	owner, ok := summaryOwner(c)
	if !ok {
		return
	}
	record, err := h.historySvc.Get(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": record})
}

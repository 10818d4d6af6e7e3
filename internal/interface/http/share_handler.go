package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/meeting-summarizer/internal/domain/mailer"
)

// Share emails a summary. Every outcome uses the {success, message} body.
func (h *Handler) Share(c *gin.Context) {
	var req mailer.ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, mailer.ShareResponse{Message: "Invalid request body"})
		return
	}

	resp, err := h.mailerSvc.Share(c.Request.Context(), req)
	if err != nil {
		httpErr := fromAppError(err)
		if httpErr.Status >= http.StatusInternalServerError {
			h.logger.Error("share failed", "error", err)
		}
		c.JSON(httpErr.Status, mailer.ShareResponse{Message: httpErr.Message})
		return
	}
	if !resp.Success {
		h.logger.Warn("share delivery failed", "provider", resp.Provider, "recipients", len(req.To), "message", resp.Message)
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TestEmail probes the transactional and SMTP backends with a test message.
func (h *Handler) TestEmail(c *gin.Context) {
	report, err := h.mailerSvc.TestDelivery(c.Request.Context(), c.Query("email"))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	if !report.Transactional.Success && !report.SMTP.Success {
		h.logger.Warn("email test failed for every backend")
	}
	c.JSON(http.StatusOK, report)
}

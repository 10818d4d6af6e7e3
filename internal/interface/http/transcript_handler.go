package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/meeting-summarizer/internal/domain/transcript"
	apperrors "github.com/yanqian/meeting-summarizer/pkg/errors"
)

// multipartOverhead leaves room for boundaries and part headers around the file.
const multipartOverhead = 64 << 10

// UploadTranscript extracts transcript text from an uploaded file.
func (h *Handler) UploadTranscript(c *gin.Context) {
	maxBytes := h.cfg.Upload.MaxBytes
	if maxBytes <= 0 {
		maxBytes = transcript.DefaultMaxBytes
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput,
				fmt.Sprintf("File exceeds the maximum size of %d bytes", maxBytes), err))
			return
		}
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "File is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, "Failed to read upload", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, apperrors.CodeInternal, "Failed to read upload", err))
		return
	}

	result, err := h.transcriptSvc.Ingest(c.Request.Context(), transcript.Upload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     data,
	})
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, result)
}

package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docbrief/internal/pkg/response"
	"docbrief/internal/service"
)

// maxUploadBytes is the transport-layer cap; the client enforces its own
// tighter 10 MiB limit before uploading.
const maxUploadBytes = 20 << 20

type SummarizeHandler struct {
	summarize *service.SummarizeService
	auth      *service.AuthService
	tracking  *service.TrackingService
}

func NewSummarizeHandler(summarize *service.SummarizeService, auth *service.AuthService, tracking *service.TrackingService) *SummarizeHandler {
	return &SummarizeHandler{summarize: summarize, auth: auth, tracking: tracking}
}

func (h *SummarizeHandler) SummarizePDF(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		h.tracking.Emit("UPLOAD_FAILED_BACKEND", "", map[string]interface{}{"reason": "NO_FILE"})
		response.Message(c, http.StatusBadRequest, "No PDF uploaded")
		return
	}
	if file.Header.Get("Content-Type") != "application/pdf" {
		h.tracking.Emit("UPLOAD_FAILED_BACKEND", "", map[string]interface{}{"reason": "INVALID_MIMETYPE"})
		response.Message(c, http.StatusBadRequest, "Uploaded file must be a PDF")
		return
	}
	if file.Size > maxUploadBytes {
		h.tracking.Emit("UPLOAD_FAILED_BACKEND", "", map[string]interface{}{"reason": "FILE_TOO_LARGE"})
		response.Message(c, http.StatusBadRequest, "File too large (max 20MB)")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Message(c, http.StatusBadRequest, "Failed to read file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(io.LimitReader(opened, maxUploadBytes+1))
	if err != nil || int64(len(data)) > maxUploadBytes {
		response.Message(c, http.StatusBadRequest, "Failed to read file")
		return
	}

	// A bad or missing token downgrades to anonymous; accounting is
	// advisory here, not a security boundary.
	userID := ""
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		if id, err := h.auth.VerifyAccess(strings.TrimPrefix(header, "Bearer ")); err == nil {
			userID = id
		}
	}

	result, err := h.summarize.Summarize(c.Request.Context(), service.SummarizeInput{
		UserID:   userID,
		Filename: file.Filename,
		MimeType: file.Header.Get("Content-Type"),
		Size:     file.Size,
		Data:     data,
		BaseURL:  requestBaseURL(c),
	})
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}
	if result.Rejection != "" {
		response.JSON(c, http.StatusOK, gin.H{"message": result.Rejection, "reason": result.Reason})
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"summary":     result.Summary,
		"imageBase64": result.ImageBase64,
		"videoBase64": result.VideoBase64,
	})
}

func (h *SummarizeHandler) respondPipelineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExtractionFailed):
		response.Message(c, http.StatusInternalServerError, "Failed to extract text from PDF")
	case errors.Is(err, service.ErrEmptyDocument):
		response.Message(c, http.StatusBadRequest, "PDF contains no readable text (may be scanned).")
	case errors.Is(err, service.ErrModelUnavailable):
		response.Message(c, http.StatusServiceUnavailable, "The summarization model is temporarily unavailable. Please try again later.")
	case errors.Is(err, service.ErrBadModelOutput):
		response.Message(c, http.StatusInternalServerError, "Summarization failed. Model returned invalid JSON.")
	default:
		handleError(c, err)
	}
}

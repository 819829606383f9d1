package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docbrief/internal/model"
	"docbrief/internal/pkg/response"
	"docbrief/internal/service"
)

type TrackHandler struct {
	tracking *service.TrackingService
}

func NewTrackHandler(tracking *service.TrackingService) *TrackHandler {
	return &TrackHandler{tracking: tracking}
}

type trackRequest struct {
	EventID   string                 `json:"event_id"`
	EventName string                 `json:"event_name"`
	Timestamp string                 `json:"timestamp"`
	SessionID string                 `json:"session_id"`
	UserID    string                 `json:"user_id"`
	Source    string                 `json:"source"`
	Payload   map[string]interface{} `json:"payload"`
}

func (h *TrackHandler) Track(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.JSON(c, http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid event payload"})
		return
	}
	event := &model.Event{
		EventID:   req.EventID,
		EventName: req.EventName,
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Source:    req.Source,
		Payload:   req.Payload,
	}
	if req.Source == "" {
		event.Source = "frontend"
	}
	if ts, err := time.Parse(time.RFC3339, req.Timestamp); err == nil {
		event.Timestamp = ts.UnixMilli()
	}
	recorded, err := h.tracking.Record(c.Request.Context(), event)
	if err != nil {
		response.JSON(c, http.StatusInternalServerError, gin.H{"status": "error", "message": "Failed to record event"})
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "success", "event_id": recorded.EventID})
}

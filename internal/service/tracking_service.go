package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"docbrief/internal/model"
	"docbrief/internal/repo"
)

const trackingWriteTimeout = 10 * time.Second

type TrackingService struct {
	events *repo.EventRepo
}

func NewTrackingService(events *repo.EventRepo) *TrackingService {
	return &TrackingService{events: events}
}

// Record normalizes and persists a client-submitted event. Missing ids and
// names get fallbacks rather than rejections: the analytics log prefers a
// partial record over a dropped one.
func (s *TrackingService) Record(ctx context.Context, event *model.Event) (*model.Event, error) {
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.EventName == "" {
		event.EventName = "UNKNOWN_EVENT"
	}
	if event.Source == "" {
		event.Source = "backend"
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	event.ServerTimestamp = time.Now().UnixMilli()
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// Emit writes a server-side event on a detached goroutine. It never blocks
// the caller and never surfaces a failure; the write runs under its own
// deadline, decoupled from the request context.
func (s *TrackingService) Emit(eventName, userID string, payload map[string]interface{}) {
	event := &model.Event{
		EventID:   uuid.NewString(),
		EventName: eventName,
		Timestamp: time.Now().UnixMilli(),
		UserID:    userID,
		Source:    "backend",
		Payload:   payload,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), trackingWriteTimeout)
		defer cancel()
		if _, err := s.Record(ctx, event); err != nil {
			logutil.GetLogger(ctx).Warn("backend tracking failed",
				zap.String("event", eventName), zap.Error(err))
		}
	}()
}

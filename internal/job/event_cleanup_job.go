package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"docbrief/internal/repo"
)

// EventCleanupJob prunes old analytics events so the table does not grow
// without bound.
type EventCleanupJob struct {
	events   *repo.EventRepo
	keepDays int
}

func NewEventCleanupJob(events *repo.EventRepo, keepDays int) *EventCleanupJob {
	return &EventCleanupJob{events: events, keepDays: keepDays}
}

func (j *EventCleanupJob) Name() string {
	return "event_cleanup"
}

func (j *EventCleanupJob) Run(ctx context.Context) error {
	if j.events == nil {
		return nil
	}
	keepDays := j.keepDays
	if keepDays <= 0 {
		keepDays = 90
	}
	cutoff := time.Now().AddDate(0, 0, -keepDays).UnixMilli()
	deleted, err := j.events.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("event retention applied",
		zap.Int64("deleted", deleted), zap.Int("keep_days", keepDays))
	return nil
}

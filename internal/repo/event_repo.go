package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"docbrief/internal/model"
	"docbrief/internal/pkg/dbutil"
)

type EventRepo struct {
	db *sql.DB
}

func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) Create(ctx context.Context, event *model.Event) error {
	payload := event.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"event_id":   event.EventID,
		"event_name": event.EventName,
		"ts":         event.Timestamp,
		"session_id": event.SessionID,
		"user_id":    event.UserID,
		"source":     event.Source,
		"payload":    string(encoded),
		"server_ts":  event.ServerTimestamp,
	}
	sqlStr, args, err := builder.BuildInsert("events", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// DeleteBefore prunes events older than the cutoff, returning the number
// of rows removed. Used by the retention job.
func (r *EventRepo) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE ts < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Track sends an analytics event. It is fire-and-forget: failures are
// returned but callers are expected to ignore them, and nothing blocks the
// user flow on analytics.
func (c *Client) Track(ctx context.Context, eventName string, payload map[string]interface{}) error {
	event := map[string]interface{}{
		"event_id":   uuid.NewString(),
		"event_name": eventName,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"session_id": c.sessionID(),
		"user_id":    c.storage.Get(keyUserID),
		"source":     "frontend",
		"payload":    payload,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, "/track", bytes.NewReader(body), "application/json", nil)
}

// sessionID returns the per-install session id, minting one on first use.
func (c *Client) sessionID() string {
	if sid := c.storage.Get(keySessionID); sid != "" {
		return sid
	}
	sid := uuid.NewString()
	c.storage.Set(keySessionID, sid)
	return sid
}

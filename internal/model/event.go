package model

// Event is one row in the analytics log. Payload is schemaless and stored
// as JSONB; indexes live on the envelope fields only.
type Event struct {
	EventID         string                 `json:"event_id"`
	EventName       string                 `json:"event_name"`
	Timestamp       int64                  `json:"timestamp"`
	SessionID       string                 `json:"session_id"`
	UserID          string                 `json:"user_id"`
	Source          string                 `json:"source"`
	Payload         map[string]interface{} `json:"payload"`
	ServerTimestamp int64                  `json:"server_timestamp"`
}

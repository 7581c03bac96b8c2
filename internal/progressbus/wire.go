package progressbus

import "encoding/json"

// wireEvent is the stable on-the-wire shape of a progress event, decoupled
// from Event's Go field names so downstream consumers (the CLI's
// JSON-lines subscriber, external tooling) aren't coupled to internal
// struct layout.
type wireEvent struct {
	Type string   `json:"type"`
	Data wireData `json:"data"`
}

type wireData struct {
	JobID     string         `json:"job_id"`
	EventType string         `json:"event_type"`
	Percent   float64        `json:"percentage"`
	Stage     string         `json:"stage,omitempty"`
	Message   string         `json:"message,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// WireEvent renders e as the module's stable progress-event wire form:
// {"type": "progress_update", "data": {...}}.
func (e Event) WireEvent() ([]byte, error) {
	return json.Marshal(wireEvent{
		Type: "progress_update",
		Data: wireData{
			JobID:     e.JobID,
			EventType: string(e.Kind),
			Stage:     e.Stage,
			Percent:   e.Percent,
			Message:   e.Message,
			Payload:   e.Payload,
			Timestamp: e.Timestamp.Unix(),
		},
	})
}

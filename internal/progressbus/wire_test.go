package progressbus

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWireEvent_StableShape(t *testing.T) {
	ev := Event{
		JobID:     "job-1",
		Kind:      EventProgress,
		Stage:     "encoding",
		Percent:   42.5,
		Message:   "segment 3 of 7",
		Timestamp: time.Unix(1700000000, 0),
	}

	data, err := ev.WireEvent()
	if err != nil {
		t.Fatalf("WireEvent() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if decoded["type"] != "progress_update" {
		t.Errorf("type = %v, want %q", decoded["type"], "progress_update")
	}

	payload, ok := decoded["data"].(map[string]any)
	if !ok {
		t.Fatalf("data field is not an object: %v", decoded["data"])
	}
	if payload["job_id"] != "job-1" {
		t.Errorf("data.job_id = %v, want %q", payload["job_id"], "job-1")
	}
	if payload["event_type"] != string(EventProgress) {
		t.Errorf("data.event_type = %v, want %q", payload["event_type"], EventProgress)
	}
	if payload["percentage"] != 42.5 {
		t.Errorf("data.percentage = %v, want 42.5", payload["percentage"])
	}
	if payload["stage"] != "encoding" {
		t.Errorf("data.stage = %v, want %q", payload["stage"], "encoding")
	}
}

func TestWireEvent_OmitsEmptyOptionalFields(t *testing.T) {
	ev := Event{JobID: "job-2", Kind: EventStarted, Timestamp: time.Unix(1700000000, 0)}

	data, err := ev.WireEvent()
	if err != nil {
		t.Fatalf("WireEvent() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	payload := decoded["data"].(map[string]any)
	if _, present := payload["stage"]; present {
		t.Error("data.stage should be omitted when empty")
	}
	if _, present := payload["message"]; present {
		t.Error("data.message should be omitted when empty")
	}
}

package fieldlapse

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	fieldlapseerrors "github.com/fieldlapse/fieldlapse/internal/errors"
)

func newTestSystem(t *testing.T) *System {
	t.Helper()
	sys, err := New(WithLogDir(t.TempDir()), WithWorkers(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(sys.Close)
	return sys
}

func TestNew_AppliesOptionsAndValidates(t *testing.T) {
	sys := newTestSystem(t)
	if sys.cfg.Workers != 1 {
		t.Errorf("Workers = %d, want 1", sys.cfg.Workers)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(WithWorkers(-1))
	if err == nil {
		t.Fatal("New() with a negative worker count returned nil error")
	}
}

func TestSubmit_DefaultsMissingProfileToConfigured(t *testing.T) {
	sys := newTestSystem(t)

	id, err := sys.Submit(Request{InputPath: "/in.mp4", OutputPath: "/out.mp4"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap, ok := sys.Status(id)
	if !ok {
		t.Fatal("Status() after Submit() = false")
	}
	if snap.ProfileName != "balanced" {
		t.Errorf("ProfileName = %q, want %q", snap.ProfileName, "balanced")
	}
}

func TestSubmit_UnknownProfile(t *testing.T) {
	sys := newTestSystem(t)

	_, err := sys.Submit(Request{InputPath: "/in.mp4", OutputPath: "/out.mp4", ProfileName: "does_not_exist"})
	if !fieldlapseerrors.IsKind(err, fieldlapseerrors.KindUnknownProfile) {
		t.Errorf("error kind = %v, want KindUnknownProfile", err)
	}
}

func TestAddProfile_ThenSubmitAccepted(t *testing.T) {
	sys := newTestSystem(t)

	custom := ActivityProfile{
		Name:                     "nightcage",
		Description:              "test profile",
		High:                     ProfileSettings{CRF: 18, FPS: 30, Preset: "medium", EncoderProfile: "high"},
		Medium:                   ProfileSettings{CRF: 22, FPS: 15, Preset: "medium", EncoderProfile: "high"},
		Low:                      ProfileSettings{CRF: 26, FPS: 5, Preset: "medium", EncoderProfile: "main"},
		Inactive:                 ProfileSettings{CRF: 30, FPS: 1, Preset: "medium", EncoderProfile: "main"},
		ExpectedCompressionRatio: 0.5,
		SpeedFactor:              1.0,
	}
	if err := sys.AddProfile("nightcage", custom); err != nil {
		t.Fatalf("AddProfile() error = %v", err)
	}

	if _, ok := sys.Profiles()["custom_nightcage"]; !ok {
		t.Fatal("Profiles() is missing the custom profile after AddProfile()")
	}

	if _, err := sys.Submit(Request{InputPath: "/in.mp4", OutputPath: "/out.mp4", ProfileName: "nightcage"}); err != nil {
		t.Errorf("Submit() with a registered custom profile error = %v", err)
	}
}

func TestSubmit_RejectsOversizeInput(t *testing.T) {
	sys, err := New(WithLogDir(t.TempDir()), WithWorkers(1), WithMaxFileSizeBytes(4))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(sys.Close)

	input := filepath.Join(t.TempDir(), "big.mp4")
	if err := os.WriteFile(input, []byte("well over four bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err = sys.Submit(Request{InputPath: input, OutputPath: "/tmp/fieldlapse-oversize-out.mp4"})
	if err == nil {
		t.Fatal("Submit() with an oversize input returned nil error")
	}
	if len(sys.ListActive()) != 0 {
		t.Error("a rejected oversize submission should create no job records")
	}
}

func TestSubmit_AnalysisOnlyNeedsNoProfile(t *testing.T) {
	sys := newTestSystem(t)

	id, err := sys.Submit(Request{InputPath: "/in.mp4", OutputPath: t.TempDir(), AnalysisOnly: true})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap, ok := sys.Status(id)
	if !ok {
		t.Fatal("Status() after Submit() = false")
	}
	if snap.ProfileName != "" {
		t.Errorf("ProfileName = %q, want empty for an analysis-only job", snap.ProfileName)
	}
}

func TestSubmitBatch_UnknownProfileCreatesNoRecords(t *testing.T) {
	sys := newTestSystem(t)

	reqs := []Request{
		{InputPath: "/a.mp4", OutputPath: "/a_out.mp4", ProfileName: "balanced"},
		{InputPath: "/b.mp4", OutputPath: "/b_out.mp4", ProfileName: "does_not_exist"},
	}
	_, _, err := sys.SubmitBatch(reqs)
	if err == nil {
		t.Fatal("SubmitBatch() with one unknown profile returned nil error")
	}
	if len(sys.ListActive()) != 0 {
		t.Errorf("ListActive() after a rejected batch = %d entries, want 0", len(sys.ListActive()))
	}
}

func TestSubscribe_ReceivesEventsForFailingJob(t *testing.T) {
	sys := newTestSystem(t)

	events := make(chan Event, 16)
	sys.SubscribeAll(func(ev Event) { events <- ev })

	id, err := sys.Submit(Request{InputPath: "/nonexistent/input.mp4", OutputPath: "/tmp/fieldlapse-facade-test-out.mp4", ProfileName: "balanced"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.JobID != id {
				t.Errorf("event JobID = %q, want %q", ev.JobID, id)
			}
			return
		case <-deadline:
			t.Fatal("did not receive any progress event within the deadline")
		}
	}
}

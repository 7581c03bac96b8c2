package compressor

import "testing"

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusCancelled, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.want {
			t.Errorf("Status(%q).Terminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func newTestJob() *Job {
	return &Job{
		ID:          "job-1",
		InputPath:   "/in.mp4",
		OutputPath:  "/out.mp4",
		ProfileName: "balanced",
		status:      StatusPending,
		cancel:      func() {},
		done:        make(chan struct{}),
	}
}

func TestJob_Snapshot(t *testing.T) {
	job := newTestJob()
	job.setRunning()
	job.setProgress(42.5, "encoding")
	job.setSegmentCounts(2, 5)

	snap := job.Snapshot()
	if snap.Status != StatusRunning {
		t.Errorf("Status = %v, want %v", snap.Status, StatusRunning)
	}
	if snap.ProgressPercent != 42.5 {
		t.Errorf("ProgressPercent = %v, want 42.5", snap.ProgressPercent)
	}
	if snap.Stage != "encoding" {
		t.Errorf("Stage = %q, want %q", snap.Stage, "encoding")
	}
	if snap.SegmentCurrent != 2 || snap.SegmentTotal != 5 {
		t.Errorf("segment counts = %d/%d, want 2/5", snap.SegmentCurrent, snap.SegmentTotal)
	}
}

func TestJob_Cancel_TerminalRejected(t *testing.T) {
	job := newTestJob()
	job.finish(1000, nil)

	if job.Cancel() {
		t.Error("Cancel() on a completed job = true, want false")
	}
}

func TestJob_Cancel_Pending(t *testing.T) {
	called := false
	job := newTestJob()
	job.cancel = func() { called = true }

	if !job.Cancel() {
		t.Error("Cancel() on a pending job = false, want true")
	}
	if !called {
		t.Error("Cancel() did not invoke the underlying cancel func")
	}
}

func TestJob_FailWith(t *testing.T) {
	job := newTestJob()
	job.setRunning()
	job.failWith("boom")

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("Status = %v, want %v", snap.Status, StatusFailed)
	}
	if snap.ErrorMessage != "boom" {
		t.Errorf("ErrorMessage = %q, want %q", snap.ErrorMessage, "boom")
	}
}

func TestJob_MarkCancelled(t *testing.T) {
	job := newTestJob()
	job.setRunning()
	job.markCancelled()

	snap := job.Snapshot()
	if snap.Status != StatusCancelled {
		t.Errorf("Status = %v, want %v", snap.Status, StatusCancelled)
	}
}

// Package orchestrator implements the job orchestrator: a priority queue
// drained by one dispatcher goroutine that gates in-flight jobs through a
// worker.Semaphore, each admitted job running to completion on its own
// goroutine against one compressor job at a time.
package orchestrator

import (
	"sync"
	"time"

	"github.com/fieldlapse/fieldlapse/internal/compressor"
	fieldlapseerrors "github.com/fieldlapse/fieldlapse/internal/errors"
	"github.com/fieldlapse/fieldlapse/internal/validation"
)

// Priority is a submission's queueing priority. Higher priorities are
// dequeued first; submissions of equal priority are served in the order
// they were submitted.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// weight maps a Priority to its queue ordering weight. An unrecognized
// Priority is treated as PriorityNormal.
func (p Priority) weight() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	default:
		return 1
	}
}

// Status is a tracked job's lifecycle state, one level above
// compressor.Status: a job exists (pending, then queued) before any
// compressor.Job has been started for it.
type Status string

const (
	StatusPending   Status = "pending"
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether s is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// validTransitions encodes the orchestrator's status transition graph:
// pending -> queued -> running -> {completed, failed, cancelled}, plus
// failed -> pending on retry. There is no paused state: the compressor
// has no mid-encode suspend point, so one would have no real behavior
// behind it.
var validTransitions = map[Status]map[Status]bool{
	StatusPending: {StatusQueued: true},
	StatusQueued:  {StatusRunning: true, StatusCancelled: true},
	StatusRunning: {StatusCompleted: true, StatusFailed: true, StatusCancelled: true},
	StatusFailed:  {StatusPending: true},
}

// validateTransition returns an InvalidTransition error if moving from
// "from" to "to" is not a legal edge in the graph above.
func validateTransition(from, to Status) error {
	if validTransitions[from][to] {
		return nil
	}
	return fieldlapseerrors.NewInvalidTransitionError(string(from), string(to))
}

// Request describes a submission to the orchestrator. An AnalysisOnly
// request runs motion analysis and writes the analysis report artifact
// under OutputPath (treated as a directory) without encoding anything;
// ProfileName and ROIEnabled are ignored for it.
type Request struct {
	InputPath    string
	OutputPath   string
	ProfileName  string
	ROIEnabled   bool
	AnalysisOnly bool
	Priority     Priority
}

// Snapshot is a point-in-time copy of a tracked job's state, composed
// from the orchestrator's own bookkeeping (queue position metadata,
// batch membership) and, once a worker has started it, the underlying
// compressor.Job's Snapshot.
type Snapshot struct {
	ID          string
	BatchID     string
	InputPath   string
	OutputPath  string
	ProfileName string
	ROIEnabled  bool
	Priority    Priority

	Status          Status
	ProgressPercent float64
	Stage           string
	SegmentCurrent  int
	SegmentTotal    int

	StartedAt time.Time
	EndedAt   time.Time

	OriginalSizeBytes   uint64
	CompressedSizeBytes uint64

	ErrorMessage string
	Validation   *validation.Result
}

// trackedJob is the orchestrator's own record for a submission. Before a
// worker dequeues it, job is nil and status is pending/queued; once
// started, job reflects the live compressor.Job.
type trackedJob struct {
	id      string
	batchID string
	request Request

	mu     sync.Mutex
	status Status
	job    *compressor.Job
}

// snapshot builds a Snapshot from the tracked job's own bookkeeping,
// overlaid with the underlying compressor.Job's live state once started.
func (t *trackedJob) snapshot() Snapshot {
	t.mu.Lock()
	snap := Snapshot{
		ID:          t.id,
		BatchID:     t.batchID,
		InputPath:   t.request.InputPath,
		OutputPath:  t.request.OutputPath,
		ProfileName: t.request.ProfileName,
		ROIEnabled:  t.request.ROIEnabled,
		Priority:    t.request.Priority,
		Status:      t.status,
	}
	job := t.job
	t.mu.Unlock()

	if job == nil {
		return snap
	}

	cs := job.Snapshot()
	snap.ProgressPercent = cs.ProgressPercent
	snap.Stage = cs.Stage
	snap.SegmentCurrent = cs.SegmentCurrent
	snap.SegmentTotal = cs.SegmentTotal
	snap.StartedAt = cs.StartedAt
	snap.EndedAt = cs.EndedAt
	snap.OriginalSizeBytes = cs.OriginalSizeBytes
	snap.CompressedSizeBytes = cs.CompressedSizeBytes
	snap.ErrorMessage = cs.ErrorMessage
	snap.Validation = cs.Validation
	// Once the compressor.Job reaches a terminal status, it is the
	// authority on status; otherwise the tracked job's own
	// pending/queued/running bookkeeping governs.
	if cs.Status.Terminal() {
		snap.Status = Status(cs.Status)
	}
	return snap
}

// setStatus transitions the tracked job to "to", validating the edge.
func (t *trackedJob) setStatus(to Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := validateTransition(t.status, to); err != nil {
		return err
	}
	t.status = to
	return nil
}


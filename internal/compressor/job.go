// Package compressor implements the adaptive compressor: a motion-driven,
// per-segment H.264 encode pipeline with lossless concatenation and
// post-concat output validation.
package compressor

import (
	"sync"
	"time"

	"github.com/fieldlapse/fieldlapse/internal/validation"
)

// Status is a compressor job's lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether this status is final; no further transitions
// are possible once a job reaches a terminal status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Snapshot is an immutable, point-in-time copy of a Job's fields, safe to
// read without holding the job's lock.
type Snapshot struct {
	ID          string
	InputPath   string
	OutputPath  string
	ProfileName string
	ROIEnabled  bool

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

// Job is one adaptive-compression job record: input path, output path,
// profile name, ROI-mode flag, status, progress percent, stage label,
// segment counters, timestamps, sizes, and error message. Its fields are
// mutated only by the compressor's run goroutine, guarded by mu so
// Snapshot/Cancel may be called concurrently from any caller.
type Job struct {
	ID          string
	InputPath   string
	OutputPath  string
	ProfileName string
	ROIEnabled  bool

	mu              sync.Mutex
	status          Status
	progressPercent float64
	stage           string
	segmentCurrent  int
	segmentTotal    int
	startedAt       time.Time
	endedAt         time.Time
	originalSize    uint64
	compressedSize  uint64
	errorMessage    string
	validation      *validation.Result

	cancel func()
	done   chan struct{}
}

// Snapshot returns a copy of the job's current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		ID:                  j.ID,
		InputPath:           j.InputPath,
		OutputPath:          j.OutputPath,
		ProfileName:         j.ProfileName,
		ROIEnabled:          j.ROIEnabled,
		Status:              j.status,
		ProgressPercent:     j.progressPercent,
		Stage:               j.stage,
		SegmentCurrent:      j.segmentCurrent,
		SegmentTotal:        j.segmentTotal,
		StartedAt:           j.startedAt,
		EndedAt:             j.endedAt,
		OriginalSizeBytes:   j.originalSize,
		CompressedSizeBytes: j.compressedSize,
		ErrorMessage:        j.errorMessage,
		Validation:          j.validation,
	}
}

// Cancel marks the job for cancellation by cancelling its context. The
// worker observes it during motion analysis (every 30 decoded frames),
// between stages and before each segment, and an ffmpeg process already
// running for the job is killed; partial output is discarded. Returns
// false if the job has already reached a terminal status.
func (j *Job) Cancel() bool {
	j.mu.Lock()
	if j.status.Terminal() {
		j.mu.Unlock()
		return false
	}
	j.mu.Unlock()
	j.cancel()
	return true
}

// Wait blocks until the job reaches a terminal status.
func (j *Job) Wait() {
	<-j.done
}

func (j *Job) setRunning() {
	j.mu.Lock()
	j.status = StatusRunning
	j.startedAt = time.Now()
	j.mu.Unlock()
}

func (j *Job) setProgress(percent float64, stage string) {
	j.mu.Lock()
	j.progressPercent = percent
	j.stage = stage
	j.mu.Unlock()
}

func (j *Job) setSegmentCounts(current, total int) {
	j.mu.Lock()
	j.segmentCurrent = current
	j.segmentTotal = total
	j.mu.Unlock()
}

func (j *Job) finish(compressedSize uint64, val *validation.Result) {
	j.mu.Lock()
	j.status = StatusCompleted
	j.progressPercent = 100
	j.stage = "completed"
	j.compressedSize = compressedSize
	j.validation = val
	j.endedAt = time.Now()
	j.mu.Unlock()
}

func (j *Job) failWith(message string) {
	j.mu.Lock()
	j.status = StatusFailed
	j.errorMessage = message
	j.endedAt = time.Now()
	j.mu.Unlock()
}

func (j *Job) markCancelled() {
	j.mu.Lock()
	j.status = StatusCancelled
	j.endedAt = time.Now()
	j.mu.Unlock()
}

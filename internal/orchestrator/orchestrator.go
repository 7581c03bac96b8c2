package orchestrator

import (
	"container/heap"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/fieldlapse/fieldlapse/internal/compressor"
	"github.com/fieldlapse/fieldlapse/internal/config"
	fieldlapseerrors "github.com/fieldlapse/fieldlapse/internal/errors"
	"github.com/fieldlapse/fieldlapse/internal/profile"
	"github.com/fieldlapse/fieldlapse/internal/progressbus"
	"github.com/fieldlapse/fieldlapse/internal/util"
	"github.com/fieldlapse/fieldlapse/internal/worker"
)

// jobMemFraction bounds worker-pool sizing to at most this fraction of
// available system memory.
const jobMemFraction = 0.5

// jobMemBytes estimates the memory footprint of one in-flight job: the
// FrameSource's decode buffers plus one ffmpeg encoder process. A coarse
// per-job estimate; a job's memory use is dominated by whichever
// subprocess (analyzer or encoder) is currently running rather than by
// buffered frame count.
const jobMemBytes = uint64(1) << 30 // ~1 GB

// Orchestrator owns a priority queue, fed by one dedicated dispatcher
// goroutine that gates in-flight jobs through a worker.Semaphore. Each
// job runs on its own goroutine once a permit is acquired, synchronously
// driving compressor.Compressor.StartJob through Job.Wait before
// releasing its permit.
type Orchestrator struct {
	registry   *profile.Registry
	compressor *compressor.Compressor
	sem        *worker.Semaphore

	mu    sync.Mutex
	seq   int64
	queue priorityQueue
	jobs  map[string]*trackedJob

	notify       chan struct{}
	stop         chan struct{}
	dispatchDone chan struct{}
	running      sync.WaitGroup
}

// New constructs an Orchestrator and starts its dispatcher goroutine.
// workers bounds how many jobs may run concurrently; pass 0 to use
// MemoryAwareWorkerCount(cfg).
func New(cfg *config.Config, registry *profile.Registry, bus *progressbus.Bus, workers int) *Orchestrator {
	if workers <= 0 {
		workers = MemoryAwareWorkerCount(cfg)
	}

	o := &Orchestrator{
		registry:     registry,
		compressor:   compressor.NewCompressor(cfg, registry, bus),
		sem:          worker.NewSemaphore(workers),
		jobs:         make(map[string]*trackedJob),
		notify:       make(chan struct{}, 1),
		stop:         make(chan struct{}),
		dispatchDone: make(chan struct{}),
	}

	go o.dispatchLoop()
	return o
}

// MemoryAwareWorkerCount caps cfg.Workers by how many ~1GB jobs the host's
// available memory can support. Returns at least 1.
func MemoryAwareWorkerCount(cfg *config.Config) int {
	requested := cfg.Workers
	if requested < 1 {
		requested = 1
	}
	capped := util.MaxPermitsForMemory(jobMemBytes, jobMemFraction)
	if capped < requested {
		return capped
	}
	return requested
}

// Stop signals the dispatcher to exit once the queue drains no further
// jobs, then waits for every already-started job goroutine to finish. It
// does not cancel in-flight jobs.
func (o *Orchestrator) Stop() {
	close(o.stop)
	<-o.dispatchDone
	o.running.Wait()
}

// Submit validates req.ProfileName against the registry before creating
// any job record, generates a job ID, and enqueues the request. It
// returns immediately; the job runs once a worker becomes free.
// Analysis-only requests need no profile and skip that validation.
func (o *Orchestrator) Submit(req Request) (string, error) {
	if !req.AnalysisOnly {
		if _, err := o.registry.Get(req.ProfileName); err != nil {
			return "", err
		}
	}
	if req.Priority == "" {
		req.Priority = PriorityNormal
	}

	id := uuid.NewString()
	o.enqueue(id, "", req)
	return id, nil
}

// SubmitBatch validates every request's profile up front (so a batch
// containing one bad profile name creates no job records at all), then
// submits all of them under a single shared batch ID. It returns the
// batch ID and the job IDs in submission order.
func (o *Orchestrator) SubmitBatch(reqs []Request) (string, []string, error) {
	for _, req := range reqs {
		if req.AnalysisOnly {
			continue
		}
		if _, err := o.registry.Get(req.ProfileName); err != nil {
			return "", nil, err
		}
	}

	batchID := uuid.NewString()
	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		if req.Priority == "" {
			req.Priority = PriorityNormal
		}
		id := uuid.NewString()
		o.enqueue(id, batchID, req)
		ids = append(ids, id)
	}
	return batchID, ids, nil
}

// enqueue creates a trackedJob in pending status, immediately transitions
// it to queued, and pushes it onto the priority queue.
func (o *Orchestrator) enqueue(id, batchID string, req Request) {
	tj := &trackedJob{id: id, batchID: batchID, request: req, status: StatusPending}
	_ = tj.setStatus(StatusQueued)

	o.mu.Lock()
	o.jobs[id] = tj
	o.seq++
	heap.Push(&o.queue, &queueItem{id: id, priority: req.Priority, seq: o.seq})
	o.mu.Unlock()

	select {
	case o.notify <- struct{}{}:
	default:
	}
}

// Status returns job's current snapshot, or false if id is unknown.
func (o *Orchestrator) Status(id string) (Snapshot, bool) {
	o.mu.Lock()
	tj, ok := o.jobs[id]
	o.mu.Unlock()
	if !ok {
		return Snapshot{}, false
	}
	return tj.snapshot(), true
}

// ListActive returns a snapshot for every job that has not reached a
// terminal status.
func (o *Orchestrator) ListActive() map[string]Snapshot {
	o.mu.Lock()
	tracked := make([]*trackedJob, 0, len(o.jobs))
	for _, tj := range o.jobs {
		tracked = append(tracked, tj)
	}
	o.mu.Unlock()

	active := make(map[string]Snapshot)
	for _, tj := range tracked {
		snap := tj.snapshot()
		if !snap.Status.Terminal() {
			active[snap.ID] = snap
		}
	}
	return active
}

// Cancel cancels id. A queued-but-not-yet-started job is pulled off the
// queue and marked cancelled directly; a running job is cancelled
// through its underlying compressor.Job (see compressor.Job.Cancel).
// Returns false if id is unknown or already terminal.
func (o *Orchestrator) Cancel(id string) bool {
	o.mu.Lock()
	tj, ok := o.jobs[id]
	o.mu.Unlock()
	if !ok {
		return false
	}

	tj.mu.Lock()
	switch tj.status {
	case StatusPending, StatusQueued:
		tj.status = StatusCancelled
		tj.mu.Unlock()
		o.mu.Lock()
		o.queue.removeByID(id)
		o.mu.Unlock()
		return true
	case StatusRunning:
		job := tj.job
		tj.mu.Unlock()
		if job == nil {
			return false
		}
		return job.Cancel()
	default:
		tj.mu.Unlock()
		return false
	}
}

// Retry re-enqueues a failed job under its original ID and request,
// validated against the failed -> pending edge. Returns
// KindInvalidTransition if id is not currently failed, or KindUnknownJob
// if id is not tracked.
func (o *Orchestrator) Retry(id string) error {
	o.mu.Lock()
	tj, ok := o.jobs[id]
	o.mu.Unlock()
	if !ok {
		return fieldlapseerrors.NewUnknownJobError(id)
	}

	tj.mu.Lock()
	if err := validateTransition(tj.status, StatusPending); err != nil {
		tj.mu.Unlock()
		return err
	}
	tj.status = StatusPending
	tj.job = nil
	req := tj.request
	tj.mu.Unlock()

	_ = tj.setStatus(StatusQueued)

	o.mu.Lock()
	o.seq++
	heap.Push(&o.queue, &queueItem{id: id, priority: req.Priority, seq: o.seq})
	o.mu.Unlock()

	select {
	case o.notify <- struct{}{}:
	default:
	}
	return nil
}

// dispatchLoop is the orchestrator's single dedicated dispatcher
// goroutine: it wakes on a notify signal, then repeatedly pops the
// highest-priority queued job, blocks until a semaphore permit is free,
// and hands the job off to its own goroutine.
func (o *Orchestrator) dispatchLoop() {
	defer close(o.dispatchDone)
	for {
		select {
		case <-o.stop:
			return
		case <-o.notify:
		}

		for {
			id, ok := o.dequeue()
			if !ok {
				break
			}

			select {
			case <-o.sem.Chan():
			case <-o.stop:
				return
			}

			o.running.Add(1)
			go func(jobID string) {
				defer o.running.Done()
				defer o.sem.Release()
				o.runJob(jobID)
			}(id)
		}
	}
}

func (o *Orchestrator) dequeue() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.queue.Len() == 0 {
		return "", false
	}
	item := heap.Pop(&o.queue).(*queueItem)
	return item.id, true
}

// runJob starts the tracked job's compressor.Job and blocks until it
// finishes. A job cancelled while still queued (status no longer queued
// by the time its worker dequeues it) is skipped without starting it.
func (o *Orchestrator) runJob(id string) {
	o.mu.Lock()
	tj, ok := o.jobs[id]
	o.mu.Unlock()
	if !ok {
		return
	}

	tj.mu.Lock()
	if tj.status != StatusQueued {
		tj.mu.Unlock()
		return
	}
	tj.status = StatusRunning
	req := tj.request
	tj.mu.Unlock()

	var job *compressor.Job
	var err error
	if req.AnalysisOnly {
		reportPath := filepath.Join(req.OutputPath, "analysis", id, "analysis_report.json")
		job, err = o.compressor.StartAnalysis(id, req.InputPath, reportPath)
	} else {
		job, err = o.compressor.StartJob(id, req.InputPath, req.OutputPath, req.ProfileName, req.ROIEnabled)
	}
	if err != nil {
		// The profile was already validated at submission time, so this
		// is not expected in practice; fail the tracked job rather than
		// panic or drop it silently.
		tj.mu.Lock()
		tj.status = StatusFailed
		tj.mu.Unlock()
		return
	}

	tj.mu.Lock()
	tj.job = job
	tj.mu.Unlock()

	job.Wait()

	// Mirror the compressor job's terminal status so that Retry sees a
	// failed job as failed.
	tj.mu.Lock()
	tj.status = Status(job.Snapshot().Status)
	tj.mu.Unlock()
}

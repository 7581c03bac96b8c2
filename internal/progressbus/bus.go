package progressbus

import (
	"sync"
	"time"

	"github.com/fieldlapse/fieldlapse/internal/logging"
)

// defaultHistorySize bounds per-job snapshot and event retention when the
// caller doesn't specify a size.
const defaultHistorySize = 100

// subscription wraps a Subscriber so it can be removed by identity.
type subscription struct {
	fn Subscriber
}

type jobState struct {
	stage       string
	snapshots   []Snapshot
	events      []Event
	subscribers []*subscription
	finished    bool
	finishedAt  time.Time
}

// Bus is a typed, per-job progress event bus. Producers call
// Register/Update/ChangeStage/Complete/Fail/Cancel; subscribers register
// with Subscribe/SubscribeAll. All dispatch happens on a single dedicated
// goroutine draining an internal queue of up to 256 events, so producers
// do not wait on slow subscribers while that queue has room; once it is
// full, a producer blocks until the dispatcher takes the next event.
type Bus struct {
	mu          sync.Mutex
	jobs        map[string]*jobState
	all         []*subscription
	queue       chan Event
	log         *logging.Logger
	done        chan struct{}
	historySize int
}

// NewBus constructs a Bus and starts its dispatcher goroutine. log may be
// nil. historySize bounds per-job snapshot and event retention; pass 0 for
// the default of 100.
func NewBus(log *logging.Logger, historySize int) *Bus {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	b := &Bus{
		jobs:        make(map[string]*jobState),
		queue:       make(chan Event, 256),
		log:         log,
		done:        make(chan struct{}),
		historySize: historySize,
	}
	go b.dispatchLoop()
	return b
}

// Close stops the dispatcher goroutine once the queue drains.
func (b *Bus) Close() {
	close(b.queue)
	<-b.done
}

func (b *Bus) dispatchLoop() {
	defer close(b.done)
	for ev := range b.queue {
		b.deliver(ev)
	}
}

func (b *Bus) deliver(ev Event) {
	b.mu.Lock()
	job := b.jobs[ev.JobID]
	var perJob []*subscription
	if job != nil {
		perJob = append([]*subscription(nil), job.subscribers...)
	}
	all := append([]*subscription(nil), b.all...)
	b.mu.Unlock()

	for _, sub := range perJob {
		b.safeCall(sub.fn, ev)
	}
	for _, sub := range all {
		b.safeCall(sub.fn, ev)
	}
}

func (b *Bus) safeCall(sub Subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("progressbus subscriber panicked for job %s: %v", ev.JobID, r)
		}
	}()
	sub(ev)
}

func (b *Bus) record(ev Event) {
	b.mu.Lock()
	job, ok := b.jobs[ev.JobID]
	if !ok {
		job = &jobState{}
		b.jobs[ev.JobID] = job
	}
	if ev.Stage != "" {
		job.stage = ev.Stage
	}
	job.events = appendBounded(job.events, ev, b.historySize)
	if ev.Kind == EventProgress || ev.Kind == EventStarted {
		job.snapshots = appendBounded(job.snapshots, Snapshot{Percent: ev.Percent, Timestamp: ev.Timestamp}, b.historySize)
	}
	if ev.terminal() {
		job.finished = true
		job.finishedAt = ev.Timestamp
	}
	b.mu.Unlock()

	b.queue <- ev
}

func appendBounded[T any](s []T, v T, max int) []T {
	s = append(s, v)
	if len(s) > max {
		s = s[len(s)-max:]
	}
	return s
}

// Register starts tracking jobID at the given initial stage and emits a
// `started` event.
func (b *Bus) Register(jobID, initialStage string) {
	b.record(Event{JobID: jobID, Kind: EventStarted, Stage: initialStage, Timestamp: now()})
}

// Update records a progress snapshot and emits a `progress` event.
func (b *Bus) Update(jobID string, percent float64, stage, message string, payload map[string]any) {
	b.mu.Lock()
	if stage == "" {
		if job, ok := b.jobs[jobID]; ok {
			stage = job.stage
		}
	}
	b.mu.Unlock()
	b.record(Event{JobID: jobID, Kind: EventProgress, Stage: stage, Percent: percent, Message: message, Payload: payload, Timestamp: now()})
}

// ChangeStage emits a `stage_changed` event.
func (b *Bus) ChangeStage(jobID, stage, message string) {
	b.record(Event{JobID: jobID, Kind: EventStageChanged, Stage: stage, Message: message, Timestamp: now()})
}

// Complete emits a terminal `completed` event.
func (b *Bus) Complete(jobID, message string) {
	b.record(Event{JobID: jobID, Kind: EventCompleted, Percent: 100, Message: message, Timestamp: now()})
}

// Fail emits a terminal `failed` event.
func (b *Bus) Fail(jobID, message string, payload map[string]any) {
	b.record(Event{JobID: jobID, Kind: EventFailed, Message: message, Payload: payload, Timestamp: now()})
}

// Cancel emits a terminal `cancelled` event.
func (b *Bus) Cancel(jobID, message string) {
	b.record(Event{JobID: jobID, Kind: EventCancelled, Message: message, Timestamp: now()})
}

// Subscribe registers sub to receive only jobID's events. The returned
// function unsubscribes it; calling it more than once is harmless.
func (b *Bus) Subscribe(jobID string, sub Subscriber) (unsubscribe func()) {
	entry := &subscription{fn: sub}
	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.jobs[jobID]
	if !ok {
		job = &jobState{}
		b.jobs[jobID] = job
	}
	job.subscribers = append(job.subscribers, entry)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if job, ok := b.jobs[jobID]; ok {
			job.subscribers = removeSubscription(job.subscribers, entry)
		}
	}
}

// SubscribeAll registers sub to receive every job's events. The returned
// function unsubscribes it.
func (b *Bus) SubscribeAll(sub Subscriber) (unsubscribe func()) {
	entry := &subscription{fn: sub}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, entry)
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = removeSubscription(b.all, entry)
	}
}

func removeSubscription(subs []*subscription, entry *subscription) []*subscription {
	for i, s := range subs {
		if s == entry {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}

// History returns jobID's retained snapshots and events plus a computed
// ETA, or false if jobID is unknown.
func (b *Bus) History(jobID string) (History, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	job, ok := b.jobs[jobID]
	if !ok {
		return History{}, false
	}
	return History{
		JobID:     jobID,
		Stage:     job.stage,
		Snapshots: append([]Snapshot(nil), job.snapshots...),
		Events:    append([]Event(nil), job.events...),
		ETA:       estimateETA(job.snapshots),
	}, true
}

// estimateETA derives a remaining-time estimate from the first and last
// retained snapshots: average speed in percent per second, projected
// linearly to 100%.
func estimateETA(snapshots []Snapshot) *time.Duration {
	if len(snapshots) < 2 {
		return nil
	}
	first := snapshots[0]
	last := snapshots[len(snapshots)-1]

	elapsed := last.Timestamp.Sub(first.Timestamp).Seconds()
	if elapsed <= 0 {
		return nil
	}
	avgSpeed := (last.Percent - first.Percent) / elapsed
	if avgSpeed <= 0 || last.Percent >= 100 {
		return nil
	}
	remaining := (100 - last.Percent) / avgSpeed
	eta := time.Duration(remaining * float64(time.Second))
	return &eta
}

// Cleanup evicts history for jobs that finished more than maxAge ago.
func (b *Bus) Cleanup(maxAge time.Duration) {
	cutoff := now().Add(-maxAge)
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, job := range b.jobs {
		if job.finished && job.finishedAt.Before(cutoff) {
			delete(b.jobs, id)
		}
	}
}

var now = time.Now

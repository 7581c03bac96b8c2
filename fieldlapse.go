// Package fieldlapse provides a Go library for motion-adaptive re-encoding
// of long-duration behavioral video recordings.
//
// Fieldlapse analyzes a source recording for motion activity, segments it
// by activity level, and re-encodes each segment with quality and frame
// rate settings proportional to how much is happening in it: inactive
// stretches are compressed aggressively, active stretches are preserved at
// higher fidelity.
//
// Basic usage:
//
//	sys, err := fieldlapse.New(
//	    fieldlapse.WithWorkers(4),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer sys.Close()
//
//	jobID, err := sys.Submit(fieldlapse.Request{
//	    InputPath:   "recording.mp4",
//	    OutputPath:  "out/recording.mp4",
//	    ProfileName: "balanced",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	snap, _ := sys.Status(jobID)
//	fmt.Printf("status: %s\n", snap.Status)
package fieldlapse

import (
	"fmt"
	"time"

	"github.com/fieldlapse/fieldlapse/internal/config"
	"github.com/fieldlapse/fieldlapse/internal/discovery"
	fieldlapseerrors "github.com/fieldlapse/fieldlapse/internal/errors"
	"github.com/fieldlapse/fieldlapse/internal/logging"
	"github.com/fieldlapse/fieldlapse/internal/orchestrator"
	"github.com/fieldlapse/fieldlapse/internal/profile"
	"github.com/fieldlapse/fieldlapse/internal/progressbus"
	"github.com/fieldlapse/fieldlapse/internal/util"
)

// Re-exported orchestrator types so callers need only import this package.
type (
	Priority = orchestrator.Priority
	Status   = orchestrator.Status
	Request  = orchestrator.Request
	Snapshot = orchestrator.Snapshot
)

const (
	PriorityLow    = orchestrator.PriorityLow
	PriorityNormal = orchestrator.PriorityNormal
	PriorityHigh   = orchestrator.PriorityHigh
	PriorityUrgent = orchestrator.PriorityUrgent

	StatusPending   = orchestrator.StatusPending
	StatusQueued    = orchestrator.StatusQueued
	StatusRunning   = orchestrator.StatusRunning
	StatusCompleted = orchestrator.StatusCompleted
	StatusFailed    = orchestrator.StatusFailed
	StatusCancelled = orchestrator.StatusCancelled
)

// Re-exported profile types for custom profile registration and
// recommendation.
type (
	ActivityProfile = profile.ActivityProfile
	ProfileSettings = profile.Settings
	Recommendation  = profile.Recommendation
)

// Subscriber receives progress events for one job, or every job when
// registered via System.SubscribeAll. See progressbus.Event for the event
// shape.
type Subscriber = progressbus.Subscriber

// Event is one progress event delivered to a Subscriber.
type Event = progressbus.Event

// History is a job's retained progress snapshots and events plus a
// computed ETA.
type History = progressbus.History

// System is the top-level library facade: it owns a profile registry, a
// progress bus, and a job orchestrator, and is the entry point a caller
// constructs once per process.
type System struct {
	cfg      *config.Config
	registry *profile.Registry
	bus      *progressbus.Bus
	orch     *orchestrator.Orchestrator
	log      *logging.Logger
}

// Option configures a System during construction.
type Option func(*config.Config)

// New constructs a System with the given options and starts its
// orchestrator. Callers must call Close when done.
func New(opts ...Option) (*System, error) {
	cfg := config.NewConfig(".", ".", "")

	for _, opt := range opts {
		opt(cfg)
	}

	// Workers == 0 sizes the pool from available memory, up to
	// config.DefaultWorkers.
	if cfg.Workers == 0 {
		cfg.Workers = config.DefaultWorkers
		cfg.Workers = orchestrator.MemoryAwareWorkerCount(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.Setup(cfg.LogDir, cfg.Verbose, cfg.LogDir == "")
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	sysInfo := util.GetSystemInfo()
	log.Info("host: %s (%s/%s), %d logical / %d physical cores, %s memory available",
		sysInfo.Hostname, sysInfo.OS, sysInfo.Arch,
		util.LogicalCores(), util.PhysicalCores(),
		util.FormatBytes(util.AvailableMemoryBytes()))
	util.CheckDiskSpace(cfg.GetTempDir(), log.Warn)

	// Sweep temp dirs left behind by jobs that died before their deferred
	// cleanup ran.
	retention := time.Duration(cfg.HistoryRetentionHours * float64(time.Hour))
	if n, err := util.CleanupStaleTempFiles(cfg.GetTempDir(), "fieldlapse", retention); err == nil && n > 0 {
		log.Info("removed %d stale temp entries from %s", n, cfg.GetTempDir())
	}

	registry := profile.NewRegistry()
	bus := progressbus.NewBus(log, cfg.ProgressHistorySize)
	orch := orchestrator.New(cfg, registry, bus, cfg.Workers)

	return &System{cfg: cfg, registry: registry, bus: bus, orch: orch, log: log}, nil
}

// WithWorkers sets the number of concurrently processed jobs. Pass 0 to
// size the pool from available memory, up to config.DefaultWorkers;
// without this option the pool has config.DefaultWorkers workers.
func WithWorkers(n int) Option {
	return func(c *config.Config) { c.Workers = n }
}

// WithOutputDir sets the directory new jobs resolve relative output paths
// against.
func WithOutputDir(dir string) Option {
	return func(c *config.Config) { c.OutputDir = dir }
}

// WithLogDir enables file logging to the given directory. Without this
// option the System logs nowhere.
func WithLogDir(dir string) Option {
	return func(c *config.Config) { c.LogDir = dir }
}

// WithVerbose enables debug-level logging.
func WithVerbose() Option {
	return func(c *config.Config) { c.Verbose = true }
}

// WithDefaultProfile overrides the profile name used when a submission
// leaves Request.ProfileName empty.
func WithDefaultProfile(name string) Option {
	return func(c *config.Config) { c.DefaultProfile = name }
}

// WithMaxFileSizeBytes rejects submissions for input files larger than n
// bytes. 0 (the default) disables the check.
func WithMaxFileSizeBytes(n uint64) Option {
	return func(c *config.Config) { c.MaxFileSizeBytes = n }
}

// Close stops the System's orchestrator (waiting for in-flight jobs to
// finish), its progress bus, and its logger.
func (s *System) Close() {
	s.orch.Stop()
	s.bus.Close()
	if s.log != nil {
		s.log.Close()
	}
}

// AddProfile registers a custom activity profile, validated the same way
// the three built-ins are.
func (s *System) AddProfile(name string, p ActivityProfile) error {
	return s.registry.AddCustom(name, p)
}

// Profiles returns every registered profile, built-in and custom.
func (s *System) Profiles() map[string]ActivityProfile {
	return s.registry.List()
}

// Submit validates req and enqueues it, returning its job ID. It returns
// immediately; the job runs once a worker becomes free. An empty
// ProfileName falls back to the configured default (analysis-only
// requests use no profile at all).
func (s *System) Submit(req Request) (string, error) {
	if err := s.checkInputSize(req.InputPath); err != nil {
		return "", err
	}
	if req.ProfileName == "" && !req.AnalysisOnly {
		req.ProfileName = s.cfg.DefaultProfile
	}
	return s.orch.Submit(req)
}

// SubmitBatch validates every request up front (so one bad profile name
// creates no job records at all) and submits all of them under one shared
// batch ID.
func (s *System) SubmitBatch(reqs []Request) (batchID string, jobIDs []string, err error) {
	for i := range reqs {
		if err := s.checkInputSize(reqs[i].InputPath); err != nil {
			return "", nil, err
		}
		if reqs[i].ProfileName == "" && !reqs[i].AnalysisOnly {
			reqs[i].ProfileName = s.cfg.DefaultProfile
		}
	}
	return s.orch.SubmitBatch(reqs)
}

// checkInputSize enforces the configured maximum input file size. A
// missing input is not rejected here; it fails at analysis time with
// SourceOpenError like any other unreadable source.
func (s *System) checkInputSize(inputPath string) error {
	if s.cfg.MaxFileSizeBytes == 0 || !util.FileExists(inputPath) {
		return nil
	}
	size, err := util.GetFileSize(inputPath)
	if err != nil || size <= s.cfg.MaxFileSizeBytes {
		return nil
	}
	return fieldlapseerrors.NewOperationFailedError(
		fmt.Sprintf("input %s is %s, over the %s limit",
			inputPath, util.FormatBytes(size), util.FormatBytes(s.cfg.MaxFileSizeBytes)), nil)
}

// Recommend estimates output size, processing time, and a rationale for
// each built-in profile given a video's duration in seconds, its size in
// megabytes, and its overall activity ratio (typically taken from a prior
// analysis job's report).
func (s *System) Recommend(durationSeconds, sizeMB, activityRatio float64) map[string]Recommendation {
	return s.registry.Recommend(durationSeconds, sizeMB, activityRatio)
}

// Status returns a job's current snapshot, or false if jobID is unknown.
func (s *System) Status(jobID string) (Snapshot, bool) {
	return s.orch.Status(jobID)
}

// Cancel cancels a job. See orchestrator.Orchestrator.Cancel for the
// queued-vs-running distinction.
func (s *System) Cancel(jobID string) bool {
	return s.orch.Cancel(jobID)
}

// Retry re-enqueues a failed job under its original request.
func (s *System) Retry(jobID string) error {
	return s.orch.Retry(jobID)
}

// ListActive returns a snapshot for every non-terminal job.
func (s *System) ListActive() map[string]Snapshot {
	return s.orch.ListActive()
}

// Subscribe registers sub to receive only jobID's progress events. The
// returned function unsubscribes it.
func (s *System) Subscribe(jobID string, sub Subscriber) (unsubscribe func()) {
	return s.bus.Subscribe(jobID, sub)
}

// SubscribeAll registers sub to receive every job's progress events. The
// returned function unsubscribes it.
func (s *System) SubscribeAll(sub Subscriber) (unsubscribe func()) {
	return s.bus.SubscribeAll(sub)
}

// History returns jobID's retained progress snapshots and events plus a
// computed ETA, or false if the bus has no record of jobID.
func (s *System) History(jobID string) (History, bool) {
	return s.bus.History(jobID)
}

// CleanupHistory evicts progress history for jobs that finished more than
// maxAge ago.
func (s *System) CleanupHistory(maxAge time.Duration) {
	s.bus.Cleanup(maxAge)
}

// FindVideos finds video files in dir, sorted alphabetically, logging
// discovery results to the System's log file.
func (s *System) FindVideos(dir string) ([]string, error) {
	result, err := discovery.FindVideoFilesWithLogging(dir, s.log)
	if err != nil {
		return nil, err
	}
	return result.Files, nil
}

package compressor

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldlapse/fieldlapse/internal/config"
	fieldlapseerrors "github.com/fieldlapse/fieldlapse/internal/errors"
	"github.com/fieldlapse/fieldlapse/internal/ffprobe"
	"github.com/fieldlapse/fieldlapse/internal/motion"
	"github.com/fieldlapse/fieldlapse/internal/profile"
	"github.com/fieldlapse/fieldlapse/internal/progressbus"
	"github.com/fieldlapse/fieldlapse/internal/util"
	"github.com/fieldlapse/fieldlapse/internal/validation"
)

// Compressor drives the adaptive compression pipeline: analyze the
// source for motion (first 20% of overall progress), encode either a
// single fallback segment or one segment per activity segment (next
// 70%), concatenate losslessly (90%), validate and finalize (100%).
type Compressor struct {
	cfg      *config.Config
	registry *profile.Registry
	bus      *progressbus.Bus
}

// NewCompressor constructs a Compressor. bus may be nil, in which case no
// progress events are emitted (callers still observe state via Job.Snapshot).
func NewCompressor(cfg *config.Config, registry *profile.Registry, bus *progressbus.Bus) *Compressor {
	return &Compressor{cfg: cfg, registry: registry, bus: bus}
}

// StartJob validates profileName against the registry, then kicks off
// background work for a new job and returns immediately. An unknown
// profile name fails before any job record is created or any progress
// event is emitted.
func (c *Compressor) StartJob(id, inputPath, outputPath, profileName string, roiEnabled bool) (*Job, error) {
	if _, err := c.registry.Get(profileName); err != nil {
		return nil, err
	}

	originalSize, _ := util.GetFileSize(inputPath)

	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:           id,
		InputPath:    inputPath,
		OutputPath:   outputPath,
		ProfileName:  profileName,
		ROIEnabled:   roiEnabled,
		status:       StatusPending,
		originalSize: originalSize,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	if c.bus != nil {
		c.bus.Register(id, "queued")
	}

	go c.run(ctx, job)
	return job, nil
}

// StartAnalysis kicks off a motion-analysis-only job: the source is
// analyzed and the result is written to reportPath as the analysis report
// JSON artifact. No encoding happens and no profile is involved. Returns
// immediately, like StartJob.
func (c *Compressor) StartAnalysis(id, inputPath, reportPath string) (*Job, error) {
	originalSize, _ := util.GetFileSize(inputPath)

	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:           id,
		InputPath:    inputPath,
		OutputPath:   reportPath,
		status:       StatusPending,
		originalSize: originalSize,
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	if c.bus != nil {
		c.bus.Register(id, "queued")
	}

	go c.runAnalysis(ctx, job)
	return job, nil
}

func (c *Compressor) runAnalysis(ctx context.Context, job *Job) {
	defer close(job.done)
	job.setRunning()

	if ctx.Err() != nil {
		c.cancelJob(job)
		return
	}

	if c.bus != nil {
		c.bus.ChangeStage(job.ID, "motion_analysis", "analyzing motion")
	}

	source, err := motion.OpenFrameSource(job.InputPath)
	if err != nil {
		c.fail(job, err)
		return
	}
	defer source.Close()

	analyzer := motion.NewAnalyzer(c.cfg, source.Width(), source.Height())
	progressFn := func(percent float64, stage string) {
		job.setProgress(percent, stage)
		if c.bus != nil {
			c.bus.Update(job.ID, percent, stage, "", nil)
		}
	}

	result, err := analyzer.AnalyzeContext(ctx, source, progressFn)
	if err != nil {
		c.failOrCancel(job, err)
		return
	}

	if ctx.Err() != nil {
		c.cancelJob(job)
		return
	}

	if err := util.EnsureDirectory(filepath.Dir(job.OutputPath)); err != nil {
		c.fail(job, err)
		return
	}
	if err := motion.WriteReport(result, job.OutputPath, time.Now()); err != nil {
		c.fail(job, err)
		return
	}

	reportSize, _ := util.GetFileSize(job.OutputPath)
	job.finish(reportSize, nil)
	if c.bus != nil {
		c.bus.Complete(job.ID, "analysis complete")
	}
}

func (c *Compressor) run(ctx context.Context, job *Job) {
	defer close(job.done)
	job.setRunning()

	if ctx.Err() != nil {
		job.markCancelled()
		if c.bus != nil {
			c.bus.Cancel(job.ID, "job cancelled before starting")
		}
		return
	}

	outDir := filepath.Dir(job.OutputPath)
	if err := util.EnsureDirectory(outDir); err != nil {
		c.fail(job, err)
		return
	}
	if err := util.EnsureDirectoryWritable(outDir); err != nil {
		c.fail(job, err)
		return
	}

	tempDir, err := util.CreateTempDir(c.cfg.GetTempDir(), "fieldlapse_"+job.ID)
	if err != nil {
		c.fail(job, err)
		return
	}
	defer func() { _ = tempDir.Cleanup() }()

	if c.bus != nil {
		c.bus.ChangeStage(job.ID, "motion_analysis", "analyzing motion")
	}

	result, err := c.analyze(ctx, job)
	if err != nil {
		c.failOrCancel(job, err)
		return
	}

	if ctx.Err() != nil {
		c.cancelJob(job)
		return
	}

	prof, err := c.registry.Get(job.ProfileName)
	if err != nil {
		c.fail(job, err)
		return
	}

	if c.bus != nil {
		c.bus.ChangeStage(job.ID, "encoding", "encoding segments")
	}

	var segmentPaths []string
	if len(result.ActivitySegments) == 0 {
		segmentPaths, err = c.runDegenerate(ctx, job, tempDir, prof, result)
	} else {
		segmentPaths, err = c.runSegments(ctx, job, tempDir, prof, result)
	}
	if err != nil {
		c.failOrCancel(job, err)
		return
	}

	if ctx.Err() != nil {
		c.cancelJob(job)
		return
	}

	job.setProgress(90, "concatenating")
	if c.bus != nil {
		c.bus.ChangeStage(job.ID, "concatenating", "stitching segments")
		c.bus.Update(job.ID, 90, "concatenating", "", nil)
	}

	if err := c.concatenate(ctx, segmentPaths, tempDir, job.OutputPath); err != nil {
		c.failOrCancel(job, err)
		return
	}

	c.finalize(job, result)
}

// analyze runs the motion analyzer with a progress callback scaling its
// raw percent into the first 20% of the overall bar.
func (c *Compressor) analyze(ctx context.Context, job *Job) (*motion.Result, error) {
	source, err := motion.OpenFrameSource(job.InputPath)
	if err != nil {
		return nil, err
	}
	defer source.Close()

	analyzer := motion.NewAnalyzer(c.cfg, source.Width(), source.Height())

	progressFn := func(percent float64, stage string) {
		overall := percent * 0.2
		job.setProgress(overall, "motion_analysis")
		if c.bus != nil {
			c.bus.Update(job.ID, overall, "motion_analysis", "", nil)
		}
	}

	return analyzer.AnalyzeContext(ctx, source, progressFn)
}

// finalize runs output validation, records the compressed size, and
// emits the completed event. A validation failure does not fail the job;
// it is surfaced through the job record's Validation field and a payload
// on the last progress update preceding the terminal event.
func (c *Compressor) finalize(job *Job, result *motion.Result) {
	expectedDuration := result.TotalDuration
	opts := validation.Options{ExpectedDuration: &expectedDuration}
	// Audio is stream-copied through every segment, so the output must
	// carry the same audio stream count as the input.
	if channels, err := ffprobe.GetAudioChannels(job.InputPath); err == nil {
		streams := len(channels)
		opts.ExpectedAudioStreams = &streams
	}
	valResult, _ := validation.ValidateOutputVideo(job.OutputPath, opts)

	compressedSize, _ := util.GetFileSize(job.OutputPath)
	job.finish(compressedSize, valResult)

	if c.bus == nil {
		return
	}

	if valResult != nil {
		c.bus.Update(job.ID, 100, "finalizing", "", map[string]any{
			"validation_passed": valResult.IsValid(),
			"validation_steps":  valResult.GetValidationSteps(),
		})
	}
	c.bus.Complete(job.ID, "compression complete")
}

// failOrCancel routes a stage error to cancellation handling if it is a
// cancellation, and to failure handling otherwise.
func (c *Compressor) failOrCancel(job *Job, err error) {
	if fieldlapseerrors.IsCancelled(err) {
		c.cancelJob(job)
		return
	}
	c.fail(job, err)
}

// fail records job failure, removes any partial output, and emits the
// failed event. The temp directory is always reclaimed by run's deferred
// cleanup regardless of which path led here.
func (c *Compressor) fail(job *Job, err error) {
	_ = os.Remove(job.OutputPath)
	job.failWith(err.Error())
	if c.bus != nil {
		c.bus.Fail(job.ID, err.Error(), nil)
	}
}

// cancelJob records job cancellation and removes any partial output.
func (c *Compressor) cancelJob(job *Job) {
	_ = os.Remove(job.OutputPath)
	job.markCancelled()
	if c.bus != nil {
		c.bus.Cancel(job.ID, "job cancelled")
	}
}

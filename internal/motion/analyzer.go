package motion

import (
	"context"
	"image"

	"github.com/fieldlapse/fieldlapse/internal/config"
	"github.com/fieldlapse/fieldlapse/internal/errors"
)

// minAnalyzableSeconds is the shortest span of decoded video this analyzer
// will accept before reporting InsufficientFramesError.
const minAnalyzableSeconds = 1.0

// Source is what Analyzer needs from a frame decoder: sequential grayscale
// frames plus the metadata used to derive durations. *FrameSource
// satisfies it against a real container file; tests satisfy it with an
// in-memory generator so the analyzer's segmentation/period logic can be
// exercised against known synthetic motion patterns without a CGO decoder.
type Source interface {
	Path() string
	FPS() float64
	FrameCount() int
	NextFrame() (*image.Gray, error)
}

// Analyzer runs background subtraction, optical flow, and frame
// differencing over a Source, producing a Result.
type Analyzer struct {
	cfg *config.Config
	bg  *backgroundModel
	se  [][]bool
}

// NewAnalyzer constructs an Analyzer for a source of the given dimensions.
func NewAnalyzer(cfg *config.Config, width, height int) *Analyzer {
	return &Analyzer{
		cfg: cfg,
		bg:  newBackgroundModel(width, height, 0.001),
		se:  ellipseStructElement(cfg.MorphKernel),
	}
}

// Analyze decodes every frame of source, computing a motion timeline,
// activity segments, and sleep/active periods. progress, if non-nil, is
// invoked roughly every 30 frames. Equivalent to AnalyzeContext with
// context.Background().
func (a *Analyzer) Analyze(source Source, progress ProgressFunc) (*Result, error) {
	return a.AnalyzeContext(context.Background(), source, progress)
}

// AnalyzeContext is Analyze with cooperative cancellation: ctx is checked
// at the same ~30-frame cadence as progress reporting, not per frame. A
// cancelled ctx surfaces as an *errors.CoreError of KindCancelled.
func (a *Analyzer) AnalyzeContext(ctx context.Context, source Source, progress ProgressFunc) (*Result, error) {
	fps := source.FPS()
	totalFrames := source.FrameCount()

	var timeline []float64
	var prev *image.Gray
	decoded := 0

	for {
		if decoded%30 == 0 && ctx.Err() != nil {
			return nil, errors.NewCancelledError()
		}

		frame, err := source.NextFrame()
		if err != nil {
			if decoded == 0 {
				return nil, err
			}
			break // truncate at last successful frame
		}
		if frame == nil {
			break
		}

		intensity := frameIntensity(a.cfg, a.bg, a.se, prev, frame)
		timeline = append(timeline, intensity)
		prev = frame
		decoded++

		if progress != nil && decoded%30 == 0 && totalFrames > 0 {
			progress(float64(decoded)/float64(totalFrames)*100, "motion_analysis")
		}
	}

	if fps <= 0 || float64(decoded)/fps < minAnalyzableSeconds {
		return nil, errors.NewInsufficientFramesError(source.Path(), uint64(decoded))
	}

	duration := float64(decoded) / fps

	segments := generateSegments(a.cfg, timeline, fps)
	sleep, active := derivePeriods(a.cfg, segments)

	totalActive := 0.0
	for _, p := range active {
		totalActive += p.Duration()
	}
	ratio := 0.0
	if duration > 0 {
		ratio = totalActive / duration
	}

	return &Result{
		TotalDuration:        duration,
		TotalFrames:          decoded,
		FPS:                  fps,
		ActivitySegments:     segments,
		MotionTimeline:       timeline,
		SleepPeriods:         sleep,
		ActivePeriods:        active,
		OverallActivityRatio: ratio,
	}, nil
}

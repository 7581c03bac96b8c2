package compressor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fieldlapse/fieldlapse/internal/config"
	fieldlapseerrors "github.com/fieldlapse/fieldlapse/internal/errors"
	"github.com/fieldlapse/fieldlapse/internal/ffmpeg"
	"github.com/fieldlapse/fieldlapse/internal/motion"
	"github.com/fieldlapse/fieldlapse/internal/profile"
	"github.com/fieldlapse/fieldlapse/internal/util"
)

// analysisShare and encodeShare are the overall-progress-bar fractions
// spent in motion analysis and segment encoding respectively; the
// remaining 10% covers concat and finalization.
const (
	analysisShare = 0.2
	encodeShare   = 0.7
)

// runDegenerate handles a source that produced zero activity segments
// (too short to meaningfully segment): the degenerate single-segment
// fallback encodes the entire video once with the profile's medium
// settings.
func (c *Compressor) runDegenerate(ctx context.Context, job *Job, tempDir *util.TempDir, prof profile.ActivityProfile, result *motion.Result) ([]string, error) {
	job.setSegmentCounts(0, 1)

	outPath := filepath.Join(tempDir.Path(), "segment_0000.mp4")
	duration := result.TotalDuration

	cb := func(p ffmpeg.Progress) {
		overall := analysisShare*100 + p.Percent*encodeShare
		job.setProgress(overall, "encoding")
		job.setSegmentCounts(1, 1)
		if c.bus != nil {
			c.bus.Update(job.ID, overall, "encoding", "", nil)
		}
	}

	if err := ffmpeg.Encode(ctx, job.InputPath, outPath, prof.Medium, 0, &duration, cb); err != nil {
		return nil, wrapEncodeError(0, err)
	}
	return []string{outPath}, nil
}

// runSegments encodes one H.264 segment per activity segment, in order,
// mapping each segment's encoder progress into its allotted slice of the
// overall progress bar: [20 + i/N*70, 20 + (i+1)/N*70]. Cancellation is
// checked before each segment starts; an encode already running is stopped
// as well, since ffmpeg runs under ctx.
func (c *Compressor) runSegments(ctx context.Context, job *Job, tempDir *util.TempDir, prof profile.ActivityProfile, result *motion.Result) ([]string, error) {
	segments := result.ActivitySegments
	n := len(segments)
	job.setSegmentCounts(0, n)

	paths := make([]string, 0, n)
	for i, seg := range segments {
		if ctx.Err() != nil {
			return nil, fieldlapseerrors.NewCancelledError()
		}

		settings, err := prof.SettingsFor(seg.ActivityLevel)
		if err != nil {
			return nil, err
		}
		if job.ROIEnabled && seg.MotionIntensity > config.ROIActivityThreshold {
			settings = profile.AdjustForROI(settings)
		}

		outPath := filepath.Join(tempDir.Path(), fmt.Sprintf("segment_%04d.mp4", i))
		duration := seg.Duration()

		lo := analysisShare*100 + float64(i)/float64(n)*encodeShare*100
		hi := analysisShare*100 + float64(i+1)/float64(n)*encodeShare*100

		segIdx := i
		cb := func(p ffmpeg.Progress) {
			overall := lo + (p.Percent/100)*(hi-lo)
			job.setProgress(overall, "encoding")
			job.setSegmentCounts(segIdx+1, n)
			if c.bus != nil {
				c.bus.Update(job.ID, overall, "encoding", "", nil)
			}
		}

		if err := ffmpeg.Encode(ctx, job.InputPath, outPath, settings, seg.StartTime, &duration, cb); err != nil {
			return nil, wrapEncodeError(i, err)
		}
		paths = append(paths, outPath)

		if c.cfg.EncodeCooldownSecs > 0 && i < n-1 {
			time.Sleep(time.Duration(c.cfg.EncodeCooldownSecs) * time.Second)
		}
	}
	return paths, nil
}

// wrapEncodeError tags a failed segment encode with its index, leaving
// cancellations untouched so failOrCancel can still route them.
func wrapEncodeError(segment int, err error) error {
	if fieldlapseerrors.IsCancelled(err) {
		return err
	}
	return fieldlapseerrors.NewEncoderFailureError(segment, err)
}

// concatenate losslessly stitches segmentPaths into outputPath using the
// demuxer-concat idiom. The list file lives in the job's temp dir and is
// reclaimed with it.
func (c *Compressor) concatenate(ctx context.Context, segmentPaths []string, tempDir *util.TempDir, outputPath string) error {
	listFile, err := util.CreateTempFile(tempDir.Path(), "concat_list", "txt")
	if err != nil {
		return fmt.Errorf("failed to create concat list: %w", err)
	}

	var list strings.Builder
	for _, p := range segmentPaths {
		fmt.Fprintf(&list, "file '%s'\n", p)
	}
	if err := os.WriteFile(listFile.Path(), []byte(list.String()), 0644); err != nil {
		return fmt.Errorf("failed to write concat list: %w", err)
	}

	return ffmpeg.Concat(ctx, listFile.Path(), outputPath)
}

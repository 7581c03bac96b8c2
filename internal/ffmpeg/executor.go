package ffmpeg

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"regexp"
	"strings"

	"github.com/fieldlapse/fieldlapse/internal/errors"
	"github.com/fieldlapse/fieldlapse/internal/profile"
	"github.com/fieldlapse/fieldlapse/internal/util"
)

// Progress reports an in-progress segment encode or concat, scaled to the
// elapsed media time rather than wall-clock time.
type Progress struct {
	ElapsedSecs float64
	Percent     float64
}

// ProgressCallback is invoked with each parsed progress line. It must not
// block (it is typically called synchronously from the reading goroutine).
type ProgressCallback func(Progress)

var timeRegex = regexp.MustCompile(`time=(\d{2}:\d{2}:\d{2}\.?\d*)`)

const stderrTailBytes = 4000

// Encode drives a single segment encode: seek-before-input startTime,
// optional duration (nil means "to EOF"), H.264 4:2:0 at settings.
// Progress is parsed from ffmpeg's incremental stderr output
// (time=HH:MM:SS.mmm).
func Encode(ctx context.Context, inputPath, outputPath string, settings profile.Settings, startTime float64, duration *float64, progress ProgressCallback) error {
	args := BuildEncodeArgs(inputPath, outputPath, settings, startTime, duration)
	return run(ctx, args, durationOrZero(duration), progress)
}

// Concat losslessly stitches the files listed (one path per line) in
// listPath into outputPath via the demuxer-concat idiom (`-f concat -safe
// 0 -i <list> -c copy`), with no re-encode.
func Concat(ctx context.Context, listPath, outputPath string) error {
	args := BuildConcatArgs(listPath, outputPath)
	if err := run(ctx, args, 0, nil); err != nil {
		return errors.NewConcatFailureError(err)
	}
	return nil
}

func durationOrZero(d *float64) float64 {
	if d == nil {
		return 0
	}
	return *d
}

func run(ctx context.Context, args []string, totalDuration float64, progress ProgressCallback) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return errors.NewCommandStartError("ffmpeg", err)
	}

	if err := cmd.Start(); err != nil {
		return errors.NewCommandStartError("ffmpeg", err)
	}

	var tail strings.Builder
	parseProgress(stderr, &tail, totalDuration, progress)

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return errors.NewCancelledError()
		}
		return errors.WrapExecError("ffmpeg", err, lastBytes(tail.String(), stderrTailBytes))
	}

	return nil
}

// lastBytes returns at most the last n bytes of s, the stderr tail
// carried on encoder failures.
func lastBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// parseProgress reads ffmpeg stderr line-by-line (ffmpeg writes progress
// updates terminated by \r), extracting the `time=HH:MM:SS.mmm` field and
// invoking callback with elapsed seconds and, if totalDuration is known,
// a percent complete clamped to 100.
func parseProgress(stderr io.Reader, tail *strings.Builder, totalDuration float64, callback ProgressCallback) {
	reader := bufio.NewReader(stderr)
	var lineBuf strings.Builder

	for {
		b, err := reader.ReadByte()
		if err != nil {
			break
		}
		tail.WriteByte(b)

		if b == '\r' || b == '\n' {
			line := lineBuf.String()
			lineBuf.Reset()

			if callback == nil {
				continue
			}
			matches := timeRegex.FindStringSubmatch(line)
			if len(matches) < 2 {
				continue
			}
			secs, ok := util.ParseFFmpegTime(matches[1])
			if !ok {
				continue
			}
			percent := 0.0
			if totalDuration > 0 {
				percent = secs / totalDuration * 100
				if percent > 100 {
					percent = 100
				}
			}
			callback(Progress{ElapsedSecs: secs, Percent: percent})
		} else {
			lineBuf.WriteByte(b)
		}
	}
}

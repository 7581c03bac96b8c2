// Package ffmpeg builds and executes external H.264 encoder invocations
// and demuxer-level lossless concatenation.
package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/fieldlapse/fieldlapse/internal/profile"
)

// BuildEncodeArgs constructs the ffmpeg argument vector for one segment
// encode: seek-before-input start, optional duration, H.264 4:2:0 at the
// given settings, audio stream-copied through.
func BuildEncodeArgs(input, output string, settings profile.Settings, startTime float64, duration *float64) []string {
	args := []string{
		"-ss", formatSeconds(startTime),
	}
	if duration != nil {
		args = append(args, "-t", formatSeconds(*duration))
	}
	args = append(args,
		"-i", input,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-crf", strconv.Itoa(int(settings.CRF)),
		"-r", strconv.Itoa(settings.FPS),
		"-preset", settings.Preset,
		"-profile:v", settings.EncoderProfile,
		"-c:a", "copy",
		"-y", output,
	)
	return args
}

func formatSeconds(s float64) string {
	return fmt.Sprintf("%.3f", s)
}

// BuildConcatArgs constructs the ffmpeg argument vector for demuxer-level
// lossless concatenation of the files listed in listPath into output.
func BuildConcatArgs(listPath, output string) []string {
	return []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y", output,
	}
}

package validation

import (
	"fmt"
	"math"
	"strings"
)

const (
	// durationToleranceSecs is the maximum allowed difference in duration
	// between input and compressed output.
	durationToleranceSecs = 1.0
	// maxSyncDriftMs is the maximum allowed audio/video sync drift.
	maxSyncDriftMs = 100.0
)

// Options contains optional parameters for validation. A nil field skips
// that check (marked passed with an explanatory message).
type Options struct {
	ExpectedDimensions   *[2]uint32
	ExpectedDuration     *float64
	ExpectedAudioStreams *int
}

// ValidateOutputVideo performs the post-concatenation checks: dimension
// match, duration tolerance, A/V sync drift, audio stream carry-through,
// and H.264 codec identity. Delegates to ValidateWithAnalyzer using the
// DefaultAnalyzer.
func ValidateOutputVideo(outputPath string, opts Options) (*Result, error) {
	return ValidateWithAnalyzer(NewDefaultAnalyzer(), outputPath, opts)
}

func validateDimensions(actualW, actualH, expectedW, expectedH uint32) (bool, string) {
	if actualW == expectedW && actualH == expectedH {
		return true, fmt.Sprintf("Dimensions match: %dx%d", actualW, actualH)
	}
	return false, fmt.Sprintf("Dimension mismatch: got %dx%d, expected %dx%d",
		actualW, actualH, expectedW, expectedH)
}

func validateDuration(actual, expected float64) (bool, string) {
	diff := math.Abs(actual - expected)
	if diff <= durationToleranceSecs {
		return true, fmt.Sprintf("Duration matches input (%.1fs)", actual)
	}
	return false, fmt.Sprintf("Duration mismatch: got %.1fs, expected %.1fs (diff: %.1fs)",
		actual, expected, diff)
}

func validateSync(outputDuration, inputDuration float64) (bool, *float64, string) {
	driftMs := math.Abs(outputDuration-inputDuration) * 1000
	preserved := driftMs <= maxSyncDriftMs

	message := fmt.Sprintf("Audio/video sync preserved (drift: %.1fms)", driftMs)
	if !preserved {
		message = fmt.Sprintf("Audio/video sync drift too large: %.1fms (max: %.1fms)", driftMs, maxSyncDriftMs)
	}
	return preserved, &driftMs, message
}

// ValidateWithAnalyzer performs validation using a MediaAnalyzer interface,
// allowing tests to exercise this logic without shelling out to ffprobe.
func ValidateWithAnalyzer(analyzer MediaAnalyzer, outputPath string, opts Options) (*Result, error) {
	result := &Result{
		IsDimensionsOK:    true,
		IsDurationCorrect: true,
		IsSyncPreserved:   true,
		IsAudioStreamsOK:  true,
	}

	outputProps, err := analyzer.GetVideoProperties(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get output video properties: %w", err)
	}

	codecName, err := analyzer.GetVideoCodec(outputPath)
	if err != nil {
		result.IsCodecCorrect = false
	} else {
		lower := strings.ToLower(codecName)
		result.IsCodecCorrect = strings.Contains(lower, "h264") || strings.Contains(lower, "avc")
		result.CodecName = codecName
	}

	if opts.ExpectedDimensions != nil {
		result.ActualDimensions = &[2]uint32{outputProps.Width, outputProps.Height}
		result.ExpectedDimensions = opts.ExpectedDimensions
		result.IsDimensionsOK, result.DimensionMessage = validateDimensions(
			outputProps.Width, outputProps.Height,
			opts.ExpectedDimensions[0], opts.ExpectedDimensions[1],
		)
	} else {
		result.DimensionMessage = "No dimension validation requested"
	}

	if opts.ExpectedDuration != nil {
		actualDur := outputProps.DurationSecs
		result.ActualDuration = &actualDur
		result.ExpectedDuration = opts.ExpectedDuration
		result.IsDurationCorrect, result.DurationMessage = validateDuration(actualDur, *opts.ExpectedDuration)
		result.IsSyncPreserved, result.SyncDriftMs, result.SyncMessage = validateSync(actualDur, *opts.ExpectedDuration)
	} else {
		result.DurationMessage = "Duration validation skipped"
		result.SyncMessage = "Sync validation skipped"
	}

	if opts.ExpectedAudioStreams != nil {
		counts, err := analyzer.GetAudioChannelCounts(outputPath)
		if err != nil {
			result.IsAudioStreamsOK = false
			result.AudioMessage = fmt.Sprintf("Could not probe audio streams: %v", err)
		} else {
			actual := len(counts)
			result.ActualAudioStreams = &actual
			result.ExpectedAudioStreams = opts.ExpectedAudioStreams
			if actual == *opts.ExpectedAudioStreams {
				result.IsAudioStreamsOK = true
				result.AudioMessage = fmt.Sprintf("Audio streams carried through (%d)", actual)
			} else {
				result.IsAudioStreamsOK = false
				result.AudioMessage = fmt.Sprintf("Audio stream count mismatch: got %d, expected %d",
					actual, *opts.ExpectedAudioStreams)
			}
		}
	} else {
		result.AudioMessage = "Audio stream validation skipped"
	}

	return result, nil
}

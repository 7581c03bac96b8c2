// Package validation provides post-concatenation output validation:
// codec identity, dimension match, duration tolerance, A/V sync drift,
// and audio stream carry-through checks on a compressor job's finished
// output.
package validation

// MediaAnalyzer provides media analysis capabilities for validation. This
// interface allows validation logic to be tested without external tools.
type MediaAnalyzer interface {
	// GetVideoProperties returns video stream properties for the given file.
	GetVideoProperties(path string) (*AnalyzerVideoProperties, error)

	// GetVideoCodec returns the video codec name for the given file.
	GetVideoCodec(path string) (string, error)

	// GetAudioChannelCounts returns the channel count of each audio stream
	// in the given file, in stream order.
	GetAudioChannelCounts(path string) ([]uint32, error)
}

// AnalyzerVideoProperties contains video stream information needed for validation.
type AnalyzerVideoProperties struct {
	Width        uint32
	Height       uint32
	DurationSecs float64
}

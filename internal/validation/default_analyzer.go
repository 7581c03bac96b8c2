package validation

import "github.com/fieldlapse/fieldlapse/internal/ffprobe"

// DefaultAnalyzer implements MediaAnalyzer using ffprobe.
type DefaultAnalyzer struct{}

// NewDefaultAnalyzer creates a new DefaultAnalyzer instance.
func NewDefaultAnalyzer() *DefaultAnalyzer {
	return &DefaultAnalyzer{}
}

// GetVideoProperties returns video stream properties using ffprobe.
func (a *DefaultAnalyzer) GetVideoProperties(path string) (*AnalyzerVideoProperties, error) {
	props, err := ffprobe.GetVideoProperties(path)
	if err != nil {
		return nil, err
	}
	return &AnalyzerVideoProperties{
		Width:        props.Width,
		Height:       props.Height,
		DurationSecs: props.DurationSecs,
	}, nil
}

// GetVideoCodec returns the video codec name using ffprobe.
func (a *DefaultAnalyzer) GetVideoCodec(path string) (string, error) {
	return ffprobe.GetVideoCodecName(path)
}

// GetAudioChannelCounts returns per-stream audio channel counts using ffprobe.
func (a *DefaultAnalyzer) GetAudioChannelCounts(path string) ([]uint32, error) {
	return ffprobe.GetAudioChannels(path)
}

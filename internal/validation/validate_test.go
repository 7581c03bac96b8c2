package validation

import (
	"errors"
	"testing"
)

type mockAnalyzer struct {
	videoProps       *AnalyzerVideoProperties
	videoPropsErr    error
	videoCodec       string
	videoCodecErr    error
	audioChannels    []uint32
	audioChannelsErr error
}

func (m *mockAnalyzer) GetVideoProperties(path string) (*AnalyzerVideoProperties, error) {
	return m.videoProps, m.videoPropsErr
}

func (m *mockAnalyzer) GetVideoCodec(path string) (string, error) {
	return m.videoCodec, m.videoCodecErr
}

func (m *mockAnalyzer) GetAudioChannelCounts(path string) ([]uint32, error) {
	return m.audioChannels, m.audioChannelsErr
}

func TestValidateWithAnalyzer_AllPass(t *testing.T) {
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{Width: 320, Height: 240, DurationSecs: 10.0},
		videoCodec: "h264",
	}

	dims := [2]uint32{320, 240}
	duration := 10.0

	result, err := ValidateWithAnalyzer(mock, "/fake/out.mp4", Options{
		ExpectedDimensions: &dims,
		ExpectedDuration:   &duration,
	})
	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}
	if !result.IsValid() {
		t.Errorf("IsValid() = false, want true. Failures: %v", result.GetFailures())
	}
	if !result.IsCodecCorrect {
		t.Error("IsCodecCorrect = false, want true for h264")
	}
}

func TestValidateWithAnalyzer_CodecMismatch(t *testing.T) {
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{Width: 320, Height: 240, DurationSecs: 10.0},
		videoCodec: "vp9",
	}

	result, err := ValidateWithAnalyzer(mock, "/fake/out.mp4", Options{})
	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}
	if result.IsCodecCorrect {
		t.Error("IsCodecCorrect = true, want false for vp9")
	}
	if result.IsValid() {
		t.Error("IsValid() = true, want false")
	}
}

func TestValidateWithAnalyzer_DimensionMismatch(t *testing.T) {
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{Width: 320, Height: 240, DurationSecs: 10.0},
		videoCodec: "h264",
	}
	dims := [2]uint32{640, 480}

	result, err := ValidateWithAnalyzer(mock, "/fake/out.mp4", Options{ExpectedDimensions: &dims})
	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}
	if result.IsDimensionsOK {
		t.Error("IsDimensionsOK = true, want false")
	}
}

func TestValidateWithAnalyzer_DurationOutOfTolerance(t *testing.T) {
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{Width: 320, Height: 240, DurationSecs: 12.5},
		videoCodec: "h264",
	}
	duration := 10.0

	result, err := ValidateWithAnalyzer(mock, "/fake/out.mp4", Options{ExpectedDuration: &duration})
	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}
	if result.IsDurationCorrect {
		t.Error("IsDurationCorrect = true, want false for a 2.5s drift")
	}
	if result.IsSyncPreserved {
		t.Error("IsSyncPreserved = true, want false for a 2.5s drift")
	}
}

func TestValidateWithAnalyzer_DurationWithinTolerance(t *testing.T) {
	mock := &mockAnalyzer{
		videoProps: &AnalyzerVideoProperties{Width: 320, Height: 240, DurationSecs: 10.4},
		videoCodec: "h264",
	}
	duration := 10.0

	result, err := ValidateWithAnalyzer(mock, "/fake/out.mp4", Options{ExpectedDuration: &duration})
	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}
	if !result.IsDurationCorrect {
		t.Error("IsDurationCorrect = false, want true for a 0.4s drift")
	}
}

func TestValidateWithAnalyzer_AudioStreamCountMismatch(t *testing.T) {
	mock := &mockAnalyzer{
		videoProps:    &AnalyzerVideoProperties{Width: 320, Height: 240, DurationSecs: 10.0},
		videoCodec:    "h264",
		audioChannels: []uint32{2},
	}
	expected := 2

	result, err := ValidateWithAnalyzer(mock, "/fake/out.mp4", Options{ExpectedAudioStreams: &expected})
	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}
	if result.IsAudioStreamsOK {
		t.Error("IsAudioStreamsOK = true, want false for a dropped audio stream")
	}
	if result.ActualAudioStreams == nil || *result.ActualAudioStreams != 1 {
		t.Errorf("ActualAudioStreams = %v, want 1", result.ActualAudioStreams)
	}
}

func TestValidateWithAnalyzer_AudioStreamCountMatch(t *testing.T) {
	mock := &mockAnalyzer{
		videoProps:    &AnalyzerVideoProperties{Width: 320, Height: 240, DurationSecs: 10.0},
		videoCodec:    "h264",
		audioChannels: []uint32{6, 2},
	}
	expected := 2

	result, err := ValidateWithAnalyzer(mock, "/fake/out.mp4", Options{ExpectedAudioStreams: &expected})
	if err != nil {
		t.Fatalf("ValidateWithAnalyzer() error = %v", err)
	}
	if !result.IsAudioStreamsOK {
		t.Errorf("IsAudioStreamsOK = false, want true: %s", result.AudioMessage)
	}
}

func TestValidateWithAnalyzer_VideoPropsError(t *testing.T) {
	mock := &mockAnalyzer{videoPropsErr: errors.New("ffprobe failed")}

	_, err := ValidateWithAnalyzer(mock, "/fake/out.mp4", Options{})
	if err == nil {
		t.Fatal("expected an error when GetVideoProperties fails")
	}
}

func TestResult_GetValidationSteps(t *testing.T) {
	result := &Result{
		IsCodecCorrect:    true,
		IsDimensionsOK:    true,
		IsDurationCorrect: true,
		IsSyncPreserved:   true,
		IsAudioStreamsOK:  true,
		CodecName:         "h264",
	}
	steps := result.GetValidationSteps()
	if len(steps) != 5 {
		t.Fatalf("GetValidationSteps() returned %d steps, want 5", len(steps))
	}
	for _, s := range steps {
		if !s.Passed {
			t.Errorf("step %q: Passed = false, want true", s.Name)
		}
	}
	if len(result.GetFailures()) != 0 {
		t.Errorf("GetFailures() = %v, want empty", result.GetFailures())
	}
}

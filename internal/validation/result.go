package validation

// Result contains the overall validation result for one job's output.
type Result struct {
	IsCodecCorrect    bool
	IsDurationCorrect bool
	IsDimensionsOK    bool
	IsSyncPreserved   bool
	IsAudioStreamsOK  bool

	CodecName            string
	ActualDimensions     *[2]uint32
	ExpectedDimensions   *[2]uint32
	DimensionMessage     string
	ActualDuration       *float64
	ExpectedDuration     *float64
	DurationMessage      string
	SyncDriftMs          *float64
	SyncMessage          string
	ActualAudioStreams   *int
	ExpectedAudioStreams *int
	AudioMessage         string
}

// ValidationStep represents a single named validation check.
type ValidationStep struct {
	Name    string
	Passed  bool
	Details string
}

// IsValid returns true if all validation checks passed.
func (r *Result) IsValid() bool {
	return r.IsCodecCorrect && r.IsDurationCorrect && r.IsDimensionsOK && r.IsSyncPreserved && r.IsAudioStreamsOK
}

// GetValidationSteps returns all validation checks with results, in the
// order they are reported.
func (r *Result) GetValidationSteps() []ValidationStep {
	return []ValidationStep{
		{Name: "Video codec", Passed: r.IsCodecCorrect, Details: formatCodecDetails(r.CodecName, r.IsCodecCorrect)},
		{Name: "Dimensions", Passed: r.IsDimensionsOK, Details: r.DimensionMessage},
		{Name: "Duration", Passed: r.IsDurationCorrect, Details: r.DurationMessage},
		{Name: "Audio/video sync", Passed: r.IsSyncPreserved, Details: r.SyncMessage},
		{Name: "Audio streams", Passed: r.IsAudioStreamsOK, Details: r.AudioMessage},
	}
}

// GetFailures returns descriptions of failed validation checks.
func (r *Result) GetFailures() []string {
	var failures []string
	for _, step := range r.GetValidationSteps() {
		if !step.Passed {
			failures = append(failures, step.Name+": "+step.Details)
		}
	}
	return failures
}

func formatCodecDetails(codecName string, passed bool) string {
	if passed {
		return "H.264 (" + codecName + ")"
	}
	if codecName != "" {
		return "Expected H.264, got " + codecName
	}
	return "Unknown codec"
}

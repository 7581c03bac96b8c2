// Package config provides configuration types and defaults for fieldlapse.
package config

import "fmt"

// Default constants for motion analysis.
const (
	// DefaultBGBlurKernel is the Gaussian blur kernel size applied to the
	// background-subtraction foreground mask. Must be odd.
	DefaultBGBlurKernel int = 21

	// DefaultMorphKernel is the elliptic structuring element size used for
	// the foreground mask's open/close morphology pass.
	DefaultMorphKernel int = 5

	// DefaultMaxCorners is the maximum number of sparse corners tracked by
	// the optical-flow stage.
	DefaultMaxCorners int = 100

	// DefaultCornerQuality is the minimum corner quality (relative to the
	// strongest corner) accepted by the corner detector.
	DefaultCornerQuality float64 = 0.3

	// DefaultMinCornerDistance is the minimum pixel distance enforced
	// between tracked corners.
	DefaultMinCornerDistance float64 = 7

	// DefaultCornerBlock is the block size used for corner detection.
	DefaultCornerBlock int = 7

	// DefaultFlowWindow is the Lucas-Kanade window size.
	DefaultFlowWindow int = 15

	// DefaultFlowPyramidLevels is the optical-flow pyramid depth carried in
	// Config. The tracker does not read it and runs at full resolution only.
	DefaultFlowPyramidLevels int = 2

	// DefaultFlowMaxIterations caps the Lucas-Kanade termination criteria.
	DefaultFlowMaxIterations int = 10

	// DefaultFlowEpsilon is the Lucas-Kanade termination epsilon.
	DefaultFlowEpsilon float64 = 0.03

	// DefaultFrameDiffThreshold is the pixel-intensity threshold applied to
	// the blurred frame-differencing mask.
	DefaultFrameDiffThreshold uint8 = 20

	// DefaultBGWeight, DefaultOFWeight and DefaultFDWeight are the fusion
	// weights combining background-subtraction, optical-flow, and
	// frame-differencing ratios into a single motion intensity. They must
	// sum to 1.0.
	DefaultBGWeight float64 = 0.5
	DefaultOFWeight float64 = 0.3
	DefaultFDWeight float64 = 0.2

	// DefaultHighThreshold, DefaultMediumThreshold and DefaultLowThreshold
	// classify a segment's mean motion intensity into an activity level.
	// Below DefaultLowThreshold a segment is classified inactive.
	DefaultHighThreshold   float64 = 0.08
	DefaultMediumThreshold float64 = 0.04
	DefaultLowThreshold    float64 = 0.01

	// DefaultSegmentCapSeconds is the maximum duration of a single activity
	// segment before it is force-split regardless of label stability.
	DefaultSegmentCapSeconds float64 = 10.0

	// DefaultMinInactiveDuration is the minimum span, in seconds, an
	// inactive run must reach before it is reported as a sleep period.
	DefaultMinInactiveDuration float64 = 30.0

	// DefaultROIMinAreaPx is the minimum contour area, in pixels squared,
	// considered for region-of-interest extraction.
	DefaultROIMinAreaPx float64 = 100.0

	// DefaultROIPaddingPx expands an ROI bounding box by this many pixels
	// on each side before clamping to the frame.
	DefaultROIPaddingPx int = 50

	// DefaultROIMinDimension is the minimum width/height, in pixels, an
	// expanded ROI box must have on both axes to be reported.
	DefaultROIMinDimension int = 20
)

// Default constants for compression profiles and ROI adjustment.
const (
	// DefaultProfileName names the built-in profile used when a job
	// doesn't request one explicitly.
	DefaultProfileName string = "balanced"

	// ROIActivityThreshold is the minimum segment mean intensity that
	// triggers ROI-adjusted settings when ROI mode is enabled.
	ROIActivityThreshold float64 = 0.02

	// ROICRFBoost is subtracted from CRF (floored at 0) for ROI segments.
	ROICRFBoost uint8 = 3

	// ROIBitrateFactor multiplies the bitrate factor for ROI segments.
	ROIBitrateFactor float64 = 1.2
)

// Default constants for orchestration and housekeeping.
const (
	// DefaultWorkers is the number of concurrent job-processing workers.
	DefaultWorkers int = 4

	// DefaultMaxFileSizeBytes rejects job submissions for input files
	// larger than this; 0 disables the check.
	DefaultMaxFileSizeBytes uint64 = 0

	// DefaultHistoryRetentionHours is the age past which fieldlapse.New
	// removes stale fieldlapse temp entries from the temp directory. It
	// does not evict progress-bus history; System.CleanupHistory takes its
	// own age.
	DefaultHistoryRetentionHours float64 = 24.0

	// DefaultEncodeCooldownSecs is a pause between segment encodes to let
	// transient disk/CPU pressure settle.
	DefaultEncodeCooldownSecs uint64 = 0

	// DefaultProgressHistorySize bounds the number of progress snapshots
	// and events retained per job by the progress bus.
	DefaultProgressHistorySize int = 100
)

// Config holds all configuration for a fieldlapse system instance.
type Config struct {
	// Input/output/temp paths
	InputDir  string
	OutputDir string
	LogDir    string
	TempDir   string // Optional, defaults to OutputDir

	// Orchestration
	Workers               int     // Number of concurrent job workers
	MaxFileSizeBytes      uint64  // 0 disables the check
	HistoryRetentionHours float64 // Age of stale temp entries removed at startup
	ProgressHistorySize   int     // Snapshots retained per job
	EncodeCooldownSecs    uint64  // Pause between segment encodes

	// Profile registry
	DefaultProfile string // Name of the built-in profile used by default

	// Motion analyzer thresholds
	HighThreshold   float64
	MediumThreshold float64
	LowThreshold    float64

	// Motion analyzer fusion weights (must sum to 1.0)
	BGWeight float64
	OFWeight float64
	FDWeight float64

	// Motion analyzer kernel sizes
	BGBlurKernel       int
	MorphKernel        int
	MaxCorners         int
	CornerQuality      float64
	MinCornerDistance  float64
	CornerBlock        int
	FlowWindow         int
	FlowPyramidLevels  int
	FlowMaxIterations  int
	FlowEpsilon        float64
	FrameDiffThreshold uint8

	// Segmentation
	SegmentCapSeconds   float64
	MinInactiveDuration float64

	// Region of interest
	ROIMinAreaPx    float64
	ROIPaddingPx    int
	ROIMinDimension int

	// Debug options
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig(inputDir, outputDir, logDir string) *Config {
	return &Config{
		InputDir:              inputDir,
		OutputDir:             outputDir,
		LogDir:                logDir,
		Workers:               DefaultWorkers,
		MaxFileSizeBytes:      DefaultMaxFileSizeBytes,
		HistoryRetentionHours: DefaultHistoryRetentionHours,
		ProgressHistorySize:   DefaultProgressHistorySize,
		EncodeCooldownSecs:    DefaultEncodeCooldownSecs,
		DefaultProfile:        DefaultProfileName,
		HighThreshold:         DefaultHighThreshold,
		MediumThreshold:       DefaultMediumThreshold,
		LowThreshold:          DefaultLowThreshold,
		BGWeight:              DefaultBGWeight,
		OFWeight:              DefaultOFWeight,
		FDWeight:              DefaultFDWeight,
		BGBlurKernel:          DefaultBGBlurKernel,
		MorphKernel:           DefaultMorphKernel,
		MaxCorners:            DefaultMaxCorners,
		CornerQuality:         DefaultCornerQuality,
		MinCornerDistance:     DefaultMinCornerDistance,
		CornerBlock:           DefaultCornerBlock,
		FlowWindow:            DefaultFlowWindow,
		FlowPyramidLevels:     DefaultFlowPyramidLevels,
		FlowMaxIterations:     DefaultFlowMaxIterations,
		FlowEpsilon:           DefaultFlowEpsilon,
		FrameDiffThreshold:    DefaultFrameDiffThreshold,
		SegmentCapSeconds:     DefaultSegmentCapSeconds,
		MinInactiveDuration:   DefaultMinInactiveDuration,
		ROIMinAreaPx:          DefaultROIMinAreaPx,
		ROIPaddingPx:          DefaultROIPaddingPx,
		ROIMinDimension:       DefaultROIMinDimension,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.Workers)
	}

	if c.HighThreshold <= c.MediumThreshold || c.MediumThreshold <= c.LowThreshold {
		return fmt.Errorf("%w: high=%g medium=%g low=%g", ErrInvalidThresholds,
			c.HighThreshold, c.MediumThreshold, c.LowThreshold)
	}

	weightSum := c.BGWeight + c.OFWeight + c.FDWeight
	if weightSum < 0.999 || weightSum > 1.001 {
		return fmt.Errorf("%w: got %g", ErrInvalidWeights, weightSum)
	}

	if c.SegmentCapSeconds <= 0 {
		return fmt.Errorf("segment_cap_seconds must be positive, got %g", c.SegmentCapSeconds)
	}

	if c.MinInactiveDuration < 0 {
		return fmt.Errorf("min_inactive_duration must be non-negative, got %g", c.MinInactiveDuration)
	}

	return nil
}

// GetTempDir returns the temp directory, falling back to OutputDir if not set.
func (c *Config) GetTempDir() string {
	if c.TempDir != "" {
		return c.TempDir
	}
	return c.OutputDir
}

// Package profile implements the activity-level compression profile
// registry: per-activity CRF/FPS/preset/encoder-profile settings, custom
// profile registration, recommendation heuristics, and ROI adjustment.
package profile

import (
	"fmt"

	"github.com/fieldlapse/fieldlapse/internal/config"
	"github.com/fieldlapse/fieldlapse/internal/errors"
	"github.com/fieldlapse/fieldlapse/internal/motion"
)

// Settings holds the H.264 encode parameters used for one activity level.
type Settings struct {
	CRF           uint8
	FPS           int
	Preset        string
	EncoderProfile string // baseline, main, high
	BitrateFactor float64
}

// ActivityProfile groups one Settings per activity level plus metadata
// used by Recommend.
type ActivityProfile struct {
	Name                     string
	Description              string
	High                     Settings
	Medium                   Settings
	Low                      Settings
	Inactive                 Settings
	ExpectedCompressionRatio float64
	SpeedFactor              float64 // processing minutes per video minute, inverted
}

// SettingsFor returns the profile's settings for the given activity level.
func (p ActivityProfile) SettingsFor(level motion.ActivityLevel) (Settings, error) {
	switch level {
	case motion.LevelHigh:
		return p.High, nil
	case motion.LevelMedium:
		return p.Medium, nil
	case motion.LevelLow:
		return p.Low, nil
	case motion.LevelInactive:
		return p.Inactive, nil
	default:
		return Settings{}, fmt.Errorf("unknown activity level: %q", level)
	}
}

var validPresets = map[string]bool{
	"ultrafast": true, "superfast": true, "veryfast": true, "faster": true,
	"fast": true, "medium": true, "slow": true, "slower": true, "veryslow": true,
}

var validEncoderProfiles = map[string]bool{"baseline": true, "main": true, "high": true}

// ValidateSettings checks CRF/FPS ranges and preset/profile names. Failures
// carry errors.KindInvalidSettings and wrap the matching config sentinel.
func ValidateSettings(s Settings) error {
	if s.CRF > 51 {
		return errors.NewInvalidSettingsError(
			fmt.Sprintf("crf must be 0-51, got %d", s.CRF), config.ErrInvalidCRF)
	}
	if s.FPS < 1 || s.FPS > 60 {
		return errors.NewInvalidSettingsError(
			fmt.Sprintf("fps must be 1-60, got %d", s.FPS), config.ErrInvalidFPS)
	}
	if !validPresets[s.Preset] {
		return errors.NewInvalidSettingsError(
			fmt.Sprintf("unknown preset %q", s.Preset), config.ErrInvalidPreset)
	}
	if !validEncoderProfiles[s.EncoderProfile] {
		return errors.NewInvalidSettingsError(
			fmt.Sprintf("unknown encoder profile %q", s.EncoderProfile), config.ErrInvalidEncProfile)
	}
	return nil
}

// ValidateProfile validates every level's settings and enforces the
// CRF-monotonicity invariant: quality must not improve (CRF must not
// decrease) as activity drops from high to inactive.
func ValidateProfile(p ActivityProfile) error {
	levels := []Settings{p.High, p.Medium, p.Low, p.Inactive}
	for _, s := range levels {
		if err := ValidateSettings(s); err != nil {
			return err
		}
	}
	for i := 0; i < len(levels)-1; i++ {
		if levels[i].CRF > levels[i+1].CRF {
			return errors.NewInvalidSettingsError(
				fmt.Sprintf("profile %q CRF must be non-decreasing from high to inactive activity, got %v",
					p.Name, []uint8{p.High.CRF, p.Medium.CRF, p.Low.CRF, p.Inactive.CRF}),
				config.ErrInvalidCRF)
		}
	}
	return nil
}

// AdjustForROI applies the region-of-interest adjustment rule: CRF -3
// (floored at 0) and bitrate factor x1.2. FPS, preset, and encoder profile
// are unchanged.
func AdjustForROI(base Settings) Settings {
	adjusted := base
	if int(base.CRF) < int(config.ROICRFBoost) {
		adjusted.CRF = 0
	} else {
		adjusted.CRF = base.CRF - config.ROICRFBoost
	}
	adjusted.BitrateFactor = base.BitrateFactor * config.ROIBitrateFactor
	return adjusted
}

// Recommendation is one built-in profile's estimate for a given input.
type Recommendation struct {
	ProfileName                    string
	EstimatedOutputSizeMB          float64
	EstimatedProcessingTimeMinutes float64
	CompressionRatio               float64
	Reason                         string
}

// Registry holds the built-in profiles and any caller-registered custom
// profiles.
type Registry struct {
	builtins map[string]ActivityProfile
	custom   map[string]ActivityProfile
}

// NewRegistry constructs a Registry populated with the three built-in
// profiles (conservative, balanced, aggressive).
func NewRegistry() *Registry {
	return &Registry{
		builtins: defaultProfiles(),
		custom:   make(map[string]ActivityProfile),
	}
}

// Get returns the named profile, checking custom profiles before builtins.
func (r *Registry) Get(name string) (ActivityProfile, error) {
	if p, ok := r.custom[name]; ok {
		return p, nil
	}
	if p, ok := r.builtins[name]; ok {
		return p, nil
	}
	return ActivityProfile{}, errors.NewUnknownProfileError(name)
}

// AddCustom validates and registers a custom profile under name.
func (r *Registry) AddCustom(name string, p ActivityProfile) error {
	if err := ValidateProfile(p); err != nil {
		return err
	}
	p.Name = name
	r.custom[name] = p
	return nil
}

// List returns every registered profile: builtins under their own names,
// custom profiles under "custom_" followed by their name.
func (r *Registry) List() map[string]ActivityProfile {
	all := make(map[string]ActivityProfile, len(r.builtins)+len(r.custom))
	for k, v := range r.builtins {
		all[k] = v
	}
	for k, v := range r.custom {
		all["custom_"+k] = v
	}
	return all
}

// Recommend estimates output size, processing time, and a rationale for
// each built-in profile given a video's duration, input size, and overall
// activity ratio.
func (r *Registry) Recommend(durationSeconds, sizeMB, activityRatio float64) map[string]Recommendation {
	out := make(map[string]Recommendation, len(r.builtins))
	for name, p := range r.builtins {
		out[name] = Recommendation{
			ProfileName:                    name,
			EstimatedOutputSizeMB:          sizeMB * p.ExpectedCompressionRatio,
			EstimatedProcessingTimeMinutes: (durationSeconds / 60) / p.SpeedFactor,
			CompressionRatio:               p.ExpectedCompressionRatio,
			Reason:                         recommendationReason(name, activityRatio, sizeMB),
		}
	}
	return out
}

func recommendationReason(name string, activityRatio, sizeMB float64) string {
	var reasons []string
	switch name {
	case "conservative":
		if activityRatio > 0.7 {
			reasons = append(reasons, "high activity content, quality preservation important")
		}
		if sizeMB < 500 {
			reasons = append(reasons, "small file size allows for conservative compression")
		}
	case "balanced":
		reasons = append(reasons, "good general-purpose choice")
		if activityRatio >= 0.3 && activityRatio <= 0.7 {
			reasons = append(reasons, "moderate activity levels suit balanced approach")
		}
	case "aggressive":
		if activityRatio < 0.3 {
			reasons = append(reasons, "low activity content allows aggressive compression")
		}
		if sizeMB > 1000 {
			reasons = append(reasons, "large file size benefits from aggressive compression")
		}
	}
	if len(reasons) == 0 {
		return "standard recommendation"
	}
	joined := reasons[0]
	for _, r := range reasons[1:] {
		joined += "; " + r
	}
	return joined
}

func defaultProfiles() map[string]ActivityProfile {
	return map[string]ActivityProfile{
		"conservative": {
			Name:                     "conservative",
			Description:              "Prioritizes quality retention, minimal compression during active periods",
			ExpectedCompressionRatio: 0.45,
			SpeedFactor:              0.3,
			High:                     Settings{CRF: 18, FPS: 30, Preset: "slow", EncoderProfile: "high", BitrateFactor: 1.0},
			Medium:                   Settings{CRF: 20, FPS: 25, Preset: "slow", EncoderProfile: "high", BitrateFactor: 0.8},
			Low:                      Settings{CRF: 23, FPS: 20, Preset: "medium", EncoderProfile: "main", BitrateFactor: 0.6},
			Inactive:                 Settings{CRF: 25, FPS: 15, Preset: "medium", EncoderProfile: "main", BitrateFactor: 0.4},
		},
		"balanced": {
			Name:                     "balanced",
			Description:              "Good balance between quality and file size reduction",
			ExpectedCompressionRatio: 0.35,
			SpeedFactor:              0.5,
			High:                     Settings{CRF: 21, FPS: 25, Preset: "medium", EncoderProfile: "high", BitrateFactor: 0.9},
			Medium:                   Settings{CRF: 24, FPS: 20, Preset: "medium", EncoderProfile: "main", BitrateFactor: 0.7},
			Low:                      Settings{CRF: 27, FPS: 15, Preset: "fast", EncoderProfile: "main", BitrateFactor: 0.5},
			Inactive:                 Settings{CRF: 28, FPS: 10, Preset: "fast", EncoderProfile: "baseline", BitrateFactor: 0.3},
		},
		"aggressive": {
			Name:                     "aggressive",
			Description:              "Maximum compression, prioritizes storage savings",
			ExpectedCompressionRatio: 0.20,
			SpeedFactor:              0.8,
			High:                     Settings{CRF: 23, FPS: 20, Preset: "fast", EncoderProfile: "main", BitrateFactor: 0.8},
			Medium:                   Settings{CRF: 26, FPS: 15, Preset: "fast", EncoderProfile: "main", BitrateFactor: 0.6},
			Low:                      Settings{CRF: 30, FPS: 10, Preset: "fast", EncoderProfile: "baseline", BitrateFactor: 0.4},
			Inactive:                 Settings{CRF: 32, FPS: 5, Preset: "ultrafast", EncoderProfile: "baseline", BitrateFactor: 0.2},
		},
	}
}

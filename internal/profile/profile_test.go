package profile

import (
	"errors"
	"testing"

	"github.com/fieldlapse/fieldlapse/internal/config"
	fieldlapseerrors "github.com/fieldlapse/fieldlapse/internal/errors"
	"github.com/fieldlapse/fieldlapse/internal/motion"
)

func TestNewRegistry_HasThreeBuiltins(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"conservative", "balanced", "aggressive"} {
		if _, err := r.Get(name); err != nil {
			t.Errorf("Get(%q) = %v, want no error", name, err)
		}
	}
}

func TestRegistry_Get_UnknownProfile(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nonexistent")
	if err == nil {
		t.Fatal("Get on unknown profile should error")
	}
}

func TestRegistry_BuiltinsPassValidation(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"conservative", "balanced", "aggressive"} {
		p, _ := r.Get(name)
		if err := ValidateProfile(p); err != nil {
			t.Errorf("builtin profile %q fails validation: %v", name, err)
		}
	}
}

func TestSettingsFor_AllLevels(t *testing.T) {
	r := NewRegistry()
	p, _ := r.Get("balanced")

	tests := []struct {
		level motion.ActivityLevel
		want  Settings
	}{
		{motion.LevelHigh, p.High},
		{motion.LevelMedium, p.Medium},
		{motion.LevelLow, p.Low},
		{motion.LevelInactive, p.Inactive},
	}
	for _, tt := range tests {
		got, err := p.SettingsFor(tt.level)
		if err != nil {
			t.Fatalf("SettingsFor(%q) error: %v", tt.level, err)
		}
		if got != tt.want {
			t.Errorf("SettingsFor(%q) = %+v, want %+v", tt.level, got, tt.want)
		}
	}
}

func TestSettingsFor_UnknownLevel(t *testing.T) {
	r := NewRegistry()
	p, _ := r.Get("balanced")
	_, err := p.SettingsFor(motion.ActivityLevel("unknown"))
	if err == nil {
		t.Error("SettingsFor with an unknown level should error")
	}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr error
	}{
		{"valid", Settings{CRF: 23, FPS: 30, Preset: "medium", EncoderProfile: "main"}, nil},
		{"crf too high", Settings{CRF: 52, FPS: 30, Preset: "medium", EncoderProfile: "main"}, config.ErrInvalidCRF},
		{"fps zero", Settings{CRF: 23, FPS: 0, Preset: "medium", EncoderProfile: "main"}, config.ErrInvalidFPS},
		{"fps too high", Settings{CRF: 23, FPS: 61, Preset: "medium", EncoderProfile: "main"}, config.ErrInvalidFPS},
		{"bad preset", Settings{CRF: 23, FPS: 30, Preset: "bogus", EncoderProfile: "main"}, config.ErrInvalidPreset},
		{"bad enc profile", Settings{CRF: 23, FPS: 30, Preset: "medium", EncoderProfile: "bogus"}, config.ErrInvalidEncProfile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSettings(tt.s)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("got %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want wrapping %v", err, tt.wantErr)
			}
			if !fieldlapseerrors.IsKind(err, fieldlapseerrors.KindInvalidSettings) {
				t.Errorf("got %v, want KindInvalidSettings", err)
			}
		})
	}
}

func TestValidateProfile_RejectsDecreasingCRF(t *testing.T) {
	bad := ActivityProfile{
		Name:     "bad",
		High:     Settings{CRF: 30, FPS: 20, Preset: "fast", EncoderProfile: "main"},
		Medium:   Settings{CRF: 20, FPS: 20, Preset: "fast", EncoderProfile: "main"}, // decreases: invalid
		Low:      Settings{CRF: 25, FPS: 20, Preset: "fast", EncoderProfile: "main"},
		Inactive: Settings{CRF: 28, FPS: 20, Preset: "fast", EncoderProfile: "main"},
	}
	if err := ValidateProfile(bad); err == nil {
		t.Error("ValidateProfile should reject a non-monotonic CRF progression")
	}
}

func TestAddCustom_ValidatesAndStores(t *testing.T) {
	r := NewRegistry()
	custom := ActivityProfile{
		High:     Settings{CRF: 20, FPS: 30, Preset: "slow", EncoderProfile: "high"},
		Medium:   Settings{CRF: 22, FPS: 25, Preset: "slow", EncoderProfile: "high"},
		Low:      Settings{CRF: 25, FPS: 20, Preset: "medium", EncoderProfile: "main"},
		Inactive: Settings{CRF: 27, FPS: 15, Preset: "medium", EncoderProfile: "main"},
	}
	if err := r.AddCustom("mine", custom); err != nil {
		t.Fatalf("AddCustom error: %v", err)
	}
	got, err := r.Get("mine")
	if err != nil {
		t.Fatalf("Get(mine) error: %v", err)
	}
	if got.Name != "mine" {
		t.Errorf("Name = %q, want %q", got.Name, "mine")
	}
}

func TestAddCustom_RejectsInvalidSettings(t *testing.T) {
	r := NewRegistry()
	bad := ActivityProfile{
		High:     Settings{CRF: 200, FPS: 30, Preset: "slow", EncoderProfile: "high"},
		Medium:   Settings{CRF: 22, FPS: 25, Preset: "slow", EncoderProfile: "high"},
		Low:      Settings{CRF: 25, FPS: 20, Preset: "medium", EncoderProfile: "main"},
		Inactive: Settings{CRF: 27, FPS: 15, Preset: "medium", EncoderProfile: "main"},
	}
	if err := r.AddCustom("mine", bad); err == nil {
		t.Error("AddCustom should reject invalid settings")
	}
	if _, err := r.Get("mine"); err == nil {
		t.Error("a rejected custom profile should not be registered")
	}
}

func TestList_IncludesBuiltinsAndCustom(t *testing.T) {
	r := NewRegistry()
	custom := ActivityProfile{
		High:     Settings{CRF: 20, FPS: 30, Preset: "slow", EncoderProfile: "high"},
		Medium:   Settings{CRF: 22, FPS: 25, Preset: "slow", EncoderProfile: "high"},
		Low:      Settings{CRF: 25, FPS: 20, Preset: "medium", EncoderProfile: "main"},
		Inactive: Settings{CRF: 27, FPS: 15, Preset: "medium", EncoderProfile: "main"},
	}
	r.AddCustom("mine", custom)

	all := r.List()
	for _, name := range []string{"conservative", "balanced", "aggressive", "custom_mine"} {
		if _, ok := all[name]; !ok {
			t.Errorf("List() missing %q", name)
		}
	}
}

func TestAdjustForROI(t *testing.T) {
	base := Settings{CRF: 24, FPS: 20, Preset: "medium", EncoderProfile: "main", BitrateFactor: 0.7}
	adjusted := AdjustForROI(base)
	if adjusted.CRF != 21 {
		t.Errorf("CRF = %d, want 21", adjusted.CRF)
	}
	if adjusted.BitrateFactor < 0.839 || adjusted.BitrateFactor > 0.841 {
		t.Errorf("BitrateFactor = %g, want ~0.84", adjusted.BitrateFactor)
	}
	if adjusted.FPS != base.FPS || adjusted.Preset != base.Preset || adjusted.EncoderProfile != base.EncoderProfile {
		t.Error("AdjustForROI should not change FPS, preset, or encoder profile")
	}
}

func TestAdjustForROI_FloorsCRFAtZero(t *testing.T) {
	base := Settings{CRF: 2, FPS: 20, Preset: "medium", EncoderProfile: "main", BitrateFactor: 0.5}
	adjusted := AdjustForROI(base)
	if adjusted.CRF != 0 {
		t.Errorf("CRF = %d, want floored at 0", adjusted.CRF)
	}
}

func TestRecommend_ReturnsAllBuiltins(t *testing.T) {
	r := NewRegistry()
	recs := r.Recommend(3600, 1000, 0.5)
	for _, name := range []string{"conservative", "balanced", "aggressive"} {
		if _, ok := recs[name]; !ok {
			t.Errorf("Recommend() missing %q", name)
		}
	}
}

func TestRecommend_EstimatedSizeUsesRatio(t *testing.T) {
	r := NewRegistry()
	recs := r.Recommend(600, 1000, 0.5)
	got := recs["balanced"].EstimatedOutputSizeMB
	want := 1000 * 0.35
	if got != want {
		t.Errorf("EstimatedOutputSizeMB = %g, want %g", got, want)
	}
}

func TestRecommendationReason_HighActivityFavorsConservative(t *testing.T) {
	reason := recommendationReason("conservative", 0.9, 100)
	if reason == "standard recommendation" {
		t.Error("high activity ratio should produce a specific conservative rationale")
	}
}

func TestRecommendationReason_LowActivityFavorsAggressive(t *testing.T) {
	reason := recommendationReason("aggressive", 0.1, 2000)
	if reason == "standard recommendation" {
		t.Error("low activity ratio with a large file should produce a specific aggressive rationale")
	}
}

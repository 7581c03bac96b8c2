package config

import (
	"errors"
	"testing"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/input", "/output", "/log")

	if cfg.InputDir != "/input" {
		t.Errorf("expected InputDir=/input, got %s", cfg.InputDir)
	}
	if cfg.OutputDir != "/output" {
		t.Errorf("expected OutputDir=/output, got %s", cfg.OutputDir)
	}
	if cfg.LogDir != "/log" {
		t.Errorf("expected LogDir=/log, got %s", cfg.LogDir)
	}

	// Check defaults
	if cfg.Workers != DefaultWorkers {
		t.Errorf("expected Workers=%d, got %d", DefaultWorkers, cfg.Workers)
	}
	if cfg.DefaultProfile != DefaultProfileName {
		t.Errorf("expected DefaultProfile=%s, got %s", DefaultProfileName, cfg.DefaultProfile)
	}
	if cfg.HighThreshold != DefaultHighThreshold {
		t.Errorf("expected HighThreshold=%g, got %g", DefaultHighThreshold, cfg.HighThreshold)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name         string
		modify       func(*Config)
		wantErr      bool
		wantSentinel error
	}{
		{
			name:    "default config is valid",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:         "zero workers is invalid",
			modify:       func(c *Config) { c.Workers = 0 },
			wantErr:      true,
			wantSentinel: ErrInvalidWorkers,
		},
		{
			name:    "one worker is valid",
			modify:  func(c *Config) { c.Workers = 1 },
			wantErr: false,
		},
		{
			name: "thresholds not strictly decreasing is invalid",
			modify: func(c *Config) {
				c.MediumThreshold = c.HighThreshold
			},
			wantErr:      true,
			wantSentinel: ErrInvalidThresholds,
		},
		{
			name: "low threshold above medium is invalid",
			modify: func(c *Config) {
				c.LowThreshold = c.MediumThreshold + 0.01
			},
			wantErr:      true,
			wantSentinel: ErrInvalidThresholds,
		},
		{
			name: "fusion weights not summing to 1 is invalid",
			modify: func(c *Config) {
				c.BGWeight = 0.9
			},
			wantErr:      true,
			wantSentinel: ErrInvalidWeights,
		},
		{
			name: "fusion weights summing to 1 within tolerance is valid",
			modify: func(c *Config) {
				c.BGWeight = 0.5001
			},
			wantErr: false,
		},
		{
			name:    "zero segment cap is invalid",
			modify:  func(c *Config) { c.SegmentCapSeconds = 0 },
			wantErr: true,
		},
		{
			name:    "negative min inactive duration is invalid",
			modify:  func(c *Config) { c.MinInactiveDuration = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("/input", "/output", "/log")
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantSentinel != nil && !errors.Is(err, tt.wantSentinel) {
				t.Errorf("Validate() error = %v, want sentinel %v", err, tt.wantSentinel)
			}
		})
	}
}

func TestGetTempDir(t *testing.T) {
	cfg := NewConfig("/input", "/output", "/log")

	if got := cfg.GetTempDir(); got != "/output" {
		t.Errorf("expected GetTempDir() to fall back to OutputDir, got %s", got)
	}

	cfg.TempDir = "/tmp/custom"
	if got := cfg.GetTempDir(); got != "/tmp/custom" {
		t.Errorf("expected GetTempDir()=/tmp/custom, got %s", got)
	}
}

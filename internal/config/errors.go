// Package config provides configuration types and defaults for fieldlapse.
package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrInvalidCRF indicates a CRF value outside the valid 0-51 range.
	ErrInvalidCRF = errors.New("CRF value out of range")

	// ErrInvalidFPS indicates an FPS value outside the valid 1-60 range.
	ErrInvalidFPS = errors.New("FPS value out of range")

	// ErrInvalidPreset indicates an unknown libx264 preset name.
	ErrInvalidPreset = errors.New("invalid encoder preset")

	// ErrInvalidEncProfile indicates an unknown H.264 profile name.
	ErrInvalidEncProfile = errors.New("invalid encoder profile")

	// ErrInvalidWeights indicates motion fusion weights that don't sum to 1.
	ErrInvalidWeights = errors.New("motion fusion weights must sum to 1.0")

	// ErrInvalidThresholds indicates activity thresholds that aren't
	// strictly decreasing from high to low.
	ErrInvalidThresholds = errors.New("activity thresholds must be strictly decreasing")

	// ErrInvalidWorkers indicates a non-positive worker pool size.
	ErrInvalidWorkers = errors.New("workers must be at least 1")
)

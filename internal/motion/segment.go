package motion

import (
	"math"

	"github.com/fieldlapse/fieldlapse/internal/config"
)

// classifyActivity maps a motion intensity value to an activity level using
// the configured thresholds.
func classifyActivity(cfg *config.Config, intensity float64) ActivityLevel {
	switch {
	case intensity >= cfg.HighThreshold:
		return LevelHigh
	case intensity >= cfg.MediumThreshold:
		return LevelMedium
	case intensity >= cfg.LowThreshold:
		return LevelLow
	default:
		return LevelInactive
	}
}

// generateSegments walks a motion timeline and splits it into segments that
// share an activity level, force-splitting at the configured per-segment
// frame cap.
func generateSegments(cfg *config.Config, timeline []float64, fps float64) []Segment {
	if len(timeline) == 0 {
		return nil
	}

	maxFrames := int(math.Ceil(fps * cfg.SegmentCapSeconds))
	if maxFrames < 1 {
		maxFrames = 1
	}

	var segments []Segment
	segStart := 0
	currentLevel := classifyActivity(cfg, timeline[0])
	values := []float64{timeline[0]}

	for i := 1; i < len(timeline); i++ {
		level := classifyActivity(cfg, timeline[i])

		if level != currentLevel || i-segStart >= maxFrames {
			segments = append(segments, Segment{
				StartTime:       float64(segStart) / fps,
				EndTime:         float64(i) / fps,
				ActivityLevel:   currentLevel,
				MotionIntensity: mean(values),
				FrameStart:      segStart,
				FrameEnd:        i,
			})

			segStart = i
			currentLevel = level
			values = values[:0]
			values = append(values, timeline[i])
		} else {
			values = append(values, timeline[i])
		}
	}

	if segStart < len(timeline) {
		segments = append(segments, Segment{
			StartTime:       float64(segStart) / fps,
			EndTime:         float64(len(timeline)) / fps,
			ActivityLevel:   currentLevel,
			MotionIntensity: mean(values),
			FrameStart:      segStart,
			FrameEnd:        len(timeline),
		})
	}

	return segments
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

package motion

import (
	"encoding/json"
	"os"
	"time"
)

// reportSegment mirrors the analysis report's activity_segments entries.
type reportSegment struct {
	StartTime       float64       `json:"start_time"`
	EndTime         float64       `json:"end_time"`
	ActivityLevel   ActivityLevel `json:"activity_level"`
	MotionIntensity float64       `json:"motion_intensity"`
	FrameStart      int           `json:"frame_start"`
	FrameEnd        int           `json:"frame_end"`
}

type reportPeriod [2]float64

// report is the on-disk analysis_report.json schema.
type report struct {
	TotalDuration        float64         `json:"total_duration"`
	TotalFrames          int             `json:"total_frames"`
	FPS                  float64         `json:"fps"`
	ActivitySegments     []reportSegment `json:"activity_segments"`
	MotionTimeline       []float64       `json:"motion_timeline"`
	SleepPeriods         []reportPeriod  `json:"sleep_periods"`
	ActivePeriods        []reportPeriod  `json:"active_periods"`
	OverallActivityRatio float64         `json:"overall_activity_ratio"`
	AnalysisTimestamp    string          `json:"analysis_timestamp"`
}

// WriteReport serializes result to path as the analysis report JSON
// artifact, timestamped with stamp (pass time.Now() at the call site).
func WriteReport(result *Result, path string, stamp time.Time) error {
	rep := report{
		TotalDuration:        result.TotalDuration,
		TotalFrames:          result.TotalFrames,
		FPS:                  result.FPS,
		OverallActivityRatio: result.OverallActivityRatio,
		MotionTimeline:       result.MotionTimeline,
		AnalysisTimestamp:    stamp.Format(time.RFC3339),
	}

	for _, s := range result.ActivitySegments {
		rep.ActivitySegments = append(rep.ActivitySegments, reportSegment{
			StartTime:       s.StartTime,
			EndTime:         s.EndTime,
			ActivityLevel:   s.ActivityLevel,
			MotionIntensity: s.MotionIntensity,
			FrameStart:      s.FrameStart,
			FrameEnd:        s.FrameEnd,
		})
	}
	for _, p := range result.SleepPeriods {
		rep.SleepPeriods = append(rep.SleepPeriods, reportPeriod{p.Start, p.End})
	}
	for _, p := range result.ActivePeriods {
		rep.ActivePeriods = append(rep.ActivePeriods, reportPeriod{p.Start, p.End})
	}

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

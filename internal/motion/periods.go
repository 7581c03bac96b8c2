package motion

import "github.com/fieldlapse/fieldlapse/internal/config"

// derivePeriods walks activity segments once, tracking the currently-open
// inactive and active runs, and emits sleep periods that reach the
// configured minimum inactive duration and active periods for every other
// run.
func derivePeriods(cfg *config.Config, segments []Segment) (sleep, active []Period) {
	if len(segments) == 0 {
		return nil, nil
	}

	var inactiveStart *float64
	var activeStart *float64

	for _, seg := range segments {
		if seg.ActivityLevel == LevelInactive {
			if activeStart != nil {
				active = append(active, Period{Start: *activeStart, End: seg.StartTime})
				activeStart = nil
			}
			if inactiveStart == nil {
				start := seg.StartTime
				inactiveStart = &start
			}
		} else {
			if inactiveStart != nil {
				duration := seg.StartTime - *inactiveStart
				if duration >= cfg.MinInactiveDuration {
					sleep = append(sleep, Period{Start: *inactiveStart, End: seg.StartTime})
				}
				inactiveStart = nil
			}
			if activeStart == nil {
				start := seg.StartTime
				activeStart = &start
			}
		}
	}

	last := segments[len(segments)-1]
	if inactiveStart != nil {
		if last.EndTime-*inactiveStart >= cfg.MinInactiveDuration {
			sleep = append(sleep, Period{Start: *inactiveStart, End: last.EndTime})
		}
	}
	if activeStart != nil {
		active = append(active, Period{Start: *activeStart, End: last.EndTime})
	}

	return sleep, active
}

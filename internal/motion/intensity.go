package motion

import (
	"image"

	"github.com/fieldlapse/fieldlapse/internal/config"
)

// frameIntensity fuses background subtraction, optical flow, and frame
// differencing into a single motion intensity in [0,1] for the current
// frame, given the previous frame's grayscale buffer (nil for the first
// frame).
func frameIntensity(cfg *config.Config, bg *backgroundModel, se [][]bool, prev, cur *image.Gray) float64 {
	area := float64(cur.Rect.Dx() * cur.Rect.Dy())

	fgMask := bg.apply(cur)
	fgMask = gaussianBlur(fgMask, cfg.BGBlurKernel)
	fgMask = morphOpen(fgMask, se)
	fgMask = morphClose(fgMask, se)
	bgRatio := float64(countNonZero(fgMask)) / area

	ofIntensity := 0.0
	fdIntensity := 0.0

	if prev != nil {
		corners := detectCorners(prev, cfg.MaxCorners, cfg.CornerQuality, cfg.MinCornerDistance, cfg.CornerBlock)
		if len(corners) > 0 {
			magnitudes := lkFlow(prev, cur, corners, cfg.FlowWindow, cfg.FlowMaxIterations, cfg.FlowEpsilon)
			if len(magnitudes) > 0 {
				sum := 0.0
				for _, m := range magnitudes {
					sum += m
				}
				ofIntensity = (sum / float64(len(magnitudes))) / 100.0
			}
		}

		diff := absDiff(prev, cur)
		diff = gaussianBlur(diff, cfg.BGBlurKernel)
		mask := threshold(diff, cfg.FrameDiffThreshold)
		fdIntensity = float64(countNonZero(mask)) / area
	}

	combined := bgRatio*cfg.BGWeight + ofIntensity*cfg.OFWeight + fdIntensity*cfg.FDWeight
	if combined > 1.0 {
		combined = 1.0
	}
	if combined < 0 {
		combined = 0
	}
	return combined
}

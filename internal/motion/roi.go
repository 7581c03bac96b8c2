package motion

import (
	"image"

	"github.com/fieldlapse/fieldlapse/internal/config"
)

// ExtractROI applies the current background model to frame and returns the
// padded bounding box of the largest connected foreground component, or
// false if none qualifies. Contour extraction is realized as a
// 4-connected flood fill over the cleaned foreground mask rather than an
// explicit contour list.
func (a *Analyzer) ExtractROI(frame *image.Gray) (ROI, bool) {
	fgMask := a.bg.apply(frame)
	fgMask = gaussianBlur(fgMask, a.cfg.BGBlurKernel)
	fgMask = morphOpen(fgMask, a.se)
	fgMask = morphClose(fgMask, a.se)
	return extractROIFromMask(a.cfg, fgMask)
}

// extractROIFromMask finds the largest 4-connected foreground component in
// mask, pads its bounding box, and reports it if both dimensions clear the
// configured minimum.
func extractROIFromMask(cfg *config.Config, mask *image.Gray) (ROI, bool) {
	w := mask.Rect.Dx()
	h := mask.Rect.Dy()
	visited := make([]bool, w*h)

	bestArea := 0
	var best ROI

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if visited[idx] || mask.Pix[idx] == 0 {
				continue
			}

			minX, minY, maxX, maxY, area := floodFill(mask, visited, w, h, x, y)
			if float64(area) < cfg.ROIMinAreaPx {
				continue
			}
			if area > bestArea {
				bestArea = area
				best = ROI{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
			}
		}
	}

	if bestArea == 0 {
		return ROI{}, false
	}

	pad := cfg.ROIPaddingPx
	x := clampInt(best.X-pad, 0, w-1)
	y := clampInt(best.Y-pad, 0, h-1)
	maxX := clampInt(best.X+best.W+pad, 0, w)
	maxY := clampInt(best.Y+best.H+pad, 0, h)
	roi := ROI{X: x, Y: y, W: maxX - x, H: maxY - y}

	if roi.W <= cfg.ROIMinDimension || roi.H <= cfg.ROIMinDimension {
		return ROI{}, false
	}
	return roi, true
}

// floodFill marks the 4-connected component containing (sx,sy) visited and
// returns its bounding box and pixel area.
func floodFill(mask *image.Gray, visited []bool, w, h, sx, sy int) (minX, minY, maxX, maxY, area int) {
	stack := [][2]int{{sx, sy}}
	minX, minY = sx, sy
	maxX, maxY = sx, sy

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := p[0], p[1]
		idx := y*w + x
		if x < 0 || x >= w || y < 0 || y >= h || visited[idx] || mask.Pix[idx] == 0 {
			continue
		}
		visited[idx] = true
		area++
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
		stack = append(stack, [2]int{x + 1, y}, [2]int{x - 1, y}, [2]int{x, y + 1}, [2]int{x, y - 1})
	}

	return minX, minY, maxX, maxY, area
}

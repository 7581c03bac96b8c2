package motion

import (
	"image"
	"math"
	"sort"
)

// corner is a tracked feature point.
type corner struct {
	x, y float64
}

// detectCorners finds up to maxCorners strong corners in gray using a
// Shi-Tomasi-style minimum-eigenvalue response over Sobel gradients.
func detectCorners(gray *image.Gray, maxCorners int, quality float64, minDistance float64, block int) []corner {
	w := gray.Rect.Dx()
	h := gray.Rect.Dy()

	gx, gy := sobelGradients(gray)

	half := block / 2
	response := make([]float64, w*h)
	maxResponse := 0.0

	for y := half; y < h-half; y++ {
		for x := half; x < w-half; x++ {
			var sxx, syy, sxy float64
			for by := -half; by <= half; by++ {
				for bx := -half; bx <= half; bx++ {
					ix := gx[(y+by)*w+(x+bx)]
					iy := gy[(y+by)*w+(x+bx)]
					sxx += ix * ix
					syy += iy * iy
					sxy += ix * iy
				}
			}
			// Minimum eigenvalue of the 2x2 structure tensor.
			trace := sxx + syy
			det := sxx*syy - sxy*sxy
			disc := math.Sqrt(math.Max(0, trace*trace-4*det))
			minEig := (trace - disc) / 2
			response[y*w+x] = minEig
			if minEig > maxResponse {
				maxResponse = minEig
			}
		}
	}

	threshold := maxResponse * quality
	var candidates []corner
	var candidateScores []float64
	for y := half; y < h-half; y++ {
		for x := half; x < w-half; x++ {
			r := response[y*w+x]
			if r >= threshold && r > 0 {
				candidates = append(candidates, corner{x: float64(x), y: float64(y)})
				candidateScores = append(candidateScores, r)
			}
		}
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return candidateScores[order[a]] > candidateScores[order[b]] })

	var selected []corner
	for _, idx := range order {
		if len(selected) >= maxCorners {
			break
		}
		c := candidates[idx]
		tooClose := false
		for _, s := range selected {
			dx := c.x - s.x
			dy := c.y - s.y
			if math.Sqrt(dx*dx+dy*dy) < minDistance {
				tooClose = true
				break
			}
		}
		if !tooClose {
			selected = append(selected, c)
		}
	}

	return selected
}

// sobelGradients computes horizontal and vertical gradients over a grayscale
// image using 3x3 Sobel kernels.
func sobelGradients(gray *image.Gray) (gx, gy []float64) {
	w := gray.Rect.Dx()
	h := gray.Rect.Dy()
	gx = make([]float64, w*h)
	gy = make([]float64, w*h)

	at := func(x, y int) float64 {
		x = clampInt(x, 0, w-1)
		y = clampInt(y, 0, h-1)
		return float64(gray.GrayAt(x, y).Y)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx[y*w+x] = (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			gy[y*w+x] = (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
		}
	}
	return gx, gy
}

// lkFlow tracks corners from prev into cur using iterative Lucas-Kanade
// over a single window. The pyramid-level tunable is accepted in config
// but tracking runs at full resolution only.
func lkFlow(prev, cur *image.Gray, corners []corner, window int, maxIterations int, epsilon float64) []float64 {
	w := prev.Rect.Dx()
	h := prev.Rect.Dy()
	half := window / 2

	gxCur, gyCur := sobelGradients(cur)

	grayAt := func(img *image.Gray, x, y float64) float64 {
		xi := clampInt(int(x+0.5), 0, w-1)
		yi := clampInt(int(y+0.5), 0, h-1)
		return float64(img.GrayAt(xi, yi).Y)
	}

	magnitudes := make([]float64, 0, len(corners))

	for _, c := range corners {
		dx, dy := 0.0, 0.0

		for iter := 0; iter < maxIterations; iter++ {
			var sxx, sxy, syy, sxt, syt float64
			moved := false

			for by := -half; by <= half; by++ {
				for bx := -half; bx <= half; bx++ {
					px := c.x + float64(bx)
					py := c.y + float64(by)
					qx := px + dx
					qy := py + dy
					if qx < 0 || qy < 0 || qx >= float64(w) || qy >= float64(h) {
						continue
					}

					xi := clampInt(int(qx), 0, w-1)
					yi := clampInt(int(qy), 0, h-1)
					ix := gxCur[yi*w+xi]
					iy := gyCur[yi*w+xi]
					it := grayAt(cur, qx, qy) - grayAt(prev, px, py)

					sxx += ix * ix
					sxy += ix * iy
					syy += iy * iy
					sxt += ix * it
					syt += iy * it
					moved = true
				}
			}

			if !moved {
				break
			}

			det := sxx*syy - sxy*sxy
			if math.Abs(det) < 1e-6 {
				break
			}

			ddx := (syy*(-sxt) - sxy*(-syt)) / det
			ddy := (sxx*(-syt) - sxy*(-sxt)) / det

			dx += ddx
			dy += ddy

			if math.Sqrt(ddx*ddx+ddy*ddy) < epsilon {
				break
			}
		}

		magnitudes = append(magnitudes, math.Sqrt(dx*dx+dy*dy))
	}

	return magnitudes
}

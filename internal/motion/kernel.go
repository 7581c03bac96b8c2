package motion

import (
	"image"
	"image/color"
	"math"
)

// gaussianKernel1D returns a normalized 1D Gaussian kernel of the given odd
// size, approximating the sigma OpenCV derives from kernel size (sigma =
// 0.3*((size-1)*0.5 - 1) + 0.8).
func gaussianKernel1D(size int) []float64 {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	half := size / 2
	kernel := make([]float64, size)
	sum := 0.0
	for i := -half; i <= half; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+half] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// gaussianBlur applies a separable Gaussian blur of the given kernel size to
// a grayscale image, replicating edge pixels at the boundary.
func gaussianBlur(src *image.Gray, kernelSize int) *image.Gray {
	kernel := gaussianKernel1D(kernelSize)
	half := len(kernel) / 2
	w := src.Rect.Dx()
	h := src.Rect.Dy()

	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc := 0.0
			for k := -half; k <= half; k++ {
				sx := clampInt(x+k, 0, w-1)
				acc += float64(src.GrayAt(sx, y).Y) * kernel[k+half]
			}
			tmp[y*w+x] = acc
		}
	}

	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			acc := 0.0
			for k := -half; k <= half; k++ {
				sy := clampInt(y+k, 0, h-1)
				acc += tmp[sy*w+x] * kernel[k+half]
			}
			dst.SetGray(x, y, color.Gray{Y: clampByte(acc)})
		}
	}
	return dst
}

// ellipseStructElement returns a boolean mask approximating OpenCV's
// MORPH_ELLIPSE structuring element of the given square size.
func ellipseStructElement(size int) [][]bool {
	if size < 1 {
		size = 1
	}
	r := float64(size-1) / 2
	mask := make([][]bool, size)
	for y := 0; y < size; y++ {
		mask[y] = make([]bool, size)
		for x := 0; x < size; x++ {
			dx := float64(x) - r
			dy := float64(y) - r
			if r == 0 || (dx*dx)/(r*r)+(dy*dy)/(r*r) <= 1.0 {
				mask[y][x] = true
			}
		}
	}
	return mask
}

// erode applies grayscale erosion (minimum over the structuring element).
func erode(src *image.Gray, se [][]bool) *image.Gray {
	return morphOp(src, se, false)
}

// dilate applies grayscale dilation (maximum over the structuring element).
func dilate(src *image.Gray, se [][]bool) *image.Gray {
	return morphOp(src, se, true)
}

func morphOp(src *image.Gray, se [][]bool, isDilate bool) *image.Gray {
	w := src.Rect.Dx()
	h := src.Rect.Dy()
	size := len(se)
	half := size / 2
	dst := image.NewGray(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var result uint8
			if isDilate {
				result = 0
			} else {
				result = 255
			}
			for sy := 0; sy < size; sy++ {
				for sx := 0; sx < size; sx++ {
					if !se[sy][sx] {
						continue
					}
					px := clampInt(x+sx-half, 0, w-1)
					py := clampInt(y+sy-half, 0, h-1)
					v := src.GrayAt(px, py).Y
					if isDilate {
						if v > result {
							result = v
						}
					} else {
						if v < result {
							result = v
						}
					}
				}
			}
			dst.SetGray(x, y, color.Gray{Y: result})
		}
	}
	return dst
}

// morphOpen applies erosion followed by dilation (removes small specks).
func morphOpen(src *image.Gray, se [][]bool) *image.Gray {
	return dilate(erode(src, se), se)
}

// morphClose applies dilation followed by erosion (fills small holes).
func morphClose(src *image.Gray, se [][]bool) *image.Gray {
	return erode(dilate(src, se), se)
}

// absDiff computes the per-pixel absolute difference between two grayscale
// images of identical dimensions.
func absDiff(a, b *image.Gray) *image.Gray {
	w := a.Rect.Dx()
	h := a.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			av := int(a.GrayAt(x, y).Y)
			bv := int(b.GrayAt(x, y).Y)
			d := av - bv
			if d < 0 {
				d = -d
			}
			dst.SetGray(x, y, color.Gray{Y: uint8(d)})
		}
	}
	return dst
}

// threshold produces a binary (0/255) mask: pixels strictly greater than t
// become 255, all others become 0.
func threshold(src *image.Gray, t uint8) *image.Gray {
	w := src.Rect.Dx()
	h := src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range src.Pix {
		if v > t {
			dst.Pix[i] = 255
		}
	}
	return dst
}

// countNonZero counts nonzero pixels in a grayscale image.
func countNonZero(img *image.Gray) int {
	count := 0
	for _, v := range img.Pix {
		if v != 0 {
			count++
		}
	}
	return count
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampByte(v float64) uint8 {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}

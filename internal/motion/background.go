package motion

import "image"

// backgroundModel is an adaptive per-pixel Gaussian background model: a
// single running mean/variance per pixel stands in for a full
// Mixture-of-Gaussians subtractor, which already yields the
// foreground/background split this analyzer needs.
type backgroundModel struct {
	width, height int
	mean          []float64
	variance      []float64
	initialized   bool
	varThreshold  float64
	learningRate  float64
}

const initialVariance = 225.0 // 15^2, a loose starting spread

func newBackgroundModel(width, height int, learningRate float64) *backgroundModel {
	n := width * height
	return &backgroundModel{
		width:        width,
		height:       height,
		mean:         make([]float64, n),
		variance:     make([]float64, n),
		varThreshold: 16 * 16, // squared distance, matches varThreshold=16 default
		learningRate: learningRate,
	}
}

// apply updates the model with frame and returns the foreground mask
// (0/255 per pixel).
func (m *backgroundModel) apply(frame *image.Gray) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, m.width, m.height))

	if !m.initialized {
		for i, v := range frame.Pix {
			m.mean[i] = float64(v)
			m.variance[i] = initialVariance
		}
		m.initialized = true
		return mask // first frame: no foreground yet
	}

	for i, v := range frame.Pix {
		diff := float64(v) - m.mean[i]
		dist2 := diff * diff

		if dist2 > m.varThreshold*(m.variance[i]/initialVariance) {
			mask.Pix[i] = 255
		}

		m.mean[i] += m.learningRate * diff
		m.variance[i] += m.learningRate * (dist2 - m.variance[i])
		if m.variance[i] < 1 {
			m.variance[i] = 1
		}
	}

	return mask
}

package motion

import (
	"image"
	"image/color"
	"testing"
)

func checkerboard(w, h, cell int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if ((x/cell)+(y/cell))%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 220})
			} else {
				img.SetGray(x, y, color.Gray{Y: 30})
			}
		}
	}
	return img
}

func TestDetectCorners_FlatImageHasNone(t *testing.T) {
	img := uniformGray(40, 40, 128)
	corners := detectCorners(img, 100, 0.3, 7, 7)
	if len(corners) != 0 {
		t.Errorf("detectCorners on a flat image found %d corners, want 0", len(corners))
	}
}

func TestDetectCorners_CheckerboardFindsCorners(t *testing.T) {
	img := checkerboard(40, 40, 10)
	corners := detectCorners(img, 100, 0.3, 5, 5)
	if len(corners) == 0 {
		t.Error("detectCorners on a checkerboard should find at least one corner")
	}
}

func TestDetectCorners_RespectsMaxCorners(t *testing.T) {
	img := checkerboard(40, 40, 4)
	corners := detectCorners(img, 3, 0.01, 1, 3)
	if len(corners) > 3 {
		t.Errorf("got %d corners, want <= 3", len(corners))
	}
}

func TestDetectCorners_RespectsMinDistance(t *testing.T) {
	img := checkerboard(40, 40, 4)
	corners := detectCorners(img, 100, 0.01, 20, 3)
	for i := 0; i < len(corners); i++ {
		for j := i + 1; j < len(corners); j++ {
			dx := corners[i].x - corners[j].x
			dy := corners[i].y - corners[j].y
			dist2 := dx*dx + dy*dy
			if dist2 < 20*20 {
				t.Errorf("corners %v and %v are closer than minDistance", corners[i], corners[j])
			}
		}
	}
}

func TestSobelGradients_UniformImageIsZero(t *testing.T) {
	img := uniformGray(10, 10, 100)
	gx, gy := sobelGradients(img)
	for i := range gx {
		if gx[i] != 0 || gy[i] != 0 {
			t.Fatalf("gradient at %d = (%g,%g), want (0,0) on uniform image", i, gx[i], gy[i])
		}
	}
}

func TestLKFlow_StaticImageHasZeroMagnitude(t *testing.T) {
	img := checkerboard(30, 30, 6)
	corners := []corner{{x: 15, y: 15}}
	magnitudes := lkFlow(img, img, corners, 15, 10, 0.03)
	if len(magnitudes) != 1 {
		t.Fatalf("got %d magnitudes, want 1", len(magnitudes))
	}
	if magnitudes[0] > 0.5 {
		t.Errorf("magnitude for an unmoved image = %g, want ~0", magnitudes[0])
	}
}

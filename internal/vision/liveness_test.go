package vision

import (
	"image"
	"image/color"
	"testing"
)

var livenessThresholds = LivenessThresholds{
	SharpnessCeiling: 3000,
	ColorStdFloor:    3,
}

// gradientImage has smooth luma (low Laplacian variance) but a wide
// colour spread, resembling a direct camera capture.
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 120,
				A: 255,
			})
		}
	}
	return img
}

func TestCheckLiveness(t *testing.T) {
	tests := []struct {
		name string
		img  *image.RGBA
		live bool
	}{
		{"natural gradient", gradientImage(100, 100), true},
		{"flat colour", uniformImage(100, 100, color.RGBA{R: 100, G: 120, B: 140, A: 255}), false},
		{"over-sharp checkerboard", checkerboard(100, 100), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			live, reason := CheckLiveness(tt.img, livenessThresholds)
			if live != tt.live {
				t.Errorf("live = %v (reason %q), want %v", live, reason, tt.live)
			}
			if !live && reason == "" {
				t.Error("rejection must carry a reason")
			}
		})
	}
}

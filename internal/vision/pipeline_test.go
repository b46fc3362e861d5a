package vision

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/your-org/presence/internal/config"
)

type stubLocator struct {
	detections []Detection
	err        error
}

func (s *stubLocator) Detect(input []float32, origW, origH int) ([]Detection, error) {
	return s.detections, s.err
}

func (s *stubLocator) InputSize() (int, int) { return 300, 300 }

func testVisionConfig() config.VisionConfig {
	return config.VisionConfig{
		MinFaceSize:      60,
		BrightnessMin:    30,
		BrightnessMax:    240,
		BlurThreshold:    30,
		SharpnessCeiling: 3000,
		ColorStdFloor:    3,
	}
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// cameraFrame is a mildly textured gradient: sharp enough to clear
// the blur floor, soft enough to stay below the sharpness ceiling.
func cameraFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	state := uint32(7)
	noise := func() uint8 {
		state = state*1664525 + 1013904223
		return uint8(state % 11)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(80+x*60/w) + noise(),
				G: uint8(100+y*60/h) + noise(),
				B: 120 + noise(),
				A: 255,
			})
		}
	}
	return img
}

func TestExtractSignatureInvalidImage(t *testing.T) {
	p := NewPipeline(testVisionConfig(), &stubLocator{})
	_, err := p.ExtractSignature([]byte("not an image"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Errorf("err = %v, want ErrInvalidImage", err)
	}
}

func TestExtractSignatureNoFace(t *testing.T) {
	p := NewPipeline(testVisionConfig(), &stubLocator{})
	_, err := p.ExtractSignature(pngBytes(t, cameraFrame(200, 200)))
	if !errors.Is(err, ErrNoFace) {
		t.Errorf("err = %v, want ErrNoFace", err)
	}
}

func TestExtractSignatureMultipleFaces(t *testing.T) {
	p := NewPipeline(testVisionConfig(), &stubLocator{detections: []Detection{
		{BBox: [4]float32{10, 10, 110, 110}, Confidence: 0.9},
		{BBox: [4]float32{120, 10, 190, 110}, Confidence: 0.8},
	}})
	_, err := p.ExtractSignature(pngBytes(t, cameraFrame(200, 200)))
	if !errors.Is(err, ErrMultipleFaces) {
		t.Errorf("err = %v, want ErrMultipleFaces", err)
	}
}

func TestExtractSignatureQualityReject(t *testing.T) {
	p := NewPipeline(testVisionConfig(), &stubLocator{detections: []Detection{
		{BBox: [4]float32{10, 10, 50, 50}, Confidence: 0.9},
	}})
	_, err := p.ExtractSignature(pngBytes(t, cameraFrame(200, 200)))

	var qe *QualityError
	if !errors.As(err, &qe) {
		t.Fatalf("err = %v, want *QualityError", err)
	}
	if !hasIssue(qe.Issues, IssueTooSmall) {
		t.Errorf("issues = %v, want TOO_SMALL", qe.Issues)
	}
}

func TestExtractSignatureLivenessReject(t *testing.T) {
	p := NewPipeline(testVisionConfig(), &stubLocator{detections: []Detection{
		{BBox: [4]float32{10, 10, 110, 110}, Confidence: 0.9},
	}})
	// A checkerboard region is implausibly crisp for a live capture.
	_, err := p.ExtractSignature(pngBytes(t, checkerboard(200, 200)))

	var le *LivenessError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want *LivenessError", err)
	}
	if le.Reason == "" {
		t.Error("liveness rejection must carry a reason")
	}
}

func TestExtractSignatureSuccess(t *testing.T) {
	p := NewPipeline(testVisionConfig(), &stubLocator{detections: []Detection{
		{BBox: [4]float32{20, 20, 140, 140}, Confidence: 0.95},
	}})

	capture, err := p.ExtractSignature(pngBytes(t, cameraFrame(200, 200)))
	if err != nil {
		t.Fatalf("ExtractSignature: %v", err)
	}

	if len(capture.Signature) != SignatureDim {
		t.Errorf("signature length = %d, want %d", len(capture.Signature), SignatureDim)
	}
	if capture.Quality <= 0 || capture.Quality > 1 {
		t.Errorf("quality = %f, want (0,1]", capture.Quality)
	}
	if len(capture.Snapshot) == 0 {
		t.Error("missing evidence snapshot")
	}
	if capture.FrameW != 200 || capture.FrameH != 200 {
		t.Errorf("frame dims = %dx%d, want 200x200", capture.FrameW, capture.FrameH)
	}
}

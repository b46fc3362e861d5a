package vision

import (
	"fmt"
	"image"
	"time"

	"github.com/your-org/presence/internal/config"
	"github.com/your-org/presence/internal/observability"
)

// Capture is the successful outcome of the signature pipeline: one
// usable, live face turned into a comparable signature.
type Capture struct {
	Signature []float32
	Quality   float32    // normalised sharpness of the face region, 0..1
	BBox      [4]float32 // face region in frame coordinates
	Snapshot  []byte     // JPEG crop of the face region, for evidence
	FrameW    int
	FrameH    int
}

// Pipeline runs the full capture path on a raw frame:
// locate -> quality gate -> liveness -> encode.
type Pipeline struct {
	locator  Locator
	quality  QualityThresholds
	liveness LivenessThresholds
}

// NewPipeline builds the pipeline around an injected face locator.
func NewPipeline(cfg config.VisionConfig, locator Locator) *Pipeline {
	return &Pipeline{
		locator: locator,
		quality: QualityThresholds{
			MinFaceSize:   cfg.MinFaceSize,
			BrightnessMin: cfg.BrightnessMin,
			BrightnessMax: cfg.BrightnessMax,
			BlurThreshold: cfg.BlurThreshold,
		},
		liveness: LivenessThresholds{
			SharpnessCeiling: cfg.SharpnessCeiling,
			ColorStdFloor:    cfg.ColorStdFloor,
		},
	}
}

// ExtractSignature decodes a frame and produces a Capture, or one of
// the typed capture errors: ErrInvalidImage, ErrNoFace,
// ErrMultipleFaces, *QualityError, *LivenessError.
func (p *Pipeline) ExtractSignature(imageData []byte) (*Capture, error) {
	img, err := decodeImage(imageData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	origW := bounds.Dx()
	origH := bounds.Dy()

	inW, inH := p.locator.InputSize()

	start := time.Now()
	input := imageToDetectorInput(img, inW, inH, detectorMean)
	detections, err := p.locator.Detect(input, origW, origH)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	observability.PipelineDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())

	if len(detections) == 0 {
		return nil, ErrNoFace
	}
	if len(detections) > 1 {
		return nil, ErrMultipleFaces
	}

	bbox := detections[0].BBox
	face := cropRegion(img, int(bbox[0]), int(bbox[1]), int(bbox[2]), int(bbox[3]))
	if face == nil {
		return nil, ErrNoFace
	}

	if issues := AssessQuality(face, p.quality); len(issues) > 0 {
		for _, issue := range issues {
			observability.CaptureRejections.WithLabelValues(string(issue)).Inc()
		}
		return nil, &QualityError{Issues: issues}
	}

	if live, reason := CheckLiveness(face, p.liveness); !live {
		observability.CaptureRejections.WithLabelValues("NOT_LIVE").Inc()
		return nil, &LivenessError{Reason: reason}
	}

	start = time.Now()
	signature := Encode(face)
	observability.PipelineDuration.WithLabelValues("encode").Observe(time.Since(start).Seconds())

	return &Capture{
		Signature: signature,
		Quality:   sampleQuality(face),
		BBox:      bbox,
		Snapshot:  encodeJPEG(face, 85),
		FrameW:    origW,
		FrameH:    origH,
	}, nil
}

// sampleQuality maps the face region's Laplacian variance onto 0..1.
// Used to tag training samples; the auto-train policy filters on it.
func sampleQuality(face *image.RGBA) float32 {
	v := laplacianVariance(grayscale(face)) / 1000
	if v > 1 {
		v = 1
	}
	return float32(v)
}

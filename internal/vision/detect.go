package vision

import (
	"fmt"
	"sort"

	ort "github.com/yalue/onnxruntime_go"
)

// Detection is one face region found in a frame, in original-image
// pixel coordinates.
type Detection struct {
	BBox       [4]float32 // x1, y1, x2, y2
	Confidence float32
}

// Locator finds face regions in a preprocessed frame. The production
// implementation wraps an ONNX detector model; tests substitute a stub.
type Locator interface {
	Detect(input []float32, origW, origH int) ([]Detection, error)
	InputSize() (w, h int)
}

// detectorMean is the per-channel (BGR) mean the res10 SSD model was
// trained with.
var detectorMean = [3]float32{104.0, 177.0, 123.0}

// maxDetections is the fixed detection count of the res10 output tensor.
const maxDetections = 200

// Detector runs the res10 300x300 SSD face detector via ONNX Runtime.
type Detector struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	threshold    float32
	inputW       int
	inputH       int
}

// NewDetector loads the SSD face detection model. opts may be nil
// (ORT defaults) or a pre-configured *ort.SessionOptions.
func NewDetector(modelPath string, threshold float32, opts *ort.SessionOptions) (*Detector, error) {
	inputW, inputH := 300, 300

	inputShape := ort.NewShape(1, 3, int64(inputH), int64(inputW))
	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}

	// Output rows: [image_id, label, confidence, x1, y1, x2, y2],
	// box coordinates normalised to [0,1].
	outputShape := ort.NewShape(1, 1, maxDetections, 7)
	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"data"},
		[]string{"detection_out"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		opts,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create detector session: %w", err)
	}

	return &Detector{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		threshold:    threshold,
		inputW:       inputW,
		inputH:       inputH,
	}, nil
}

// Detect runs face detection on a preprocessed frame.
// input must be CHW [3, inputH, inputW], BGR, mean-subtracted.
// origW/origH are the original frame dimensions for coordinate scaling.
func (d *Detector) Detect(input []float32, origW, origH int) ([]Detection, error) {
	copy(d.inputTensor.GetData(), input)

	if err := d.session.Run(); err != nil {
		return nil, fmt.Errorf("run detection: %w", err)
	}

	out := d.outputTensor.GetData()

	var detections []Detection
	for i := 0; i < maxDetections; i++ {
		row := out[i*7 : i*7+7]
		conf := row[2]
		if conf < d.threshold {
			continue
		}

		x1 := clampF(row[3]*float32(origW), 0, float32(origW))
		y1 := clampF(row[4]*float32(origH), 0, float32(origH))
		x2 := clampF(row[5]*float32(origW), 0, float32(origW))
		y2 := clampF(row[6]*float32(origH), 0, float32(origH))
		if x2-x1 <= 1 || y2-y1 <= 1 {
			continue
		}

		detections = append(detections, Detection{
			BBox:       [4]float32{x1, y1, x2, y2},
			Confidence: conf,
		})
	}

	sort.Slice(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})
	return detections, nil
}

// InputSize returns the model's expected input dimensions.
func (d *Detector) InputSize() (int, int) {
	return d.inputW, d.inputH
}

func (d *Detector) Close() {
	if d.session != nil {
		d.session.Destroy()
	}
	if d.inputTensor != nil {
		d.inputTensor.Destroy()
	}
	if d.outputTensor != nil {
		d.outputTensor.Destroy()
	}
}

func clampF(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

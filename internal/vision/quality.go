package vision

import "image"

// IssueCode identifies one reason a face region is unusable for encoding.
type IssueCode string

const (
	IssueTooSmall  IssueCode = "TOO_SMALL"
	IssueTooDark   IssueCode = "TOO_DARK"
	IssueTooBright IssueCode = "TOO_BRIGHT"
	IssueTooBlurry IssueCode = "TOO_BLURRY"
)

// Message returns the user-facing explanation for an issue code.
func (c IssueCode) Message() string {
	switch c {
	case IssueTooSmall:
		return "Face too small. Please move closer to the camera"
	case IssueTooDark:
		return "Image too dark. Please improve lighting"
	case IssueTooBright:
		return "Image too bright. Please reduce lighting"
	case IssueTooBlurry:
		return "Image is blurry. Please hold camera steady"
	default:
		return string(c)
	}
}

// QualityThresholds configures the capture quality gate.
type QualityThresholds struct {
	MinFaceSize   int     // minimum region edge in pixels
	BrightnessMin float64 // mean luma floor
	BrightnessMax float64 // mean luma ceiling
	BlurThreshold float64 // Laplacian variance floor
}

// AssessQuality checks whether a face region is usable for encoding.
// Every check runs, so the caller gets all applicable issues at once
// rather than just the first. An empty result means the region passed.
func AssessQuality(region image.Image, t QualityThresholds) []IssueCode {
	var issues []IssueCode

	bounds := region.Bounds()
	if bounds.Dx() < t.MinFaceSize || bounds.Dy() < t.MinFaceSize {
		issues = append(issues, IssueTooSmall)
	}

	gray := grayscale(region)

	brightness := meanLuma(gray)
	if brightness < t.BrightnessMin {
		issues = append(issues, IssueTooDark)
	} else if brightness > t.BrightnessMax {
		issues = append(issues, IssueTooBright)
	}

	if laplacianVariance(gray) < t.BlurThreshold {
		issues = append(issues, IssueTooBlurry)
	}

	return issues
}

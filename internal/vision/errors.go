package vision

import (
	"errors"
	"fmt"
	"strings"
)

// Capture failures are request-level input errors: reported to the
// caller with a reason, never retried, never fatal to the process.
var (
	ErrInvalidImage  = errors.New("invalid image data")
	ErrNoFace        = errors.New("no face detected")
	ErrMultipleFaces = errors.New("multiple faces detected")
)

// QualityError carries every quality-gate issue found in one frame.
type QualityError struct {
	Issues []IssueCode
}

func (e *QualityError) Error() string {
	codes := make([]string, len(e.Issues))
	for i, c := range e.Issues {
		codes[i] = string(c)
	}
	return fmt.Sprintf("face quality rejected: %s", strings.Join(codes, ", "))
}

// LivenessError indicates the frame resembled a replayed capture.
type LivenessError struct {
	Reason string
}

func (e *LivenessError) Error() string {
	return "liveness check failed: " + e.Reason
}

package attendance

import (
	"errors"
	"fmt"
)

// Request-level failures. Each one maps to a 4xx response; none of
// them indicates a system fault.
var (
	ErrInvalidAction        = errors.New("action must be check_in or check_out")
	ErrIdentityNotFound     = errors.New("identity not found")
	ErrNoEnrolledIdentities = errors.New("no identities enrolled")
	ErrIdentityMismatch     = errors.New("face does not match the claimed identity")
	ErrSampleLimit          = errors.New("sample limit reached for identity")
)

// NoMatchError reports that no enrolled identity cleared the match
// gate. The best confidence seen is kept so the caller can surface
// how close the nearest candidate came.
type NoMatchError struct {
	Confidence float64
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no matching identity (best confidence %.3f)", e.Confidence)
}

package dto

import "github.com/google/uuid"

type IdentityResponse struct {
	ID          uuid.UUID `json:"id"`
	UserRef     string    `json:"user_ref"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Active      bool      `json:"active"`
	SampleCount int       `json:"sample_count"`
	CreatedAt   string    `json:"created_at"`
}

type SampleResponse struct {
	ID         uuid.UUID `json:"id"`
	IdentityID uuid.UUID `json:"identity_id"`
	Quality    float32   `json:"quality"`
	SourceKey  string    `json:"source_key"`
	CapturedAt string    `json:"captured_at"`
}

// WSAttendanceEvent is the WebSocket message sent to live feed clients
// after each successful transition.
type WSAttendanceEvent struct {
	Type           string    `json:"type"` // always "attendance"
	IdentityID     uuid.UUID `json:"identity_id"`
	UserRef        string    `json:"user_ref"`
	Name           string    `json:"name"`
	Day            string    `json:"day"`
	Action         string    `json:"action"`
	Confidence     float32   `json:"confidence"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
	Timestamp      string    `json:"timestamp"`
}

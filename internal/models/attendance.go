package models

import (
	"time"

	"github.com/google/uuid"
)

// Action is a requested attendance transition.
type Action string

const (
	ActionCheckIn  Action = "check_in"
	ActionCheckOut Action = "check_out"
)

// Valid reports whether the action is one of the two known transitions.
func (a Action) Valid() bool {
	return a == ActionCheckIn || a == ActionCheckOut
}

// AttendanceRecord is one row per identity per calendar day.
// Check-out, if present, is always >= check-in; at most one record
// exists per (identity, day), enforced by a unique constraint.
type AttendanceRecord struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	IdentityID         uuid.UUID  `json:"identity_id" db:"identity_id"`
	Day                time.Time  `json:"day" db:"day"`
	CheckIn            *time.Time `json:"check_in,omitempty" db:"check_in"`
	CheckInKey         string     `json:"check_in_key,omitempty" db:"check_in_key"`
	CheckInConfidence  float32    `json:"check_in_confidence,omitempty" db:"check_in_confidence"`
	CheckOut           *time.Time `json:"check_out,omitempty" db:"check_out"`
	CheckOutKey        string     `json:"check_out_key,omitempty" db:"check_out_key"`
	CheckOutConfidence float32    `json:"check_out_confidence,omitempty" db:"check_out_confidence"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// AttendanceEvent is published to NATS after every successful transition
// and persisted as an audit row by the API-side consumer.
type AttendanceEvent struct {
	ID             uuid.UUID `json:"id"`
	IdentityID     uuid.UUID `json:"identity_id"`
	UserRef        string    `json:"user_ref"`
	Name           string    `json:"name"`
	Day            string    `json:"day"` // YYYY-MM-DD
	Action         Action    `json:"action"`
	Confidence     float32   `json:"confidence"`
	EvidenceKey    string    `json:"evidence_key,omitempty"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
	Timestamp      time.Time `json:"timestamp"`
}

package dto

import (
	"time"

	"github.com/google/uuid"
)

type MarkRequest struct {
	UserRef string `json:"user_ref"`
	Image   string `json:"image" binding:"required"`
	Action  string `json:"action" binding:"required"` // check_in or check_out
}

type MarkResponse struct {
	IdentityID     uuid.UUID `json:"identity_id"`
	UserRef        string    `json:"user_ref"`
	Name           string    `json:"name"`
	Day            string    `json:"day"`
	Action         string    `json:"action"`
	State          string    `json:"state"`
	AlreadyMarked  bool      `json:"already_marked"`
	CheckIn        string    `json:"check_in,omitempty"`
	CheckOut       string    `json:"check_out,omitempty"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
	Confidence     float64   `json:"confidence"`
	EvidenceKey    string    `json:"evidence_key,omitempty"`
}

type StatusResponse struct {
	IdentityID     uuid.UUID `json:"identity_id"`
	UserRef        string    `json:"user_ref"`
	Name           string    `json:"name"`
	Day            string    `json:"day"`
	State          string    `json:"state"`
	CheckIn        string    `json:"check_in,omitempty"`
	CheckOut       string    `json:"check_out,omitempty"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
}

type SummaryEntry struct {
	IdentityID     uuid.UUID `json:"identity_id"`
	UserRef        string    `json:"user_ref"`
	Name           string    `json:"name"`
	State          string    `json:"state"`
	CheckIn        string    `json:"check_in,omitempty"`
	CheckOut       string    `json:"check_out,omitempty"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
}

type SummaryResponse struct {
	Day        string         `json:"day"`
	Total      int            `json:"total"`
	CheckedIn  int            `json:"checked_in"`
	CheckedOut int            `json:"checked_out"`
	Unmarked   int            `json:"unmarked"`
	Entries    []SummaryEntry `json:"entries"`
}

type RecordResponse struct {
	ID                 uuid.UUID `json:"id"`
	IdentityID         uuid.UUID `json:"identity_id"`
	Day                string    `json:"day"`
	CheckIn            string    `json:"check_in,omitempty"`
	CheckInConfidence  float32   `json:"check_in_confidence,omitempty"`
	CheckOut           string    `json:"check_out,omitempty"`
	CheckOutConfidence float32   `json:"check_out_confidence,omitempty"`
	ElapsedSeconds     int64     `json:"elapsed_seconds"`
	CreatedAt          string    `json:"created_at"`
	UpdatedAt          string    `json:"updated_at"`
}

type RecordListResponse struct {
	Records []RecordResponse `json:"records"`
	Total   int              `json:"total"`
}

type RecordQuery struct {
	UserRef string `form:"user_ref"`
	From    string `form:"from"` // YYYY-MM-DD
	To      string `form:"to"`
	Limit   int    `form:"limit"`
	Offset  int    `form:"offset"`
}

type EventQuery struct {
	UserRef string `form:"user_ref"`
	From    string `form:"from"` // RFC3339
	To      string `form:"to"`
	Limit   int    `form:"limit"`
	Offset  int    `form:"offset"`
}

type EventResponse struct {
	ID             uuid.UUID `json:"id"`
	IdentityID     uuid.UUID `json:"identity_id"`
	UserRef        string    `json:"user_ref"`
	Name           string    `json:"name"`
	Day            string    `json:"day"`
	Action         string    `json:"action"`
	Confidence     float32   `json:"confidence"`
	EvidenceKey    string    `json:"evidence_key,omitempty"`
	ElapsedSeconds int64     `json:"elapsed_seconds"`
	Timestamp      string    `json:"timestamp"`
}

type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Total  int             `json:"total"`
}

// BulkRecordUpdate corrects check-in/check-out times on named records.
// Nil times leave the column unchanged.
type BulkRecordUpdate struct {
	IDs      []uuid.UUID `json:"ids" binding:"required"`
	CheckIn  *time.Time  `json:"check_in"`
	CheckOut *time.Time  `json:"check_out"`
}

type BulkRecordDelete struct {
	IDs []uuid.UUID `json:"ids" binding:"required"`
}

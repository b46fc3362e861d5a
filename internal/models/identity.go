package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is one enrolled person. UserRef links the identity to an
// account in the surrounding system; the primary signature is the one
// captured at registration (re-registration replaces it).
type Identity struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserRef   string    `json:"user_ref" db:"user_ref"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Signature []float32 `json:"-" db:"signature"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FaceSample is an additional training signature for one identity.
// Samples are bounded in count and die with their identity.
type FaceSample struct {
	ID         uuid.UUID `json:"id" db:"id"`
	IdentityID uuid.UUID `json:"identity_id" db:"identity_id"`
	Signature  []float32 `json:"-" db:"signature"`
	Quality    float32   `json:"quality" db:"quality"`
	SourceKey  string    `json:"source_key" db:"source_key"`
	CapturedAt time.Time `json:"captured_at" db:"captured_at"`
}

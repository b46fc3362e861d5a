package dto

import "github.com/google/uuid"

// RegisterRequest enrolls (or re-enrolls) a face. Image is a data URL
// or bare base64 JPEG/PNG.
type RegisterRequest struct {
	UserRef  string `json:"user_ref" binding:"required"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Image    string `json:"image" binding:"required"`
	AsSample bool   `json:"as_sample"`
}

type RegisterResponse struct {
	IdentityID  uuid.UUID `json:"identity_id"`
	UserRef     string    `json:"user_ref"`
	Status      string    `json:"status"` // created, updated, sample_added
	SampleCount int       `json:"sample_count,omitempty"`
	Quality     float32   `json:"quality"`
}

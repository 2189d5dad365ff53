package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus tracks a catalog supplier's verification lifecycle.
type VerificationStatus string

const (
	VerificationNotRequested VerificationStatus = "not_requested"
	VerificationPending      VerificationStatus = "pending"
	VerificationVerified     VerificationStatus = "verified"
	VerificationRejected     VerificationStatus = "rejected"
)

// CanRequest reports whether a new verification request may be submitted.
// Requests are only accepted before a first submission or after a rejection.
func (s VerificationStatus) CanRequest() bool {
	return s == "" || s == VerificationNotRequested || s == VerificationRejected
}

// Supplier is the catalog-facing supplier record, distinct from the supplier
// account. It carries the verification request and the denormalized rating
// aggregate maintained by the rating endpoints.
type Supplier struct {
	BaseModel
	UserID      *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"user_id,omitempty"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`

	VerificationStatus VerificationStatus `gorm:"default:'not_requested'" json:"verification_status"`
	RegistrationNumber string             `json:"registration_number,omitempty"`
	TaxID              string             `json:"tax_id,omitempty"`
	DocumentPaths      string             `json:"document_paths,omitempty"`
	SubmittedAt        *time.Time         `json:"submitted_at,omitempty"`
	ReviewedAt         *time.Time         `json:"reviewed_at,omitempty"`
	ReviewerID         *uuid.UUID         `gorm:"type:uuid" json:"reviewer_id,omitempty"`
	ReviewNote         string             `json:"review_note,omitempty"`

	Rating      float64 `json:"rating"`
	RatingCount int     `json:"rating_count"`
}

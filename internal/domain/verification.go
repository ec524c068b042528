package domain

import "time"

type VerificationStatus string

const (
	VerificationStatusUnverified VerificationStatus = "UNVERIFIED"
	VerificationStatusPending    VerificationStatus = "PENDING"
	VerificationStatusVerified   VerificationStatus = "VERIFIED"
	VerificationStatusRejected   VerificationStatus = "REJECTED"
)

// VerificationRecord is the 1:1 trust status of an actor. Profile fields are
// frozen while the record is pending review.
type VerificationRecord struct {
	OwnerID         string             `json:"owner_id"`
	Role            Role               `json:"role"`
	Status          VerificationStatus `json:"status"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	CostHint        string             `json:"cost_hint,omitempty"` // candidates only
	Profile         map[string]string  `json:"profile,omitempty"`
	ReviewerID      string             `json:"reviewer_id,omitempty"`
	SubmittedAt     *time.Time         `json:"submitted_at,omitempty"`
	ResolvedAt      *time.Time         `json:"resolved_at,omitempty"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Version         int32              `json:"version"`
}

type Eligibility struct {
	CanVerify     bool `json:"can_verify"`
	BlockingCount int  `json:"blocking_count"`
}

package domain

import "time"

type DocumentStatus string

const (
	DocumentStatusPending  DocumentStatus = "PENDING"
	DocumentStatusVerified DocumentStatus = "VERIFIED"
	DocumentStatusRejected DocumentStatus = "REJECTED"
)

// BlockingDocumentStatuses are the statuses that prevent an owner from being verified.
var BlockingDocumentStatuses = []DocumentStatus{DocumentStatusPending, DocumentStatusRejected}

type Document struct {
	ID              string         `json:"id"`
	OwnerID         string         `json:"owner_id"`
	Kind            string         `json:"kind"`
	BlobRef         string         `json:"blob_ref"`
	Status          DocumentStatus `json:"status"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	ReviewerID      string         `json:"reviewer_id,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	Version         int32          `json:"version"`
}

func (d *Document) IsBlocking() bool {
	return d.Status == DocumentStatusPending || d.Status == DocumentStatusRejected
}

type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "APPROVE"
	DecisionReject  ReviewDecision = "REJECT"
)

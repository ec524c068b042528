package domain

import "time"

type PipelineStatus string

const (
	PipelineStatusPotential   PipelineStatus = "POTENTIAL"
	PipelineStatusShortlisted PipelineStatus = "SHORTLISTED"
	PipelineStatusAskedQuote  PipelineStatus = "ASKED_QUOTE"
	PipelineStatusInterviewed PipelineStatus = "INTERVIEWED"
	PipelineStatusHired       PipelineStatus = "HIRED"
)

// PipelineEntry is the funnel stage of one (employer, candidate) pair.
type PipelineEntry struct {
	EmployerID  string         `json:"employer_id"`
	CandidateID string         `json:"candidate_id"`
	Status      PipelineStatus `json:"status"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Version     int32          `json:"version"`
}

type PipelineMode string

const (
	PipelineModePermissive PipelineMode = "permissive"
	PipelineModeStrict     PipelineMode = "strict"
)

package domain

import "time"

type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "PENDING"
	QuoteStatusApproved QuoteStatus = "APPROVED"
	QuoteStatusRejected QuoteStatus = "REJECTED"
)

type QuoteOption struct {
	ID            string            `json:"id"`
	Label         string            `json:"label"`
	CostBreakdown map[string]string `json:"cost_breakdown,omitempty"`
	Perks         []string          `json:"perks,omitempty"`
	Selected      bool              `json:"selected"`
}

type QuoteRequest struct {
	ID             string        `json:"id"`
	EmployerID     string        `json:"employer_id"`
	CandidateID    string        `json:"candidate_id"`
	DemandID       string        `json:"demand_id,omitempty"`
	Status         QuoteStatus   `json:"status"`
	CostEstimate   string        `json:"cost_estimate,omitempty"`
	Options        []QuoteOption `json:"options,omitempty"`
	ResolutionNote string        `json:"resolution_note,omitempty"`
	ResolvedBy     string        `json:"resolved_by,omitempty"`
	RequestedAt    time.Time     `json:"requested_at"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
	FinalizedAt    *time.Time    `json:"finalized_at,omitempty"`
	Version        int32         `json:"version"`
}

// IsOpen reports whether the request still counts as "already quoted" for its pair.
func (q *QuoteRequest) IsOpen() bool {
	return q.Status == QuoteStatusPending || q.Status == QuoteStatusApproved
}

func (q *QuoteRequest) SelectedOption() *QuoteOption {
	for i := range q.Options {
		if q.Options[i].Selected {
			return &q.Options[i]
		}
	}
	return nil
}

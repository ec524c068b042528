package domain

import "time"

type DemandStatus string

const (
	DemandStatusOpen      DemandStatus = "OPEN"
	DemandStatusTreating  DemandStatus = "TREATING"
	DemandStatusTreated   DemandStatus = "TREATED"
	DemandStatusCancelled DemandStatus = "CANCELLED"
)

// DemandSpec holds the employer-authored fields of a sourcing request.
type DemandSpec struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Skills      []string `json:"skills,omitempty"`
	Seniority   string   `json:"seniority,omitempty"`
	Location    string   `json:"location,omitempty"`
	Budget      string   `json:"budget,omitempty"`
}

// ManualProfile is an externally sourced candidate snapshot entered by staff.
// ID is synthetic and doubles as the candidate id of its quote and pipeline entry.
type ManualProfile struct {
	ID       string            `json:"id"`
	FullName string            `json:"full_name"`
	Headline string            `json:"headline,omitempty"`
	Email    string            `json:"email,omitempty"`
	Snapshot map[string]string `json:"snapshot,omitempty"`
	AddedBy  string            `json:"added_by"`
	AddedAt  time.Time         `json:"added_at"`
}

type TalentDemand struct {
	ID                    string          `json:"id"`
	EmployerID            string          `json:"employer_id"`
	Spec                  DemandSpec      `json:"spec"`
	Status                DemandStatus    `json:"status"`
	SuggestedCandidateIDs []string        `json:"suggested_candidate_ids"`
	ManualProfiles        []ManualProfile `json:"manual_profiles"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	Version               int32           `json:"version"`
}

func (d *TalentDemand) HasSuggestion(candidateID string) bool {
	for _, id := range d.SuggestedCandidateIDs {
		if id == candidateID {
			return true
		}
	}
	return false
}

func (d *TalentDemand) IsEmpty() bool {
	return len(d.SuggestedCandidateIDs) == 0 && len(d.ManualProfiles) == 0
}

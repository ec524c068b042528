package domain

import "time"

type InterviewStatus string

const (
	InterviewStatusPending   InterviewStatus = "PENDING"
	InterviewStatusConfirmed InterviewStatus = "CONFIRMED"
	InterviewStatusCompleted InterviewStatus = "COMPLETED"
	InterviewStatusCancelled InterviewStatus = "CANCELLED"
)

type SlotResponse string

const (
	SlotResponseOpen     SlotResponse = "OPEN"
	SlotResponseAccepted SlotResponse = "ACCEPTED"
	SlotResponseRejected SlotResponse = "REJECTED"
)

type ProposedTime struct {
	ID              string       `json:"id"`
	DateTime        time.Time    `json:"datetime"`
	DurationMinutes int32        `json:"duration_minutes"`
	ProposedBy      string       `json:"proposed_by"`
	Response        SlotResponse `json:"response"`
}

func (p ProposedTime) Accepted() bool {
	return p.Response == SlotResponseAccepted
}

type Interview struct {
	ID            string          `json:"id"`
	EmployerID    string          `json:"employer_id"`
	CandidateID   string          `json:"candidate_id"`
	ScheduledBy   string          `json:"scheduled_by"`
	Title         string          `json:"title"`
	ProposedTimes []ProposedTime  `json:"proposed_times"`
	ConfirmedTime *time.Time      `json:"confirmed_time,omitempty"`
	Status        InterviewStatus `json:"status"`
	RoomToken     string          `json:"room_token"`
	Notes         string          `json:"notes,omitempty"`
	CancelledBy   string          `json:"cancelled_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int32           `json:"version"`
}

// SlotProposal is caller input for a new proposed time.
type SlotProposal struct {
	DateTime        time.Time `json:"datetime"`
	DurationMinutes int32     `json:"duration_minutes"`
}

func (i *Interview) IsParty(actorID string) bool {
	return actorID == i.EmployerID || actorID == i.CandidateID
}

func (i *Interview) Slot(slotID string) *ProposedTime {
	for idx := range i.ProposedTimes {
		if i.ProposedTimes[idx].ID == slotID {
			return &i.ProposedTimes[idx]
		}
	}
	return nil
}

func (i *Interview) AllSlotsRejected() bool {
	if len(i.ProposedTimes) == 0 {
		return false
	}
	for _, p := range i.ProposedTimes {
		if p.Response != SlotResponseRejected {
			return false
		}
	}
	return true
}

func (i *Interview) AcceptedCount() int {
	n := 0
	for _, p := range i.ProposedTimes {
		if p.Accepted() {
			n++
		}
	}
	return n
}

type SlotRejectionPolicy string

const (
	SlotRejectionKeepPending SlotRejectionPolicy = "keep_pending"
	SlotRejectionCancel      SlotRejectionPolicy = "cancel"
)

package memory

import (
	"time"

	"hireflow/internal/domain"
)

// Rows are stored as deep copies so callers can never mutate stored state.

type documentRow struct{ v domain.Document }
type verificationRow struct{ v domain.VerificationRecord }
type pipelineRow struct{ v domain.PipelineEntry }
type quoteRow struct{ v domain.QuoteRequest }
type interviewRow struct{ v domain.Interview }
type demandRow struct{ v domain.TalentDemand }
type notificationRow struct{ v domain.Notification }
type contactRow struct{ v domain.Contact }

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneDocument(d domain.Document) domain.Document {
	d.ReviewedAt = cloneTime(d.ReviewedAt)
	return d
}

func cloneVerification(r domain.VerificationRecord) domain.VerificationRecord {
	r.Profile = cloneMap(r.Profile)
	r.SubmittedAt = cloneTime(r.SubmittedAt)
	r.ResolvedAt = cloneTime(r.ResolvedAt)
	return r
}

func cloneQuote(q domain.QuoteRequest) domain.QuoteRequest {
	if q.Options != nil {
		opts := make([]domain.QuoteOption, len(q.Options))
		for i, o := range q.Options {
			o.CostBreakdown = cloneMap(o.CostBreakdown)
			o.Perks = cloneStrings(o.Perks)
			opts[i] = o
		}
		q.Options = opts
	}
	q.ResolvedAt = cloneTime(q.ResolvedAt)
	q.FinalizedAt = cloneTime(q.FinalizedAt)
	return q
}

func cloneInterview(iv domain.Interview) domain.Interview {
	if iv.ProposedTimes != nil {
		slots := make([]domain.ProposedTime, len(iv.ProposedTimes))
		copy(slots, iv.ProposedTimes)
		iv.ProposedTimes = slots
	}
	iv.ConfirmedTime = cloneTime(iv.ConfirmedTime)
	return iv
}

func cloneDemand(d domain.TalentDemand) domain.TalentDemand {
	d.Spec.Skills = cloneStrings(d.Spec.Skills)
	d.SuggestedCandidateIDs = cloneStrings(d.SuggestedCandidateIDs)
	if d.ManualProfiles != nil {
		profiles := make([]domain.ManualProfile, len(d.ManualProfiles))
		for i, p := range d.ManualProfiles {
			p.Snapshot = cloneMap(p.Snapshot)
			profiles[i] = p
		}
		d.ManualProfiles = profiles
	}
	return d
}

func cloneNotification(n domain.Notification) domain.Notification {
	n.Attributes = cloneMap(n.Attributes)
	return n
}

package memory

import (
	"context"
	"sort"
	"time"

	"hireflow/internal/domain"
	"hireflow/internal/repository"
)

func pairKey(employerID, candidateID string) string {
	return employerID + "\x00" + candidateID
}

type documentRepository struct{ s *session }

func (r *documentRepository) Create(ctx context.Context, doc *domain.Document) error {
	defer r.s.guard()()
	d := r.s.store.data
	if _, ok := d.documents[doc.ID]; ok {
		return repository.ErrDuplicate
	}
	doc.Version = 1
	d.documents[doc.ID] = &documentRow{v: cloneDocument(*doc)}
	return nil
}

func (r *documentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	defer r.s.guard()()
	row, ok := r.s.store.data.documents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	doc := cloneDocument(row.v)
	return &doc, nil
}

func (r *documentRepository) Update(ctx context.Context, doc *domain.Document) error {
	defer r.s.guard()()
	d := r.s.store.data
	row, ok := d.documents[doc.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if row.v.Version != doc.Version {
		return repository.ErrVersionConflict
	}
	doc.Version++
	d.documents[doc.ID] = &documentRow{v: cloneDocument(*doc)}
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, id string) error {
	defer r.s.guard()()
	d := r.s.store.data
	if _, ok := d.documents[id]; !ok {
		return repository.ErrNotFound
	}
	delete(d.documents, id)
	return nil
}

func (r *documentRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error) {
	defer r.s.guard()()
	var out []domain.Document
	for _, row := range r.s.store.data.documents {
		if row.v.OwnerID == ownerID {
			out = append(out, cloneDocument(row.v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *documentRepository) CountByOwnerAndStatus(ctx context.Context, ownerID string, statuses []domain.DocumentStatus) (int, error) {
	defer r.s.guard()()
	n := 0
	for _, row := range r.s.store.data.documents {
		if row.v.OwnerID != ownerID {
			continue
		}
		for _, st := range statuses {
			if row.v.Status == st {
				n++
				break
			}
		}
	}
	return n, nil
}

func (r *documentRepository) CountByStatus(ctx context.Context, status domain.DocumentStatus) (int, error) {
	defer r.s.guard()()
	n := 0
	for _, row := range r.s.store.data.documents {
		if row.v.Status == status {
			n++
		}
	}
	return n, nil
}

type verificationRepository struct{ s *session }

func (r *verificationRepository) Create(ctx context.Context, rec *domain.VerificationRecord) error {
	defer r.s.guard()()
	d := r.s.store.data
	if _, ok := d.verifications[rec.OwnerID]; ok {
		return repository.ErrDuplicate
	}
	rec.Version = 1
	d.verifications[rec.OwnerID] = &verificationRow{v: cloneVerification(*rec)}
	return nil
}

func (r *verificationRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.VerificationRecord, error) {
	defer r.s.guard()()
	row, ok := r.s.store.data.verifications[ownerID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rec := cloneVerification(row.v)
	return &rec, nil
}

func (r *verificationRepository) Update(ctx context.Context, rec *domain.VerificationRecord) error {
	defer r.s.guard()()
	d := r.s.store.data
	row, ok := d.verifications[rec.OwnerID]
	if !ok {
		return repository.ErrNotFound
	}
	if row.v.Version != rec.Version {
		return repository.ErrVersionConflict
	}
	rec.Version++
	d.verifications[rec.OwnerID] = &verificationRow{v: cloneVerification(*rec)}
	return nil
}

func (r *verificationRepository) CountByStatus(ctx context.Context, status domain.VerificationStatus) (int, error) {
	defer r.s.guard()()
	n := 0
	for _, row := range r.s.store.data.verifications {
		if row.v.Status == status {
			n++
		}
	}
	return n, nil
}

type pipelineRepository struct{ s *session }

func (r *pipelineRepository) CreateIfAbsent(ctx context.Context, entry *domain.PipelineEntry) (*domain.PipelineEntry, error) {
	defer r.s.guard()()
	d := r.s.store.data
	key := pairKey(entry.EmployerID, entry.CandidateID)
	if row, ok := d.pipeline[key]; ok {
		existing := row.v
		return &existing, nil
	}
	stored := *entry
	stored.Version = 1
	d.pipeline[key] = &pipelineRow{v: stored}
	return &stored, nil
}

func (r *pipelineRepository) Get(ctx context.Context, employerID, candidateID string) (*domain.PipelineEntry, error) {
	defer r.s.guard()()
	row, ok := r.s.store.data.pipeline[pairKey(employerID, candidateID)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	entry := row.v
	return &entry, nil
}

func (r *pipelineRepository) Update(ctx context.Context, entry *domain.PipelineEntry) error {
	defer r.s.guard()()
	d := r.s.store.data
	key := pairKey(entry.EmployerID, entry.CandidateID)
	row, ok := d.pipeline[key]
	if !ok {
		return repository.ErrNotFound
	}
	if row.v.Version != entry.Version {
		return repository.ErrVersionConflict
	}
	entry.Version++
	d.pipeline[key] = &pipelineRow{v: *entry}
	return nil
}

func (r *pipelineRepository) ListByEmployer(ctx context.Context, employerID string) ([]domain.PipelineEntry, error) {
	defer r.s.guard()()
	var out []domain.PipelineEntry
	for _, row := range r.s.store.data.pipeline {
		if row.v.EmployerID == employerID {
			out = append(out, row.v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

type quoteRepository struct{ s *session }

func (r *quoteRepository) Create(ctx context.Context, q *domain.QuoteRequest) error {
	defer r.s.guard()()
	d := r.s.store.data
	if _, ok := d.quotes[q.ID]; ok {
		return repository.ErrDuplicate
	}
	if q.IsOpen() {
		for _, row := range d.quotes {
			if row.v.EmployerID == q.EmployerID && row.v.CandidateID == q.CandidateID && row.v.IsOpen() {
				return repository.ErrDuplicate
			}
		}
	}
	q.Version = 1
	d.quotes[q.ID] = &quoteRow{v: cloneQuote(*q)}
	return nil
}

func (r *quoteRepository) GetByID(ctx context.Context, id string) (*domain.QuoteRequest, error) {
	defer r.s.guard()()
	row, ok := r.s.store.data.quotes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	q := cloneQuote(row.v)
	return &q, nil
}

func (r *quoteRepository) Update(ctx context.Context, q *domain.QuoteRequest) error {
	defer r.s.guard()()
	d := r.s.store.data
	row, ok := d.quotes[q.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if row.v.Version != q.Version {
		return repository.ErrVersionConflict
	}
	if q.IsOpen() && !row.v.IsOpen() {
		for id, other := range d.quotes {
			if id != q.ID && other.v.EmployerID == q.EmployerID && other.v.CandidateID == q.CandidateID && other.v.IsOpen() {
				return repository.ErrDuplicate
			}
		}
	}
	q.Version++
	d.quotes[q.ID] = &quoteRow{v: cloneQuote(*q)}
	return nil
}

func (r *quoteRepository) FindOpenForPair(ctx context.Context, employerID, candidateID string) (*domain.QuoteRequest, error) {
	defer r.s.guard()()
	for _, row := range r.s.store.data.quotes {
		if row.v.EmployerID == employerID && row.v.CandidateID == candidateID && row.v.IsOpen() {
			q := cloneQuote(row.v)
			return &q, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *quoteRepository) ListByEmployer(ctx context.Context, employerID string) ([]domain.QuoteRequest, error) {
	defer r.s.guard()()
	var out []domain.QuoteRequest
	for _, row := range r.s.store.data.quotes {
		if row.v.EmployerID == employerID {
			out = append(out, cloneQuote(row.v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.After(out[j].RequestedAt) })
	return out, nil
}

func (r *quoteRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.QuoteRequest, error) {
	defer r.s.guard()()
	var out []domain.QuoteRequest
	for _, row := range r.s.store.data.quotes {
		if row.v.Status == domain.QuoteStatusPending && row.v.RequestedAt.Before(cutoff) {
			out = append(out, cloneQuote(row.v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (r *quoteRepository) CountByStatus(ctx context.Context, status domain.QuoteStatus) (int, error) {
	defer r.s.guard()()
	n := 0
	for _, row := range r.s.store.data.quotes {
		if row.v.Status == status {
			n++
		}
	}
	return n, nil
}

type interviewRepository struct{ s *session }

func (r *interviewRepository) Create(ctx context.Context, iv *domain.Interview) error {
	defer r.s.guard()()
	d := r.s.store.data
	if _, ok := d.interviews[iv.ID]; ok {
		return repository.ErrDuplicate
	}
	iv.Version = 1
	d.interviews[iv.ID] = &interviewRow{v: cloneInterview(*iv)}
	return nil
}

func (r *interviewRepository) GetByID(ctx context.Context, id string) (*domain.Interview, error) {
	defer r.s.guard()()
	row, ok := r.s.store.data.interviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	iv := cloneInterview(row.v)
	return &iv, nil
}

func (r *interviewRepository) Update(ctx context.Context, iv *domain.Interview) error {
	defer r.s.guard()()
	d := r.s.store.data
	row, ok := d.interviews[iv.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if row.v.Version != iv.Version {
		return repository.ErrVersionConflict
	}
	iv.Version++
	d.interviews[iv.ID] = &interviewRow{v: cloneInterview(*iv)}
	return nil
}

func (r *interviewRepository) ListByParticipant(ctx context.Context, actorID string) ([]domain.Interview, error) {
	defer r.s.guard()()
	var out []domain.Interview
	for _, row := range r.s.store.data.interviews {
		if row.v.EmployerID == actorID || row.v.CandidateID == actorID {
			out = append(out, cloneInterview(row.v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *interviewRepository) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Interview, error) {
	defer r.s.guard()()
	var out []domain.Interview
	for _, row := range r.s.store.data.interviews {
		if row.v.Status == domain.InterviewStatusPending && row.v.CreatedAt.Before(cutoff) {
			out = append(out, cloneInterview(row.v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type demandRepository struct{ s *session }

func (r *demandRepository) Create(ctx context.Context, dm *domain.TalentDemand) error {
	defer r.s.guard()()
	d := r.s.store.data
	if _, ok := d.demands[dm.ID]; ok {
		return repository.ErrDuplicate
	}
	dm.Version = 1
	d.demands[dm.ID] = &demandRow{v: cloneDemand(*dm)}
	return nil
}

func (r *demandRepository) GetByID(ctx context.Context, id string) (*domain.TalentDemand, error) {
	defer r.s.guard()()
	row, ok := r.s.store.data.demands[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	dm := cloneDemand(row.v)
	return &dm, nil
}

func (r *demandRepository) Update(ctx context.Context, dm *domain.TalentDemand) error {
	defer r.s.guard()()
	d := r.s.store.data
	row, ok := d.demands[dm.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if row.v.Version != dm.Version {
		return repository.ErrVersionConflict
	}
	dm.Version++
	d.demands[dm.ID] = &demandRow{v: cloneDemand(*dm)}
	return nil
}

func (r *demandRepository) Delete(ctx context.Context, id string) error {
	defer r.s.guard()()
	d := r.s.store.data
	if _, ok := d.demands[id]; !ok {
		return repository.ErrNotFound
	}
	delete(d.demands, id)
	return nil
}

func (r *demandRepository) ListByEmployer(ctx context.Context, employerID string) ([]domain.TalentDemand, error) {
	defer r.s.guard()()
	var out []domain.TalentDemand
	for _, row := range r.s.store.data.demands {
		if row.v.EmployerID == employerID {
			out = append(out, cloneDemand(row.v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type notificationRepository struct{ s *session }

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	defer r.s.guard()()
	d := r.s.store.data
	d.notifications = append(d.notifications, &notificationRow{v: cloneNotification(*n)})
	return nil
}

func (r *notificationRepository) List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error) {
	defer r.s.guard()()
	var all []domain.Notification
	for i := len(r.s.store.data.notifications) - 1; i >= 0; i-- {
		row := r.s.store.data.notifications[i]
		if row.v.UserID == userID {
			all = append(all, cloneNotification(row.v))
		}
	}
	total := int32(len(all))
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID string) error {
	defer r.s.guard()()
	d := r.s.store.data
	for i, row := range d.notifications {
		if row.v.ID == id && row.v.UserID == userID {
			n := cloneNotification(row.v)
			n.IsRead = true
			d.notifications[i] = &notificationRow{v: n}
			return nil
		}
	}
	return repository.ErrNotFound
}

type contactRepository struct{ s *session }

func (r *contactRepository) Upsert(ctx context.Context, c *domain.Contact) error {
	defer r.s.guard()()
	r.s.store.data.contacts[c.UserID] = &contactRow{v: *c}
	return nil
}

func (r *contactRepository) GetByUserID(ctx context.Context, userID string) (*domain.Contact, error) {
	defer r.s.guard()()
	row, ok := r.s.store.data.contacts[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := row.v
	return &c, nil
}

func (r *contactRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.Contact, error) {
	defer r.s.guard()()
	var out []domain.Contact
	for _, row := range r.s.store.data.contacts {
		if row.v.Role == role {
			out = append(out, row.v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

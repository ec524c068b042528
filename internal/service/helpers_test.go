package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"hireflow/internal/domain"
	"hireflow/internal/lock"
	"hireflow/internal/repository/memory"
	"hireflow/internal/service"
)

var (
	candidate1 = domain.Actor{ID: "candidate-1", Role: domain.RoleCandidate}
	candidate3 = domain.Actor{ID: "candidate-3", Role: domain.RoleCandidate}
	employer1  = domain.Actor{ID: "employer-1", Role: domain.RoleEmployer}
	employer2  = domain.Actor{ID: "employer-2", Role: domain.RoleEmployer}
	staff1     = domain.Actor{ID: "staff-1", Role: domain.RoleStaff}
	staff2     = domain.Actor{ID: "staff-2", Role: domain.RoleStaff}
	admin1     = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

type sentNotification struct {
	UserID string
	Title  string
	Attrs  map[string]string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(ctx context.Context, userID, title, message string, attrs map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Title: title, Attrs: attrs})
}

func (n *recordingNotifier) To(userID string) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, s := range n.sent {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

type workflow struct {
	store      *memory.Store
	notifier   *recordingNotifier
	docs       service.DocumentService
	verifs     service.VerificationService
	pipeline   service.PipelineService
	quotes     service.QuoteService
	interviews service.InterviewService
	demands    service.DemandService
}

func newWorkflow(policy service.Policy) *workflow {
	store := memory.NewStore()
	locker := lock.NewLocalLocker()
	notes := &recordingNotifier{}
	return &workflow{
		store:      store,
		notifier:   notes,
		docs:       service.NewDocumentService(store, locker, notes),
		verifs:     service.NewVerificationService(store, locker, notes),
		pipeline:   service.NewPipelineService(store, locker, notes, policy),
		quotes:     service.NewQuoteService(store, locker, notes, policy),
		interviews: service.NewInterviewService(store, locker, notes, policy),
		demands:    service.NewDemandService(store, locker, notes, policy),
	}
}

// verify takes an actor without documents through submission and staff approval.
func (w *workflow) verify(t *testing.T, actor domain.Actor) {
	t.Helper()
	ctx := context.Background()
	_, err := w.verifs.SubmitForVerification(ctx, actor)
	require.NoError(t, err)
	rec, err := w.verifs.Verify(ctx, staff1, actor.ID, "")
	require.NoError(t, err)
	require.Equal(t, domain.VerificationStatusVerified, rec.Status)
}

func requireConflict(t *testing.T, err error) *domain.ConflictError {
	t.Helper()
	require.Error(t, err)
	var conflict *domain.ConflictError
	require.Truef(t, errors.As(err, &conflict), "expected a conflict, got %T: %v", err, err)
	return conflict
}

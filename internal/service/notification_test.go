package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"hireflow/internal/domain"
	"hireflow/internal/repository/memory"
	"hireflow/internal/service"
)

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) Send(ctx context.Context, toEmail, toName, subject, body string) error {
	args := m.Called(ctx, toEmail, toName, subject, body)
	return args.Error(0)
}

type MockPushService struct {
	mock.Mock
}

func (m *MockPushService) Push(ctx context.Context, userID, title, body string, data map[string]string) error {
	args := m.Called(ctx, userID, title, body, data)
	return args.Error(0)
}

func TestNotificationService_Notify(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	mockEmail := new(MockEmailService)
	mockPush := new(MockPushService)
	svc := service.NewNotificationService(store, mockEmail, mockPush)

	_, err := svc.UpdateContact(ctx, candidate1, "c1@test.com", "Candidate One")
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		attrs := map[string]string{"type": "DOCUMENT_REVIEWED"}
		mockEmail.On("Send", ctx, "c1@test.com", "Candidate One", "Document reviewed", "approved").Return(nil).Once()
		mockPush.On("Push", ctx, candidate1.ID, "Document reviewed", "approved", attrs).Return(nil).Once()

		svc.Notify(ctx, candidate1.ID, "Document reviewed", "approved", attrs)

		notes, total, err := svc.GetNotifications(ctx, candidate1, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		assert.Equal(t, "Document reviewed", notes[0].Title)
		assert.False(t, notes[0].IsRead)
	})

	t.Run("DeliveryFailuresAreSwallowed", func(t *testing.T) {
		mockEmail.On("Send", ctx, "c1@test.com", "Candidate One", "Quote resolved", "rejected").Return(errors.New("smtp down")).Once()
		mockPush.On("Push", ctx, candidate1.ID, "Quote resolved", "rejected", mock.Anything).Return(errors.New("fcm down")).Once()

		svc.Notify(ctx, candidate1.ID, "Quote resolved", "rejected", nil)

		_, total, err := svc.GetNotifications(ctx, candidate1, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(2), total)
	})

	t.Run("NoContactSkipsEmail", func(t *testing.T) {
		mockPush.On("Push", ctx, employer1.ID, "Hello", "world", mock.Anything).Return(nil).Once()
		svc.Notify(ctx, employer1.ID, "Hello", "world", nil)
	})

	t.Run("SystemUserIgnored", func(t *testing.T) {
		svc.Notify(ctx, domain.SystemActor.ID, "Hello", "world", nil)
	})

	mockEmail.AssertExpectations(t)
	mockPush.AssertExpectations(t)
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := service.NewNotificationService(store, nil, nil)

	svc.Notify(ctx, candidate1.ID, "Hello", "world", nil)
	notes, _, err := svc.GetNotifications(ctx, candidate1, 1, 20)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	t.Run("OtherUser", func(t *testing.T) {
		err := svc.MarkAsRead(ctx, candidate3, notes[0].ID)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("Owner", func(t *testing.T) {
		require.NoError(t, svc.MarkAsRead(ctx, candidate1, notes[0].ID))
		notes, _, err := svc.GetNotifications(ctx, candidate1, 1, 20)
		require.NoError(t, err)
		assert.True(t, notes[0].IsRead)
	})
}

func TestNotificationService_NotifyRole(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	mockPush := new(MockPushService)
	svc := service.NewNotificationService(store, nil, mockPush)

	_, err := svc.UpdateContact(ctx, staff1, "", "Staff One")
	require.NoError(t, err)
	_, err = svc.UpdateContact(ctx, staff2, "", "Staff Two")
	require.NoError(t, err)
	_, err = svc.UpdateContact(ctx, candidate1, "", "")
	require.NoError(t, err)

	mockPush.On("Push", ctx, staff1.ID, "Digest", "3 items", mock.Anything).Return(nil).Once()
	mockPush.On("Push", ctx, staff2.ID, "Digest", "3 items", mock.Anything).Return(nil).Once()

	svc.NotifyRole(ctx, domain.RoleStaff, "Digest", "3 items", nil)
	mockPush.AssertExpectations(t)

	_, err = svc.UpdateContact(ctx, candidate1, "not-an-email", "")
	assert.True(t, domain.IsValidation(err))
}

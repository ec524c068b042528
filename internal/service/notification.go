package service

import (
	"context"
	"errors"
	"strings"

	"hireflow/internal/domain"
	"hireflow/internal/logger"
	"hireflow/internal/repository"
)

type notificationService struct {
	store repository.Store
	email EmailService
	push  PushService
}

func NewNotificationService(store repository.Store, email EmailService, push PushService) NotificationService {
	if email == nil {
		email = noopEmailService{}
	}
	if push == nil {
		push = noopPushService{}
	}
	return &notificationService{store: store, email: email, push: push}
}

// Notify persists an in-app notification and fans it out to email and push.
// It runs after the triggering transition committed, so failures are only logged.
func (s *notificationService) Notify(ctx context.Context, userID, title, message string, attrs map[string]string) {
	if userID == "" || userID == domain.SystemActor.ID {
		return
	}
	logger.EnterMethod("notificationService.Notify", "userID", userID, "title", title)
	repos := s.store.Repos()

	note := &domain.Notification{
		ID:         newID(),
		UserID:     userID,
		Title:      title,
		Message:    message,
		Attributes: attrs,
		CreatedAt:  now(),
	}
	if err := repos.Notifications.Create(ctx, note); err != nil {
		logger.Error("Failed to persist notification", "userID", userID, "error", err)
	}

	contact, err := repos.Contacts.GetByUserID(ctx, userID)
	switch {
	case err == nil && contact.Email != "":
		if err := s.email.Send(ctx, contact.Email, contact.Name, title, message); err != nil {
			logger.Warn("Failed to send notification email", "userID", userID, "error", err)
		}
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		logger.Error("Failed to load contact", "userID", userID, "error", err)
	}

	if err := s.push.Push(ctx, userID, title, message, attrs); err != nil {
		logger.Warn("Failed to send push notification", "userID", userID, "error", err)
	}
	logger.ExitMethod("notificationService.Notify", "notificationID", note.ID)
}

func (s *notificationService) NotifyRole(ctx context.Context, role domain.Role, title, message string, attrs map[string]string) {
	contacts, err := s.store.Repos().Contacts.ListByRole(ctx, role)
	if err != nil {
		logger.Error("Failed to list contacts", "role", role, "error", err)
		return
	}
	for _, c := range contacts {
		s.Notify(ctx, c.UserID, title, message, attrs)
	}
}

func (s *notificationService) GetNotifications(ctx context.Context, actor domain.Actor, page, pageSize int32) ([]domain.Notification, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	notes, total, err := s.store.Repos().Notifications.List(ctx, actor.ID, pageSize, offset)
	if err != nil {
		return nil, 0, asDomainError("list notifications", err)
	}
	return notes, total, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, actor domain.Actor, notificationID string) error {
	if err := s.store.Repos().Notifications.MarkAsRead(ctx, notificationID, actor.ID); err != nil {
		return persistErr("mark notification read", "notification", notificationID, err)
	}
	return nil
}

func (s *notificationService) UpdateContact(ctx context.Context, actor domain.Actor, email, name string) (*domain.Contact, error) {
	email = strings.TrimSpace(email)
	if email != "" && !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("email", "must be an email address")
	}
	c := &domain.Contact{UserID: actor.ID, Role: actor.Role, Email: email, Name: strings.TrimSpace(name)}
	if err := s.store.Repos().Contacts.Upsert(ctx, c); err != nil {
		return nil, persistErr("upsert contact", "contact", actor.ID, err)
	}
	return c, nil
}

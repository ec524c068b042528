package service

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"hireflow/internal/logger"
)

// pushTopicPrefix names the per-user FCM topic clients subscribe to.
const pushTopicPrefix = "user-"

type firebasePushService struct {
	client *messaging.Client
}

// NewPushService returns an FCM-backed sender, or a no-op when Firebase is not
// configured or fails to initialise.
func NewPushService(ctx context.Context, projectID, credentialsFile string) PushService {
	if projectID == "" || credentialsFile == "" {
		logger.Info("Firebase not configured, push delivery disabled")
		return noopPushService{}
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		logger.Warn("Failed to initialise Firebase app, push delivery disabled", "error", err)
		return noopPushService{}
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		logger.Warn("Failed to initialise Firebase messaging, push delivery disabled", "error", err)
		return noopPushService{}
	}
	return &firebasePushService{client: client}
}

func (s *firebasePushService) Push(ctx context.Context, userID, title, body string, data map[string]string) error {
	logger.ExternalServiceCall("firebase", "Send", "userID", userID, "title", title)
	id, err := s.client.Send(ctx, &messaging.Message{
		Topic: pushTopicPrefix + userID,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	logger.ExternalServiceResult("firebase", "Send", err, "userID", userID, "messageID", id)
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	return nil
}

type noopPushService struct{}

func (noopPushService) Push(ctx context.Context, userID, title, body string, data map[string]string) error {
	return nil
}

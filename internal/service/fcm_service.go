package service

import (
	"context"
	"encoding/json"
	"fmt"

	"investx/internal/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMService sends push notifications via Firebase Cloud Messaging.
type FCMService struct {
	client *messaging.Client
}

// NewFCMService creates an FCM service. Returns nil if Firebase is not configured.
func NewFCMService(ctx context.Context, serviceAccountPath string) *FCMService {
	if serviceAccountPath == "" {
		return nil
	}
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(serviceAccountPath))
	if err != nil {
		logger.Error().Err(err).Msg("fcm: init firebase app")
		return nil
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("fcm: messaging client")
		return nil
	}
	return &FCMService{client: client}
}

// Send sends a push notification to the given FCM token.
func (s *FCMService) Send(ctx context.Context, token string, title, body string, data map[string]string) error {
	if s == nil || token == "" {
		return nil
	}
	msg := &messaging.Message{
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data:  data,
		Token: token,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}

// SendToAccount stringifies data values (FCM requires strings) and sends.
func (s *FCMService) SendToAccount(ctx context.Context, fcmToken string, kind, title, body string, data map[string]interface{}) error {
	if s == nil || fcmToken == "" {
		return nil
	}
	return s.Send(ctx, fcmToken, title, body, stringifyData(kind, data))
}

func stringifyData(kind string, data map[string]interface{}) map[string]string {
	out := map[string]string{"type": kind}
	for k, v := range data {
		switch val := v.(type) {
		case string:
			out[k] = val
		case uint, uint64, int, int64:
			out[k] = fmt.Sprintf("%d", val)
		case float64:
			out[k] = fmt.Sprintf("%.0f", val)
		default:
			b, _ := json.Marshal(v)
			out[k] = string(b)
		}
	}
	return out
}

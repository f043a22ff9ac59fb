package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"shiftboard/config"
)

// FCMSender sends through Firebase Cloud Messaging
type FCMSender struct {
	client *messaging.Client
	logger *zap.Logger
}

// NewFCMSender initializes the Firebase app from a service account file
func NewFCMSender(ctx context.Context, cfg *config.PushConfig, logger *zap.Logger) (*FCMSender, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID},
		option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase messaging: %w", err)
	}

	logger.Info("fcm push transport ready", zap.String("project_id", cfg.ProjectID))
	return &FCMSender{client: client, logger: logger}, nil
}

func toFCM(msg Message) *messaging.Message {
	m := &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	}
	if msg.Link != "" {
		m.Webpush = &messaging.WebpushConfig{
			FCMOptions: &messaging.WebpushFCMOptions{Link: msg.Link},
		}
	}
	return m
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if messaging.IsRegistrationTokenNotRegistered(err) || messaging.IsUnregistered(err) {
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}
	return err
}

// SendOne sends a single message
func (s *FCMSender) SendOne(ctx context.Context, msg Message) error {
	if _, err := s.client.Send(ctx, toFCM(msg)); err != nil {
		return classify(err)
	}
	return nil
}

// SendMany sends up to MaxBatch messages in one call
func (s *FCMSender) SendMany(ctx context.Context, msgs []Message) (*BatchResult, error) {
	if len(msgs) == 0 {
		return &BatchResult{}, nil
	}
	if len(msgs) > MaxBatch {
		return nil, fmt.Errorf("push batch of %d exceeds limit %d", len(msgs), MaxBatch)
	}

	fcmMsgs := make([]*messaging.Message, len(msgs))
	for i, m := range msgs {
		fcmMsgs[i] = toFCM(m)
	}

	br, err := s.client.SendEach(ctx, fcmMsgs)
	if err != nil {
		return nil, err
	}

	res := &BatchResult{
		SuccessCount: br.SuccessCount,
		FailureCount: br.FailureCount,
		Items:        make([]ItemResult, len(br.Responses)),
	}
	for i, r := range br.Responses {
		res.Items[i] = ItemResult{Token: msgs[i].Token, Success: r.Success, Err: classify(r.Error)}
	}
	return res, nil
}

package services

import (
	"context"
	"fmt"

	"lovebox-backend/internal/metrics"

	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNSConfig holds the token-based APNs credentials
type APNSConfig struct {
	KeyFile    string
	KeyID      string
	TeamID     string
	Topic      string
	Production bool
}

// APNSNotifier sends push notifications through Apple's HTTP/2 API
type APNSNotifier struct {
	client *apns2.Client
	topic  string
}

// NewAPNSNotifier loads the .p8 signing key and builds a token client
func NewAPNSNotifier(cfg APNSConfig) (*APNSNotifier, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNSNotifier{client: client, topic: cfg.Topic}, nil
}

// Push sends ev as an alert to deviceToken
func (n *APNSNotifier) Push(ctx context.Context, deviceToken string, ev Event) error {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       n.topic,
		Payload:     buildPayload(ev),
	}

	res, err := n.client.PushWithContext(ctx, notification)
	if err != nil {
		metrics.RecordPush(false)
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		metrics.RecordPush(false)
		return fmt.Errorf("push rejected: %d %s", res.StatusCode, res.Reason)
	}
	metrics.RecordPush(true)
	return nil
}

func buildPayload(ev Event) *payload.Payload {
	return payload.NewPayload().
		AlertTitle("LoveBox").
		AlertBody(ev.Alert).
		Sound("default").
		Custom("type", ev.Type)
}

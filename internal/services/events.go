package services

import (
	"context"
	"time"

	"lovebox-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Event types pushed to clients
const (
	EventCoupleQuestionAsked    = "couple_question.asked"
	EventCoupleQuestionAnswered = "couple_question.answered"
	EventSingleQuestionAsked    = "single_question.asked"
	EventSingleQuestionAnswered = "single_question.answered"
	EventBffRequestReceived     = "bff_request.received"
	EventBffCreated             = "bff.created"
	EventBffDeleted             = "bff.deleted"
	EventBffStatus              = "bff.status"
)

// Event is a notification for one or more users. Alert is the text shown in a push banner.
type Event struct {
	Type  string
	Data  any
	Alert string
}

// Events delivers notifications. Delivery failures never reach the caller.
type Events interface {
	Publish(ctx context.Context, userIDs []int64, ev Event)
}

// NopEvents drops every event
type NopEvents struct{}

func (NopEvents) Publish(context.Context, []int64, Event) {}

// Pusher sends a push notification to one device
type Pusher interface {
	Push(ctx context.Context, deviceToken string, ev Event) error
}

// pushTokenSource looks up where to push
type pushTokenSource interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Dispatcher delivers events over the websocket when the user is connected
// and falls back to a push notification otherwise
type Dispatcher struct {
	hub    *WSHub
	pusher Pusher
	users  pushTokenSource
}

// NewDispatcher creates a dispatcher. hub and pusher may be nil.
func NewDispatcher(hub *WSHub, pusher Pusher, users UserStore) *Dispatcher {
	return &Dispatcher{hub: hub, pusher: pusher, users: users}
}

// Publish sends ev to every user in userIDs
func (d *Dispatcher) Publish(ctx context.Context, userIDs []int64, ev Event) {
	msg := WSMessage{
		Type:      ev.Type,
		Timestamp: time.Now().UnixMilli(),
		Data:      ev.Data,
	}

	for _, userID := range userIDs {
		if d.hub != nil && d.hub.IsOnline(userID) {
			err := d.hub.SendToUser(userID, msg)
			if err == nil {
				continue
			}
			log.Warn().Err(err).Int64("user_id", userID).Str("event", ev.Type).Msg("Failed to deliver event over websocket")
		}

		if d.pusher == nil || ev.Alert == "" {
			continue
		}
		user, err := d.users.GetByID(ctx, userID)
		if err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user for push")
			continue
		}
		if user.PushToken == nil || *user.PushToken == "" {
			continue
		}
		if err := d.pusher.Push(ctx, *user.PushToken, ev); err != nil {
			log.Error().Err(err).Int64("user_id", userID).Str("event", ev.Type).Msg("Failed to send push notification")
		}
	}
}

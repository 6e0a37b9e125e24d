package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"userapi/internal/models"

	"github.com/google/uuid"
)

// Routing keys for user lifecycle events.
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// EventPublisher delivers serialized events under a routing key.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// UserEvent is the message body published after a user mutation.
type UserEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newUserEvent(eventType string, user *models.User) UserEvent {
	return UserEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	}
}

// publish sends the event if a publisher is configured. Failures are
// logged and never surface to the caller.
func (s *UserService) publish(ctx context.Context, event UserEvent) {
	if s.publisher == nil {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal user event", "type", event.Type, "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, event.Type, body); err != nil {
		s.logger.Warn("failed to publish user event",
			slog.String("type", event.Type),
			slog.Uint64("user_id", uint64(event.UserID)),
			slog.String("error", err.Error()),
		)
		return
	}
	s.logger.Debug("published user event", "type", event.Type, "user_id", event.UserID)
}

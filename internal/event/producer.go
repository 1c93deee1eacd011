package event

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/kafka"
	"github.com/KartikGSparrow/AuthAppWithTasks/pkg/logger"
)

// Event types published by the auth service.
const (
	TypeUserSignedUp     = "authapp.user.signed_up"
	TypeSessionLoggedIn  = "authapp.session.logged_in"
	TypeSessionRefreshed = "authapp.session.refreshed"
	TypeSessionLoggedOut = "authapp.session.logged_out"
)

const (
	aggregateUser    = "user"
	aggregateSession = "session"
	source           = "auth-service"
)

// Publisher sends lifecycle events to Kafka. Publishing is fire-and-forget
// from the caller's perspective: a broker failure is logged, never surfaced,
// so the auth flow does not depend on the event bus being up.
type Publisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// NewPublisher creates an event publisher on top of a Kafka producer.
func NewPublisher(producer *kafka.Producer, logger *slog.Logger) *Publisher {
	return &Publisher{producer: producer, logger: logger}
}

// UserSignedUp publishes an event for a newly registered user.
func (p *Publisher) UserSignedUp(ctx context.Context, userID int64, email string) {
	p.publish(ctx, TypeUserSignedUp, aggregateUser, userID, map[string]any{
		"user_id": userID,
		"email":   email,
	})
}

// SessionLoggedIn publishes an event for a successful login.
func (p *Publisher) SessionLoggedIn(ctx context.Context, userID int64) {
	p.publish(ctx, TypeSessionLoggedIn, aggregateSession, userID, map[string]any{
		"user_id": userID,
	})
}

// SessionRefreshed publishes an event for a successful token refresh.
func (p *Publisher) SessionRefreshed(ctx context.Context, userID int64) {
	p.publish(ctx, TypeSessionRefreshed, aggregateSession, userID, map[string]any{
		"user_id": userID,
	})
}

// SessionLoggedOut publishes an event for a logout.
func (p *Publisher) SessionLoggedOut(ctx context.Context, userID int64) {
	p.publish(ctx, TypeSessionLoggedOut, aggregateSession, userID, map[string]any{
		"user_id": userID,
	})
}

func (p *Publisher) publish(ctx context.Context, eventType, aggregateType string, aggregateID int64, data map[string]any) {
	evt, err := kafka.NewEvent(eventType, strconv.FormatInt(aggregateID, 10), aggregateType, source, data)
	if err != nil {
		p.log(ctx).Error("failed to build event", "event_type", eventType, "error", err)
		return
	}
	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		evt = evt.WithCorrelationID(cid)
	}

	if err := p.producer.Publish(ctx, eventType, evt); err != nil {
		p.log(ctx).Error("failed to publish event",
			"event_type", eventType,
			"aggregate_id", aggregateID,
			"error", err)
		return
	}

	p.log(ctx).Debug("event published", "event_type", eventType, "aggregate_id", aggregateID)
}

func (p *Publisher) log(ctx context.Context) *slog.Logger {
	return logger.WithContext(ctx, p.logger)
}

package services

import (
	"context"
	"log/slog"

	"budge/internal/amqp"
)

// publish sends ev after the change has been committed. Failures are logged
// and never fail the request, since the change itself is already durable.
func publish(ctx context.Context, p EventPublisher, ev *amqp.BudgetEvent) {
	if p == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event", "type", ev.Type)
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget event",
			"type", ev.Type,
			"user_id", ev.UserID,
			"entity_id", ev.EntityID,
			"error", err)
	}
}

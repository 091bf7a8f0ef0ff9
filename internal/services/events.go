package services

import (
	"context"
	"log/slog"

	"dompet/internal/amqp"
)

// EventPublisher announces ledger changes. *amqp.Client satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, event amqp.LedgerEvent) error
}

// publish sends ev when a publisher is configured. Failures are logged and
// never fail the request: the change is already stored.
func publish(ctx context.Context, p EventPublisher, ev amqp.LedgerEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"event_type", ev.Type,
			"transaction_id", ev.TransactionID,
			"error", err)
	}
}

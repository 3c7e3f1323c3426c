package services

import (
	"context"
	"log/slog"

	"github.com/andersonmelo18/Financeiro/internal/events"
)

// Notifier publishes data-changed events. Publish failures never fail
// the originating operation; the record is already persisted.
type Notifier struct {
	client *events.Client
}

func NewNotifier(client *events.Client) *Notifier {
	return &Notifier{client: client}
}

// DataChanged announces a change in one scope. ym may be empty for
// collections not grouped by month.
func (n *Notifier) DataChanged(ctx context.Context, userID, scope, ym string) {
	if n == nil || n.client == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping data-changed message",
			"scope", scope)
		return
	}
	if err := n.client.PublishDataChanged(ctx, userID, scope, ym); err != nil {
		slog.ErrorContext(ctx, "Failed to publish data-changed message",
			"user_id", userID, "scope", scope, "error", err)
	}
}

package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/Zia-ullah-khan/qless/internal/repository"
)

// recordEvent appends a lifecycle event to the outbox. The state change it
// describes is already committed, so a failure here is logged and swallowed.
func recordEvent(ctx context.Context, outbox repository.OutboxRepository, aggregateID, eventType string, payload map[string]interface{}) {
	if outbox == nil {
		return
	}

	payload["event_type"] = eventType
	payload["occurred_at"] = time.Now().UTC()
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal outbox payload", "event_type", eventType, "txid", aggregateID, "error", err)
		return
	}

	if err := outbox.AddEvent(ctx, aggregateID, eventType, data); err != nil {
		slog.ErrorContext(ctx, "failed to record outbox event", "event_type", eventType, "txid", aggregateID, "error", err)
	}
}

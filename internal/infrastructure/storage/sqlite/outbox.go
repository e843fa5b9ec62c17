package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"oficio/internal/core/id"
	"oficio/internal/core/outbox"
)

// OutboxPublisher writes events to sys_outbox inside the caller's transaction.
type OutboxPublisher struct {
	txManager *TxManager
}

var _ outbox.Publisher = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

// Publish implements outbox.Publisher.
func (p *OutboxPublisher) Publish(ctx context.Context, event outbox.Event) error {
	if !p.txManager.InTransaction(ctx) {
		return fmt.Errorf("outbox publish requires transaction context")
	}
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = p.txManager.GetQuerier(ctx).ExecContext(ctx, `
		INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
		VALUES (?, ?, ?, ?, ?, 'pending', ?)
	`, id.New(), event.AggregateType, event.AggregateID, event.EventType, string(payload), time.Now().UTC())
	return classify("insert outbox message", err)
}

// PendingEvents counts undelivered events of the given type.
func (p *OutboxPublisher) PendingEvents(ctx context.Context, eventType string) (int, error) {
	var n int
	err := p.txManager.GetQuerier(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sys_outbox WHERE status = 'pending' AND event_type = ?`, eventType).Scan(&n)
	return n, classify("count outbox messages", err)
}

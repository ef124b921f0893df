package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pos/internal/events"
)

// EventsRepo persists domain events as an append-only audit trail.
type EventsRepo struct {
	Pool *pgxpool.Pool
}

// InsertEvent appends one event and returns the stored row.
func (r EventsRepo) InsertEvent(ctx context.Context, topic string, aggregateID uuid.UUID, payload []byte) (events.Event, error) {
	const q = `
INSERT INTO domain_events (id, topic, aggregate_id, payload, occurred_at)
VALUES ($1, $2, $3, $4, now())
RETURNING id, topic, aggregate_id, payload, occurred_at`
	var ev events.Event
	err := r.Pool.QueryRow(ctx, q, uuid.New(), topic, aggregateID, payload).Scan(
		&ev.ID, &ev.Topic, &ev.AggregateID, &ev.Payload, &ev.OccurredAt,
	)
	if err != nil {
		return events.Event{}, err
	}
	return ev, nil
}

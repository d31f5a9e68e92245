package store

import (
	"context"
	"database/sql"
	"time"
)

// EventLog records delivered domain events for auditing. The worker
// writes here after consuming the queue.
//
//	CREATE TABLE event_log (
//	    id          BIGSERIAL PRIMARY KEY,
//	    name        TEXT NOT NULL,
//	    payload     JSONB NOT NULL,
//	    recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type EventLog struct {
	db *sql.DB
}

// NewEventLog creates the adapter.
func NewEventLog(db *sql.DB) *EventLog {
	return &EventLog{db: db}
}

// Record appends one delivered event.
func (l *EventLog) Record(ctx context.Context, name string, payload []byte, at time.Time) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO event_log (name, payload, recorded_at) VALUES ($1, $2, $3)
	`, name, payload, at)
	return err
}

package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Event is the JSON envelope carried on the queue.
type Event struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
	At      time.Time      `json:"at"`
}

// Publisher adapts a Queue to the domain's event-publisher port. The
// scheduling and report services call it strictly after their repository
// writes return, so anything consumed downstream reflects committed
// state.
type Publisher struct {
	q   Queue
	now func() time.Time
}

// NewPublisher wraps a queue backend.
func NewPublisher(q Queue) *Publisher {
	return &Publisher{q: q, now: time.Now}
}

// Publish marshals the event envelope and enqueues it.
func (p *Publisher) Publish(ctx context.Context, name string, payload map[string]any) error {
	body, err := json.Marshal(Event{Name: name, Payload: payload, At: p.now().UTC()})
	if err != nil {
		return err
	}
	return p.q.Publish(ctx, Message{Name: name, Body: body})
}

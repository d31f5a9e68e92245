package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestInMemoryRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewInMemory(4)
	if err := q.Publish(ctx, Message{Name: "session.created", Body: []byte(`{"session_id":"s1"}`)}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	msgs, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	select {
	case msg := <-msgs:
		if msg.Name != "session.created" {
			t.Fatalf("unexpected name: %s", msg.Name)
		}
		if string(msg.Body) != `{"session_id":"s1"}` {
			t.Fatalf("unexpected body: %s", msg.Body)
		}
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestEncodeDecode(t *testing.T) {
	msg := Message{Name: "report.exported", Body: []byte(`{"path":"a|b.csv"}`)}
	got := decode(encode(msg))
	if got.Name != msg.Name {
		t.Fatalf("name mismatch: %s", got.Name)
	}
	if string(got.Body) != string(msg.Body) {
		t.Fatalf("body mangled: %s", got.Body)
	}
}

type captureQueue struct{ last Message }

func (c *captureQueue) Publish(_ context.Context, msg Message) error {
	c.last = msg
	return nil
}

func (c *captureQueue) Consume(context.Context) (<-chan Message, error) { return nil, nil }

func TestPublisherEnvelope(t *testing.T) {
	q := &captureQueue{}
	p := NewPublisher(q)
	fixed := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	err := p.Publish(context.Background(), "session.created", map[string]any{"session_id": "s1", "lecturer_id": "l1"})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if q.last.Name != "session.created" {
		t.Fatalf("unexpected message name: %s", q.last.Name)
	}

	var evt Event
	if err := json.Unmarshal(q.last.Body, &evt); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if evt.Name != "session.created" || evt.Payload["session_id"] != "s1" {
		t.Fatalf("unexpected envelope: %+v", evt)
	}
	if !evt.At.Equal(fixed) {
		t.Fatalf("timestamp not stamped: %v", evt.At)
	}
}

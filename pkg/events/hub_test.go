package events

import (
	"errors"
	"testing"
	"time"

	"clinic-kiosk/pkg/model"
)

type fakeConn struct {
	name      string
	failNext  bool
	written   []model.Event
	deadlines []time.Time
	closed    bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	if f.failNext {
		return errors.New("write to closed socket")
	}
	f.written = append(f.written, v.(model.Event))
	return nil
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error {
	f.deadlines = append(f.deadlines, t)
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestBroadcast_DeliversToAll(t *testing.T) {
	h := NewHub()
	a, b := &fakeConn{name: "a"}, &fakeConn{name: "b"}
	h.Subscribe(a)
	h.Subscribe(b)

	h.Broadcast(model.Event{Type: model.EventPersonDetected})

	for _, c := range []*fakeConn{a, b} {
		if len(c.written) != 1 || c.written[0].Type != model.EventPersonDetected {
			t.Fatalf("conn %s: expected one person_detected, got %+v", c.name, c.written)
		}
	}
}

func TestBroadcast_SetsWriteDeadline(t *testing.T) {
	h := NewHub()
	a := &fakeConn{name: "a"}
	h.Subscribe(a)

	before := time.Now()
	h.Broadcast(model.Event{Type: model.EventPersonDetected})

	// a slow client must never stall the fan-out indefinitely
	if len(a.deadlines) != 1 {
		t.Fatalf("expected a write deadline per delivery, got %d", len(a.deadlines))
	}
	if d := a.deadlines[0]; !d.After(before) || d.After(before.Add(writeWait+time.Second)) {
		t.Fatalf("deadline %v not within the write window after %v", d, before)
	}
}

func TestBroadcast_IsolatesFailure(t *testing.T) {
	h := NewHub()
	a, bad, c := &fakeConn{name: "a"}, &fakeConn{name: "bad", failNext: true}, &fakeConn{name: "c"}
	h.Subscribe(a)
	h.Subscribe(bad)
	h.Subscribe(c)

	h.Broadcast(model.Event{Type: model.EventResetIdle})

	// one bad socket never aborts the fan-out to the others
	if len(a.written) != 1 || len(c.written) != 1 {
		t.Fatalf("healthy conns must still be delivered: a=%d c=%d", len(a.written), len(c.written))
	}
	if !bad.closed {
		t.Fatal("failed conn must be closed")
	}
	if h.Count() != 2 {
		t.Fatalf("failed conn must be pruned during the broadcast, count=%d", h.Count())
	}

	// dropped conn gets nothing on the next broadcast
	h.Broadcast(model.Event{Type: model.EventPersonDetected})
	if len(a.written) != 2 || len(c.written) != 2 {
		t.Fatalf("remaining conns must receive later events: a=%d c=%d", len(a.written), len(c.written))
	}
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	h := NewHub()
	a := &fakeConn{name: "a"}
	h.Subscribe(a)

	h.Unsubscribe(a)
	h.Unsubscribe(a) // no-op

	if h.Count() != 0 {
		t.Fatalf("count=%d after unsubscribe", h.Count())
	}
	if !a.closed {
		t.Fatal("unsubscribed conn must be closed")
	}
}

func TestCount_TracksSubscribers(t *testing.T) {
	h := NewHub()
	if h.Count() != 0 {
		t.Fatalf("fresh hub count=%d", h.Count())
	}
	a, b := &fakeConn{}, &fakeConn{}
	h.Subscribe(a)
	h.Subscribe(b)
	if h.Count() != 2 {
		t.Fatalf("count=%d after two subscribes", h.Count())
	}
}

package kiosk

import (
	"context"
	"errors"
	"testing"

	"clinic-kiosk/pkg/model"
)

type fakeHub struct {
	events []model.Event
	count  int
}

func (f *fakeHub) Broadcast(ev model.Event) { f.events = append(f.events, ev) }
func (f *fakeHub) Count() int               { return f.count }

type fakeDir struct {
	records map[string]model.PatientRecord
}

func (f *fakeDir) Lookup(_ context.Context, hn string) (model.PatientRecord, error) {
	if rec, ok := f.records[hn]; ok {
		return rec, nil
	}
	return model.PatientRecord{}, errors.New("patient not found")
}

func newTestMachine() (*Machine, *fakeHub) {
	hub := &fakeHub{}
	dir := &fakeDir{records: map[string]model.PatientRecord{
		"A123": {HN: "A123", Fields: map[string]string{"Name": "Somchai"}},
	}}
	return New(dir, hub), hub
}

func TestPersonDetected_Idempotent(t *testing.T) {
	m, hub := newTestMachine()

	st1 := m.PersonDetected()
	st2 := m.PersonDetected()

	if !st1.Presence || !st2.Presence {
		t.Fatalf("presence must be true after both calls, got %v then %v", st1.Presence, st2.Presence)
	}
	if st2.PersonCount != 2 {
		t.Fatalf("repeated person triggers must both count, got %d", st2.PersonCount)
	}
	if len(hub.events) != 2 {
		t.Fatalf("expected exactly one broadcast per trigger, got %d", len(hub.events))
	}
	for _, ev := range hub.events {
		if ev.Type != model.EventPersonDetected {
			t.Errorf("expected %s event, got %s", model.EventPersonDetected, ev.Type)
		}
	}
}

func TestResetIdle_AfterPerson(t *testing.T) {
	m, hub := newTestMachine()

	m.PersonDetected()
	st := m.ResetIdle()

	if st.Presence {
		t.Fatal("presence must be false after reset")
	}
	if st.ResetCount != 1 || st.PersonCount != 1 {
		t.Fatalf("counts wrong: person=%d reset=%d", st.PersonCount, st.ResetCount)
	}
	if st.LastEvent != model.LastEventReset {
		t.Fatalf("last event must be reset, got %s", st.LastEvent)
	}
	last := hub.events[len(hub.events)-1]
	if last.Type != model.EventResetIdle {
		t.Fatalf("expected %s broadcast, got %s", model.EventResetIdle, last.Type)
	}
}

func TestQRScanned_Found(t *testing.T) {
	m, hub := newTestMachine()

	st, rec, found := m.QRScanned(context.Background(), "A123")

	if !found {
		t.Fatal("expected A123 to be found")
	}
	if rec.HN != "A123" || rec.Field("Name") != "Somchai" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if st.QRCount != 1 || st.LastEvent != model.LastEventQR {
		t.Fatalf("state wrong after qr: %+v", st)
	}
	ev := hub.events[len(hub.events)-1]
	if ev.Type != model.EventQRFound || ev.Patient == nil || ev.Patient.HN != "A123" {
		t.Fatalf("unexpected broadcast: %+v", ev)
	}
}

func TestQRScanned_NotFoundStillCounts(t *testing.T) {
	m, hub := newTestMachine()

	m.QRScanned(context.Background(), "A123")
	st, _, found := m.QRScanned(context.Background(), "ZZZZ")

	if found {
		t.Fatal("ZZZZ must not be found")
	}
	if st.QRCount != 2 {
		t.Fatalf("a miss still advances the counter, got %d", st.QRCount)
	}
	ev := hub.events[len(hub.events)-1]
	if ev.Type != model.EventQRNotFound || ev.HN != "ZZZZ" {
		t.Fatalf("unexpected broadcast: %+v", ev)
	}
	if m.LastHN() != "ZZZZ" {
		t.Fatalf("last hn must track the latest scan, got %q", m.LastHN())
	}
}

func TestCounterSumMatchesTriggerCalls(t *testing.T) {
	m, _ := newTestMachine()

	calls := 0
	for i := 0; i < 3; i++ {
		m.PersonDetected()
		calls++
	}
	for i := 0; i < 2; i++ {
		m.QRScanned(context.Background(), "A123")
		calls++
	}
	m.ResetIdle()
	calls++

	st := m.Snapshot()
	sum := st.PersonCount + st.ResetCount + st.QRCount
	if sum != int64(calls) {
		t.Fatalf("counter sum %d != %d trigger calls", sum, calls)
	}
}

func TestSnapshotReportsClientCount(t *testing.T) {
	hub := &fakeHub{count: 3}
	m := New(&fakeDir{}, hub)

	if got := m.Snapshot().Clients; got != 3 {
		t.Fatalf("expected 3 clients, got %d", got)
	}
	if got := m.Snapshot().LastEvent; got != model.LastEventNone {
		t.Fatalf("initial last event must be none, got %s", got)
	}
}

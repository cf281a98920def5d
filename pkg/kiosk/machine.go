package kiosk

import (
	"context"
	"log"
	"sync"
	"time"

	"clinic-kiosk/pkg/model"
)

// Broadcaster fans an event out to every subscribed front end.
type Broadcaster interface {
	Broadcast(model.Event)
	Count() int
}

// Directory resolves hospital numbers to patient records.
type Directory interface {
	Lookup(ctx context.Context, hn string) (model.PatientRecord, error)
}

// Machine tracks kiosk presence and per-event counters. Every trigger is
// valid in every state: transitions are idempotent and unconditional, so a
// noisy upstream detector that re-signals is counted, not rejected.
// Debounce belongs to the detector, not here.
type Machine struct {
	mu     sync.Mutex
	state  model.KioskState
	lastHN string

	dir Directory
	hub Broadcaster
}

func New(dir Directory, hub Broadcaster) *Machine {
	return &Machine{
		state: model.KioskState{LastEvent: model.LastEventNone},
		dir:   dir,
		hub:   hub,
	}
}

// PersonDetected marks the kiosk ACTIVE and broadcasts person_detected.
// Returns the post-transition state.
func (m *Machine) PersonDetected() model.KioskState {
	m.mu.Lock()
	m.state.Presence = true
	m.state.PersonCount++
	m.state.LastEvent = model.LastEventPerson
	m.state.UpdatedAt = time.Now()
	st := m.state
	m.mu.Unlock()

	m.hub.Broadcast(model.Event{Type: model.EventPersonDetected})
	st.Clients = m.hub.Count()
	return st
}

// ResetIdle marks the kiosk IDLE and broadcasts reset_idle.
func (m *Machine) ResetIdle() model.KioskState {
	m.mu.Lock()
	m.state.Presence = false
	m.state.ResetCount++
	m.state.LastEvent = model.LastEventReset
	m.state.UpdatedAt = time.Now()
	st := m.state
	m.mu.Unlock()

	m.hub.Broadcast(model.Event{Type: model.EventResetIdle})
	st.Clients = m.hub.Count()
	return st
}

// QRScanned counts the scan, looks the identifier up and broadcasts either
// qr_found with the record or qr_not_found with the raw identifier. A miss
// is a defined outcome, not an error; the counter advances either way.
func (m *Machine) QRScanned(ctx context.Context, hn string) (model.KioskState, model.PatientRecord, bool) {
	m.mu.Lock()
	m.state.QRCount++
	m.state.LastEvent = model.LastEventQR
	m.state.UpdatedAt = time.Now()
	m.lastHN = hn
	st := m.state
	m.mu.Unlock()

	rec, err := m.dir.Lookup(ctx, hn)
	if err != nil {
		log.Printf("qr scan hn=%s: not found", hn)
		m.hub.Broadcast(model.Event{Type: model.EventQRNotFound, HN: hn})
		st.Clients = m.hub.Count()
		return st, model.PatientRecord{}, false
	}
	m.hub.Broadcast(model.Event{Type: model.EventQRFound, Patient: &rec})
	st.Clients = m.hub.Count()
	return st, rec, true
}

// Snapshot returns the current state for diagnostics.
func (m *Machine) Snapshot() model.KioskState {
	m.mu.Lock()
	st := m.state
	m.mu.Unlock()
	st.Clients = m.hub.Count()
	return st
}

// LastHN reports the most recently scanned identifier, "" if none.
func (m *Machine) LastHN() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastHN
}

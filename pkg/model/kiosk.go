package model

import "time"

// Last-event markers for KioskState.
const (
	LastEventNone   = "none"
	LastEventPerson = "person"
	LastEventReset  = "reset"
	LastEventQR     = "qr"
)

// KioskState is the process-wide kiosk status. Presence flips between
// IDLE (false) and ACTIVE (true); counters only ever grow.
type KioskState struct {
	Presence    bool      `json:"presence"`
	PersonCount int64     `json:"personCount"`
	ResetCount  int64     `json:"resetCount"`
	QRCount     int64     `json:"qrCount"`
	LastEvent   string    `json:"lastEvent"`
	Clients     int       `json:"clients"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

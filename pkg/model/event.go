package model

// Event types pushed over /ws/events.
const (
	EventPersonDetected = "person_detected"
	EventResetIdle      = "reset_idle"
	EventQRFound        = "qr_found"
	EventQRNotFound     = "qr_not_found"
)

// Event is the envelope broadcast to every subscribed front end.
type Event struct {
	Type    string         `json:"type"`
	HN      string         `json:"hn,omitempty"`
	Patient *PatientRecord `json:"patient,omitempty"`
}

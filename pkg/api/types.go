package api

import (
	"clinic-kiosk/pkg/directory"
	"clinic-kiosk/pkg/model"
)

// TriggerResponse is returned by every mutating trigger call so the
// detector can observe the post-transition state without a second query.
type TriggerResponse struct {
	OK    bool             `json:"ok"`
	State model.KioskState `json:"state"`
}

// QRResponse carries the lookup outcome for a scanned identifier.
type QRResponse struct {
	OK      bool                 `json:"ok"`
	Found   bool                 `json:"found"`
	Patient *model.PatientRecord `json:"patient,omitempty"`
	HN      string               `json:"hn,omitempty"`
	State   model.KioskState     `json:"state"`
}

type PatientResponse struct {
	OK      bool                 `json:"ok"`
	Found   bool                 `json:"found"`
	Patient *model.PatientRecord `json:"patient,omitempty"`
	HN      string               `json:"hn,omitempty"`
}

// QuestionResponse carries a station-appropriate rating prompt.
type QuestionResponse struct {
	OK       bool            `json:"ok"`
	Found    bool            `json:"found"`
	Question *model.Question `json:"question,omitempty"`
	Text     string          `json:"text,omitempty"`
}

// StateResponse is the diagnostics snapshot behind GET /api/state.
type StateResponse struct {
	OK        bool             `json:"ok"`
	State     model.KioskState `json:"state"`
	Directory directory.Stats  `json:"directory"`
	Version   string           `json:"version"`
}

// SessionRequest is the rating-screen payload from the front end.
type SessionRequest struct {
	HN       string `json:"hn"`
	Station  string `json:"station"`
	Question string `json:"question"`
	Rating   int    `json:"rating"`
	Comment  string `json:"comment"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

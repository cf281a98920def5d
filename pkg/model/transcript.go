package model

import "time"

// TranscriptEntry is one finalized utterance from a speech session.
type TranscriptEntry struct {
	SessionID string    `json:"sessionId"`
	Text      string    `json:"text"`
	Seconds   float64   `json:"seconds"` // audio duration behind the utterance
	CreatedAt time.Time `json:"createdAt"`
}

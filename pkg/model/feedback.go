package model

import "time"

// FeedbackEntry is one visitor feedback session saved from the kiosk
// rating screen.
type FeedbackEntry struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	HN        string    `gorm:"size:32;index" json:"hn"`
	Station   string    `gorm:"size:64" json:"station"`
	Question  string    `json:"question"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

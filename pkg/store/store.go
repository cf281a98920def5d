package store

import "clinic-kiosk/pkg/model"

// SessionStore persists kiosk feedback sessions and admin users.
// The memory implementation serves dev/demo setups; MySQL is the
// production backend.
type SessionStore interface {
	SaveFeedback(model.FeedbackEntry) error
	ListFeedback(limit int) ([]model.FeedbackEntry, error)
	CreateUser(model.User) (model.User, error)
	GetUserByUsername(username string) (model.User, bool, error)
	CountUsers() (int64, error)
	Ping() error
}

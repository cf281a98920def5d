package store

import (
	"sync"
	"time"

	"clinic-kiosk/pkg/model"
)

// MemoryStore is a simple in-memory implementation, intended for dev/demo.
type MemoryStore struct {
	mu       sync.RWMutex
	feedback []model.FeedbackEntry
	users    map[string]model.User
	nextUID  uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]model.User),
		nextUID: 1,
	}
}

func (m *MemoryStore) SaveFeedback(e model.FeedbackEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	m.feedback = append(m.feedback, e)
	return nil
}

// ListFeedback returns the most recent entries, oldest first.
func (m *MemoryStore) ListFeedback(limit int) ([]model.FeedbackEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 || limit > len(m.feedback) {
		limit = len(m.feedback)
	}
	start := len(m.feedback) - limit
	out := make([]model.FeedbackEntry, 0, limit)
	for i := start; i < len(m.feedback); i++ {
		out = append(out, m.feedback[i])
	}
	return out, nil
}

func (m *MemoryStore) CreateUser(u model.User) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextUID
	m.nextUID++
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	m.users[u.Username] = u
	return u, nil
}

func (m *MemoryStore) GetUserByUsername(username string) (model.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	return u, ok, nil
}

func (m *MemoryStore) CountUsers() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.users)), nil
}

// Ping reports readiness for health/info endpoints.
func (m *MemoryStore) Ping() error { return nil }

package directory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"clinic-kiosk/pkg/model"
)

// ErrNoQuestion means the bank has no usable question for the station.
var ErrNoQuestion = errors.New("no question for station")

// QuestionSource fetches the station questions tab.
type QuestionSource interface {
	ID() string
	Fetch(ctx context.Context) ([]model.Question, error)
}

// QuestionCSVSource reads questions from a CSV export URL with columns
// Status, Question_th and Question_en.
type QuestionCSVSource struct {
	URL    string
	Client *http.Client
}

func NewQuestionCSVSource(url string, timeout time.Duration) *QuestionCSVSource {
	return &QuestionCSVSource{
		URL:    url,
		Client: &http.Client{Timeout: timeout},
	}
}

func (s *QuestionCSVSource) ID() string { return s.URL }

func (s *QuestionCSVSource) Fetch(ctx context.Context) ([]model.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch questions: unexpected status %d", resp.StatusCode)
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("parse questions: no header row")
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]model.Question, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, model.Question{
			Station: cell(row, "Status"),
			TH:      cell(row, "Question_th"),
			EN:      cell(row, "Question_en"),
		})
	}
	return out, nil
}

// QuestionBank caches the questions tab with the same lazy TTL and
// serve-stale policy as the patient cache, and hands out a random
// station-appropriate question for the rating screen.
type QuestionBank struct {
	src  QuestionSource
	ttl  time.Duration
	now  func() time.Time
	pick func(n int) int

	mu        sync.RWMutex // guards questions, fetchedAt, lastErr
	questions []model.Question
	fetchedAt time.Time
	lastErr   error

	fetchMu sync.Mutex
}

func NewQuestionBank(src QuestionSource, ttl time.Duration) *QuestionBank {
	return &QuestionBank{src: src, ttl: ttl, now: time.Now, pick: rand.Intn}
}

// Random returns a random question for the station, matching the station
// column case-insensitively; an empty station matches every row. Rows
// with no prompt in either language are skipped.
func (b *QuestionBank) Random(ctx context.Context, station string) (model.Question, error) {
	b.refreshIfStale(ctx)

	b.mu.RLock()
	qs := b.questions
	b.mu.RUnlock()

	want := strings.ToLower(strings.TrimSpace(station))
	pool := make([]model.Question, 0, len(qs))
	for _, q := range qs {
		if want != "" && strings.ToLower(q.Station) != want {
			continue
		}
		if q.TH == "" && q.EN == "" {
			continue
		}
		pool = append(pool, q)
	}
	if len(pool) == 0 {
		return model.Question{}, ErrNoQuestion
	}
	return pool[b.pick(len(pool))], nil
}

func (b *QuestionBank) refreshIfStale(ctx context.Context) {
	if b.fresh() {
		return
	}
	b.mu.RLock()
	hasData := !b.fetchedAt.IsZero()
	b.mu.RUnlock()
	if hasData {
		// same single-flight skip as the patient cache: keep serving
		// the loaded questions while one caller refreshes
		if !b.fetchMu.TryLock() {
			return
		}
	} else {
		b.fetchMu.Lock()
	}
	defer b.fetchMu.Unlock()
	if b.fresh() {
		return
	}
	b.fetch(ctx)
}

func (b *QuestionBank) fresh() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.fetchedAt.IsZero() && b.now().Sub(b.fetchedAt) <= b.ttl
}

func (b *QuestionBank) fetch(ctx context.Context) {
	qs, err := b.src.Fetch(ctx)
	if err != nil {
		b.mu.Lock()
		b.lastErr = err
		stale := !b.fetchedAt.IsZero()
		b.mu.Unlock()
		log.Printf("questions fetch failed (stale=%v): %v", stale, err)
		return
	}
	b.mu.Lock()
	b.questions = qs
	b.fetchedAt = b.now()
	b.lastErr = nil
	b.mu.Unlock()
	log.Printf("questions refreshed: %d rows from %s", len(qs), b.src.ID())
}

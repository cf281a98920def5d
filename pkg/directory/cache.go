package directory

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"clinic-kiosk/pkg/model"
)

// ErrNotFound means the identifier is absent from the current snapshot,
// or no fetch has ever succeeded.
var ErrNotFound = errors.New("patient not found")

// Cache holds at most one DirectorySnapshot and refreshes it lazily on a
// TTL. A failed refresh keeps the previous snapshot and records the error;
// the cache keeps serving stale data rather than going empty.
type Cache struct {
	src Source
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex // guards snap, lastErr
	snap    *model.DirectorySnapshot
	lastErr error

	fetchMu sync.Mutex // serializes refreshes; lookups keep reading the old snapshot meanwhile
}

func NewCache(src Source, ttl time.Duration) *Cache {
	return &Cache{src: src, ttl: ttl, now: time.Now}
}

// Stats is a read-only view for the state/diagnostics endpoint.
type Stats struct {
	Records   int       `json:"records"`
	FetchedAt time.Time `json:"fetchedAt,omitempty"`
	SourceID  string    `json:"sourceId,omitempty"`
	LastError string    `json:"lastError,omitempty"`
}

// Lookup resolves an identifier against the current snapshot, refreshing
// first if the snapshot is missing or older than the TTL. Matching is
// exact post-normalization equality; the first match wins.
func (c *Cache) Lookup(ctx context.Context, hn string) (model.PatientRecord, error) {
	c.refreshIfStale(ctx)

	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()
	if snap == nil {
		return model.PatientRecord{}, ErrNotFound
	}

	want := strings.TrimSpace(hn)
	for _, rec := range snap.Records {
		if rec.HN == want {
			return rec, nil
		}
	}
	return model.PatientRecord{}, ErrNotFound
}

// Refresh forces (or, with force=false, opportunistically performs) a
// re-fetch. The error reports a failed fetch; the previous snapshot stays.
func (c *Cache) Refresh(ctx context.Context, force bool) error {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()
	if !force && c.fresh() {
		return nil
	}
	return c.fetch(ctx)
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := Stats{}
	if c.snap != nil {
		st.Records = len(c.snap.Records)
		st.FetchedAt = c.snap.FetchedAt
		st.SourceID = c.snap.SourceID
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

func (c *Cache) refreshIfStale(ctx context.Context) {
	if c.fresh() {
		return
	}
	c.mu.RLock()
	hasSnap := c.snap != nil
	c.mu.RUnlock()
	if hasSnap {
		// Single-flight: while another caller is already fetching, keep
		// serving the existing snapshot instead of queueing behind it.
		if !c.fetchMu.TryLock() {
			return
		}
	} else {
		// No snapshot yet, so there is nothing stale to serve; wait.
		c.fetchMu.Lock()
	}
	defer c.fetchMu.Unlock()
	if c.fresh() {
		return
	}
	// The caller that crosses the TTL boundary pays the fetch latency.
	_ = c.fetch(ctx)
}

func (c *Cache) fresh() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap != nil && c.now().Sub(c.snap.FetchedAt) <= c.ttl
}

// fetch runs outside the read lock so concurrent lookups keep serving the
// old snapshot; the replacement is installed atomically.
func (c *Cache) fetch(ctx context.Context) error {
	recs, err := c.src.Fetch(ctx)
	if err != nil {
		c.mu.Lock()
		c.lastErr = err
		stale := c.snap != nil
		c.mu.Unlock()
		log.Printf("directory fetch failed (stale=%v): %v", stale, err)
		return err
	}
	snap := &model.DirectorySnapshot{
		Records:   recs,
		FetchedAt: c.now(),
		SourceID:  c.src.ID(),
	}
	c.mu.Lock()
	c.snap = snap
	c.lastErr = nil
	c.mu.Unlock()
	log.Printf("directory refreshed: %d records from %s", len(recs), snap.SourceID)
	return nil
}

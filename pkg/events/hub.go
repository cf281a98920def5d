package events

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"clinic-kiosk/pkg/model"
)

// writeWait bounds how long a single event write may stall on a slow
// client before it counts as a delivery failure.
const writeWait = 5 * time.Second

// Conn is the subset of *websocket.Conn the hub writes to. Kept small so
// the state-machine tests can subscribe fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Hub owns the set of open front-end push channels and fans events out to
// all of them. A connection whose write fails is dropped as part of the
// same broadcast; one bad socket never aborts delivery to the others.
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	subs     map[Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: map[Conn]struct{}{},
	}
}

func (h *Hub) Subscribe(c Conn) {
	h.mu.Lock()
	h.subs[c] = struct{}{}
	h.mu.Unlock()
}

// Unsubscribe is idempotent; removing an unknown connection is a no-op.
func (h *Hub) Unsubscribe(c Conn) {
	h.mu.Lock()
	_, ok := h.subs[c]
	delete(h.subs, c)
	h.mu.Unlock()
	if ok {
		_ = c.Close()
	}
}

// Broadcast delivers ev to every current subscriber, at most once each,
// in no particular order. Fire-and-forget: the caller never learns which
// subscribers received it. The mutex also serializes writes, since a
// websocket conn allows only one concurrent writer; the write deadline
// keeps a full TCP buffer from stalling the fan-out, a timed-out write
// is a delivery failure like any other.
func (h *Hub) Broadcast(ev model.Event) {
	h.mu.Lock()
	var failed []Conn
	for c := range h.subs {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteJSON(ev); err != nil {
			log.Printf("event send failed, dropping subscriber: %v", err)
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		delete(h.subs, c)
	}
	h.mu.Unlock()

	for _, c := range failed {
		_ = c.Close()
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeWS upgrades an HTTP request to a websocket subscription. Inbound
// frames are keepalives and are drained; a read error unsubscribes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	h.Subscribe(c)
	log.Printf("event subscriber connected: %s (total=%d)", r.RemoteAddr, h.Count())
	go h.readLoop(c)
}

func (h *Hub) readLoop(c *websocket.Conn) {
	defer func() {
		h.Unsubscribe(c)
		log.Printf("event subscriber disconnected (total=%d)", h.Count())
	}()
	for {
		if _, _, err := c.NextReader(); err != nil {
			return
		}
	}
}

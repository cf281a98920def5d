package speech

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"clinic-kiosk/pkg/config"
	"clinic-kiosk/pkg/model"
)

// sender is the outbound half of a session's websocket; tests use fakes.
type sender interface {
	WriteJSON(v interface{}) error
}

type partialMessage struct {
	Type   string `json:"type"`
	Result struct {
		Partial string `json:"partial"`
	} `json:"result"`
}

type finalMessage struct {
	Type   string `json:"type"`
	Result struct {
		Text string `json:"text"`
	} `json:"result"`
}

// Session drives one streaming speech connection: binary frames carry
// 16-bit PCM, the text frame "flush" forces a final decode. Partials go
// out on a decode cadence and only when the text changed.
type Session struct {
	ID   string
	buf  *Buffer
	tr   Transcriber
	sink Sink
	cfg  config.SpeechConfig

	lastDecode time.Time
	now        func() time.Time
}

func NewSession(tr Transcriber, sink Sink, cfg config.SpeechConfig) *Session {
	return &Session{
		ID:   uuid.NewString(),
		buf:  NewBuffer(cfg.SampleRate, cfg.MaxContextSec),
		tr:   tr,
		sink: sink,
		cfg:  cfg,
		now:  time.Now,
	}
}

// HandleAudio appends a PCM frame and, when the decode cadence allows,
// runs a partial decode. Segments the model considers finished (all but
// the trailing one) are finalized early: logged to the sink and cut out
// of the buffer so the context window stays short.
func (s *Session) HandleAudio(ctx context.Context, pcm []byte, out sender) {
	s.buf.AppendPCM16(pcm)

	interval := time.Duration(s.cfg.DecodeIntervalMs) * time.Millisecond
	if s.now().Sub(s.lastDecode) < interval || s.buf.Seconds() < s.cfg.MinDecodeSec {
		return
	}
	s.lastDecode = s.now()

	segs, err := s.tr.Transcribe(ctx, s.buf.Samples(), Options{
		Language:  s.cfg.Language,
		BeamSize:  1,
		Condition: true,
	})
	if err != nil {
		log.Printf("partial decode failed session=%s: %v", s.ID, err)
		return
	}

	if len(segs) > 1 {
		done := segs[:len(segs)-1]
		s.finalize(done)
		s.buf.CutAt(done[len(done)-1].End)
		segs = segs[len(segs)-1:]
	}

	text := JoinText(segs)
	if !s.buf.ShouldEmit(text) {
		return
	}
	var msg partialMessage
	msg.Type = "partial"
	msg.Result.Partial = text
	if err := out.WriteJSON(msg); err != nil {
		log.Printf("partial send failed session=%s: %v", s.ID, err)
	}
}

// Flush runs a final decode over the whole buffer, emits the result and
// resets all session state.
func (s *Session) Flush(ctx context.Context, out sender) {
	if s.buf.Seconds() > 0 {
		segs, err := s.tr.Transcribe(ctx, s.buf.Samples(), Options{
			Language:  s.cfg.Language,
			BeamSize:  5,
			Condition: false,
		})
		if err != nil {
			log.Printf("final decode failed session=%s: %v", s.ID, err)
		} else {
			s.finalize(segs)
			var msg finalMessage
			msg.Type = "final"
			msg.Result.Text = JoinText(segs)
			if err := out.WriteJSON(msg); err != nil {
				log.Printf("final send failed session=%s: %v", s.ID, err)
			}
		}
	}
	s.buf.Reset()
}

func (s *Session) finalize(segs []Segment) {
	text := JoinText(segs)
	if text == "" || s.sink == nil {
		return
	}
	seconds := 0.0
	if n := len(segs); n > 0 {
		seconds = segs[n-1].End - segs[0].Start
	}
	_ = s.sink.Append(model.TranscriptEntry{
		SessionID: s.ID,
		Text:      text,
		Seconds:   seconds,
		CreatedAt: time.Now(),
	})
}

// Handler upgrades websocket speech sessions at /ws.
type Handler struct {
	Transcriber Transcriber
	Sink        Sink
	Config      config.SpeechConfig

	upgrader websocket.Upgrader
}

func NewHandler(tr Transcriber, sink Sink, cfg config.SpeechConfig) *Handler {
	return &Handler{
		Transcriber: tr,
		Sink:        sink,
		Config:      cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("speech ws upgrade failed: %v", err)
		return
	}
	defer c.Close()

	sess := NewSession(h.Transcriber, h.Sink, h.Config)
	log.Printf("speech session connected id=%s remote=%s", sess.ID, r.RemoteAddr)
	defer log.Printf("speech session closed id=%s", sess.ID)

	for {
		mt, data, err := c.ReadMessage()
		if err != nil {
			return
		}
		switch mt {
		case websocket.BinaryMessage:
			sess.HandleAudio(r.Context(), data, c)
		case websocket.TextMessage:
			if strings.EqualFold(strings.TrimSpace(string(data)), "flush") {
				sess.Flush(r.Context(), c)
			}
		}
	}
}

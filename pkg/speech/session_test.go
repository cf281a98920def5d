package speech

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"clinic-kiosk/pkg/config"
	"clinic-kiosk/pkg/model"
)

type fakeTranscriber struct {
	segs  []Segment
	err   error
	calls int
	opts  []Options
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []float32, opts Options) ([]Segment, error) {
	f.calls++
	f.opts = append(f.opts, opts)
	return f.segs, f.err
}

type fakeSender struct {
	sent []string
}

func (f *fakeSender) WriteJSON(v interface{}) error {
	b, _ := json.Marshal(v)
	f.sent = append(f.sent, string(b))
	return nil
}

type fakeSink struct {
	entries []model.TranscriptEntry
}

func (f *fakeSink) Append(e model.TranscriptEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func testCfg() config.SpeechConfig {
	cfg := config.Config{}
	config.Normalize(&cfg)
	return cfg.Speech
}

func newTestSession(tr Transcriber, sink Sink) *Session {
	s := NewSession(tr, sink, testCfg())
	// cadence gate open from the start
	s.now = func() time.Time { return s.lastDecode.Add(time.Hour) }
	return s
}

func TestHandleAudio_EmitsPartialOnce(t *testing.T) {
	tr := &fakeTranscriber{segs: []Segment{{Text: "hello", Start: 0, End: 1}}}
	out := &fakeSender{}
	s := newTestSession(tr, nil)

	s.HandleAudio(context.Background(), pcmOf(16000), out)
	s.HandleAudio(context.Background(), pcmOf(16000), out)

	if tr.calls != 2 {
		t.Fatalf("expected 2 decodes, got %d", tr.calls)
	}
	// identical partial text goes out only once
	if len(out.sent) != 1 {
		t.Fatalf("expected 1 partial, got %d: %v", len(out.sent), out.sent)
	}
	var msg partialMessage
	if err := json.Unmarshal([]byte(out.sent[0]), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "partial" || msg.Result.Partial != "hello" {
		t.Fatalf("unexpected message: %s", out.sent[0])
	}
}

func TestHandleAudio_SkipsBelowMinDuration(t *testing.T) {
	tr := &fakeTranscriber{segs: []Segment{{Text: "x"}}}
	s := newTestSession(tr, nil)

	s.HandleAudio(context.Background(), pcmOf(160), &fakeSender{}) // 0.01s < 0.1s minimum
	if tr.calls != 0 {
		t.Fatalf("decode must wait for the minimum duration, calls=%d", tr.calls)
	}
}

func TestHandleAudio_RespectsDecodeCadence(t *testing.T) {
	tr := &fakeTranscriber{segs: []Segment{{Text: "x", End: 1}}}
	s := NewSession(tr, nil, testCfg())
	base := time.Now()
	s.lastDecode = base
	s.now = func() time.Time { return base.Add(100 * time.Millisecond) } // < 300ms interval

	s.HandleAudio(context.Background(), pcmOf(16000), &fakeSender{})
	if tr.calls != 0 {
		t.Fatalf("decode within the cadence window must be skipped, calls=%d", tr.calls)
	}
}

func TestHandleAudio_FinalizesCompletedSegments(t *testing.T) {
	tr := &fakeTranscriber{segs: []Segment{
		{Text: "first utterance", Start: 0, End: 2},
		{Text: "second", Start: 2, End: 3},
	}}
	out := &fakeSender{}
	sink := &fakeSink{}
	s := newTestSession(tr, sink)

	s.HandleAudio(context.Background(), pcmOf(16000*4), out)

	// all but the trailing segment are finalized to the sink
	if len(sink.entries) != 1 || sink.entries[0].Text != "first utterance" {
		t.Fatalf("unexpected sink entries: %+v", sink.entries)
	}
	// buffer cut at the finalized segment's end: 4s buffered - 2s cut
	if got := s.buf.Seconds(); got != 2.0 {
		t.Fatalf("buffer seconds after cut=%v", got)
	}
	// the partial carries only the trailing segment
	var msg partialMessage
	if err := json.Unmarshal([]byte(out.sent[0]), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Result.Partial != "second" {
		t.Fatalf("partial=%q", msg.Result.Partial)
	}
}

func TestFlush_EmitsFinalAndResets(t *testing.T) {
	tr := &fakeTranscriber{segs: []Segment{{Text: "goodbye", Start: 0, End: 1.5}}}
	out := &fakeSender{}
	sink := &fakeSink{}
	s := newTestSession(tr, sink)

	s.buf.AppendPCM16(pcmOf(16000))
	s.buf.ShouldEmit("goodbye") // pretend a partial already went out
	s.Flush(context.Background(), out)

	var msg finalMessage
	if err := json.Unmarshal([]byte(out.sent[0]), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "final" || msg.Result.Text != "goodbye" {
		t.Fatalf("unexpected final: %s", out.sent[0])
	}
	if len(sink.entries) != 1 || sink.entries[0].Text != "goodbye" {
		t.Fatalf("final must be logged to the sink: %+v", sink.entries)
	}
	if s.buf.Seconds() != 0 {
		t.Fatal("flush must clear the buffer")
	}
	// de-dup state reset: the same text emits again next round
	if !s.buf.ShouldEmit("goodbye") {
		t.Fatal("flush must reset partial de-dup state")
	}

	// final decode uses wider beam without conditioning
	last := tr.opts[len(tr.opts)-1]
	if last.BeamSize != 5 || last.Condition {
		t.Fatalf("unexpected final decode options: %+v", last)
	}
}

func TestFlush_EmptyBufferIsQuiet(t *testing.T) {
	tr := &fakeTranscriber{}
	out := &fakeSender{}
	s := newTestSession(tr, nil)

	s.Flush(context.Background(), out)
	if tr.calls != 0 || len(out.sent) != 0 {
		t.Fatalf("empty flush must not decode or send: calls=%d sent=%d", tr.calls, len(out.sent))
	}
}

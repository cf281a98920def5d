package speech

import (
	"context"
	"strings"
)

// Segment is one decoded span of audio, timestamps in seconds relative to
// the start of the submitted buffer.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Options tune a single decode request.
type Options struct {
	Language  string // empty = autodetect
	BeamSize  int
	Condition bool // condition on previous text (partial decodes)
}

// Transcriber converts buffered PCM to text segments. The model itself is
// an external collaborator; implementations only carry the request.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, opts Options) ([]Segment, error)
}

// JoinText concatenates segment texts into a single trimmed utterance.
func JoinText(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		sb.WriteString(s.Text)
	}
	return strings.TrimSpace(sb.String())
}

package speech

import "encoding/binary"

// Buffer accumulates float32 PCM samples for one session, bounded to a
// trailing context window. It also owns the partial de-duplication state:
// the last partial text emitted, which resets whenever the buffer is cut.
type Buffer struct {
	sampleRate  int
	maxSamples  int
	samples     []float32
	lastPartial string
}

func NewBuffer(sampleRate int, maxContextSec float64) *Buffer {
	return &Buffer{
		sampleRate: sampleRate,
		maxSamples: int(maxContextSec * float64(sampleRate)),
	}
}

// AppendPCM16 converts little-endian 16-bit PCM to float32 and appends it,
// then trims the front so only the trailing window remains.
func (b *Buffer) AppendPCM16(pcm []byte) {
	n := len(pcm) / 2
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		b.samples = append(b.samples, float32(v)/32768.0)
	}
	if len(b.samples) > b.maxSamples {
		b.samples = b.samples[len(b.samples)-b.maxSamples:]
	}
}

func (b *Buffer) Samples() []float32 { return b.samples }

func (b *Buffer) Seconds() float64 {
	return float64(len(b.samples)) / float64(b.sampleRate)
}

// ShouldEmit reports whether a decoded partial is worth sending: non-empty
// and different from the previous emission. It records the text.
func (b *Buffer) ShouldEmit(text string) bool {
	if text == "" || text == b.lastPartial {
		return false
	}
	b.lastPartial = text
	return true
}

// CutAt drops audio before sec (the end timestamp of a finalized segment)
// and resets the partial de-dup state, since remaining audio decodes to
// different text from now on.
func (b *Buffer) CutAt(sec float64) {
	n := int(sec * float64(b.sampleRate))
	if n >= len(b.samples) {
		b.samples = b.samples[:0]
	} else if n > 0 {
		b.samples = b.samples[n:]
	}
	b.lastPartial = ""
}

// Reset clears all audio and de-dup state.
func (b *Buffer) Reset() {
	b.samples = b.samples[:0]
	b.lastPartial = ""
}

package speech

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// WhisperClient posts raw PCM to an external whisper-serving endpoint and
// reads back decoded segments. The model runs out of process; this is
// transport only.
type WhisperClient struct {
	URL        string
	SampleRate int
	Client     *http.Client
}

func NewWhisperClient(url string, sampleRate int) *WhisperClient {
	return &WhisperClient{
		URL:        url,
		SampleRate: sampleRate,
		Client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type whisperResponse struct {
	Segments []Segment `json:"segments"`
}

func (c *WhisperClient) Transcribe(ctx context.Context, samples []float32, opts Options) ([]Segment, error) {
	pcm := make([]byte, 2*len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(s*32767)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(pcm))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	q := req.URL.Query()
	q.Set("sample_rate", strconv.Itoa(c.SampleRate))
	if opts.Language != "" {
		q.Set("language", opts.Language)
	}
	if opts.BeamSize > 0 {
		q.Set("beam_size", strconv.Itoa(opts.BeamSize))
	}
	q.Set("condition", strconv.FormatBool(opts.Condition))
	req.URL.RawQuery = q.Encode()

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("transcribe: unexpected status %d", resp.StatusCode)
	}
	var out whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("transcribe: decode response: %w", err)
	}
	return out.Segments, nil
}

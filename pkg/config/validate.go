package config

import (
	"fmt"
	"strings"
)

// Validate rejects configurations that would misbehave at runtime.
// It assumes Normalize already ran.
func Validate(cfg Config) error {
	d := cfg.Kiosk.Directory
	if d.SourceURL != "" && !strings.HasPrefix(d.SourceURL, "http://") && !strings.HasPrefix(d.SourceURL, "https://") {
		return fmt.Errorf("directory source_url must be http(s), got %q", d.SourceURL)
	}
	if d.QuestionsURL != "" && !strings.HasPrefix(d.QuestionsURL, "http://") && !strings.HasPrefix(d.QuestionsURL, "https://") {
		return fmt.Errorf("directory questions_url must be http(s), got %q", d.QuestionsURL)
	}
	if d.TTLSeconds < 0 {
		return fmt.Errorf("directory ttl_seconds must be >= 0, got %d", d.TTLSeconds)
	}
	if d.FetchTimeoutMs < 0 {
		return fmt.Errorf("directory fetch_timeout_ms must be >= 0, got %d", d.FetchTimeoutMs)
	}
	if cfg.Kiosk.Consul.Enabled && cfg.Kiosk.Consul.Addr == "" {
		return fmt.Errorf("consul enabled but addr is empty")
	}

	s := cfg.Speech
	if s.SampleRate <= 0 {
		return fmt.Errorf("speech sample_rate must be > 0, got %d", s.SampleRate)
	}
	if s.DecodeIntervalMs <= 0 {
		return fmt.Errorf("speech decode_interval_ms must be > 0, got %d", s.DecodeIntervalMs)
	}
	if s.MaxContextSec <= 0 {
		return fmt.Errorf("speech max_context_seconds must be > 0, got %v", s.MaxContextSec)
	}
	if s.MinDecodeSec < 0 || s.MinDecodeSec > s.MaxContextSec {
		return fmt.Errorf("speech min_decode_seconds must be within [0, max_context_seconds], got %v", s.MinDecodeSec)
	}
	return nil
}

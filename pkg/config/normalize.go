package config

import "strings"

// Defaults match the original kiosk deployment.
const (
	DefaultAddr           = ":8000"
	DefaultSpeechAddr     = ":8001"
	DefaultIDColumn       = "HN"
	DefaultTTLSeconds     = 60
	DefaultFetchTimeoutMs = 10000

	DefaultSampleRate       = 16000
	DefaultDecodeIntervalMs = 300
	DefaultMaxContextSec    = 12.0
	DefaultMinDecodeSec     = 0.1
	DefaultTranscriptDB     = "transcripts.db"
)

// Normalize fills zero fields with defaults and trims incidental
// whitespace so Validate sees canonical values.
func Normalize(cfg *Config) {
	k := &cfg.Kiosk
	k.Addr = strings.TrimSpace(k.Addr)
	if k.Addr == "" {
		k.Addr = DefaultAddr
	}
	k.Directory.SourceURL = strings.TrimSpace(k.Directory.SourceURL)
	k.Directory.QuestionsURL = strings.TrimSpace(k.Directory.QuestionsURL)
	k.Directory.IDColumn = strings.TrimSpace(k.Directory.IDColumn)
	if k.Directory.IDColumn == "" {
		k.Directory.IDColumn = DefaultIDColumn
	}
	if k.Directory.TTLSeconds == 0 {
		k.Directory.TTLSeconds = DefaultTTLSeconds
	}
	if k.Directory.FetchTimeoutMs == 0 {
		k.Directory.FetchTimeoutMs = DefaultFetchTimeoutMs
	}
	if k.Consul.Service == "" {
		k.Consul.Service = "clinic-kiosk"
	}

	s := &cfg.Speech
	s.Addr = strings.TrimSpace(s.Addr)
	if s.Addr == "" {
		s.Addr = DefaultSpeechAddr
	}
	s.ModelURL = strings.TrimSpace(s.ModelURL)
	if s.SampleRate == 0 {
		s.SampleRate = DefaultSampleRate
	}
	if s.DecodeIntervalMs == 0 {
		s.DecodeIntervalMs = DefaultDecodeIntervalMs
	}
	if s.MaxContextSec == 0 {
		s.MaxContextSec = DefaultMaxContextSec
	}
	if s.MinDecodeSec == 0 {
		s.MinDecodeSec = DefaultMinDecodeSec
	}
	if s.TranscriptDB == "" {
		s.TranscriptDB = DefaultTranscriptDB
	}
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Kiosk  KioskConfig  `yaml:"kiosk"`
	Speech SpeechConfig `yaml:"speech"`
}

// ---- KIOSK BACKEND ----

type KioskConfig struct {
	Addr      string          `yaml:"addr"`
	Directory DirectoryConfig `yaml:"directory"`
	Consul    ConsulConfig    `yaml:"consul"`
}

type DirectoryConfig struct {
	SourceURL      string `yaml:"source_url"`
	QuestionsURL   string `yaml:"questions_url"`
	IDColumn       string `yaml:"id_column"`
	TTLSeconds     int    `yaml:"ttl_seconds"`
	FetchTimeoutMs int    `yaml:"fetch_timeout_ms"`
}

type ConsulConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Service string `yaml:"service"`
}

// ---- SPEECH GATEWAY ----

type SpeechConfig struct {
	Addr             string  `yaml:"addr"`
	ModelURL         string  `yaml:"model_url"`
	SampleRate       int     `yaml:"sample_rate"`
	DecodeIntervalMs int     `yaml:"decode_interval_ms"`
	MaxContextSec    float64 `yaml:"max_context_seconds"`
	MinDecodeSec     float64 `yaml:"min_decode_seconds"`
	Language         string  `yaml:"language"` // empty = autodetect
	TranscriptDB     string  `yaml:"transcript_db"`
}

// Load reads, normalizes and validates a yaml config file. A missing path
// yields defaults only.
func Load(path string) (Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	Normalize(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"clinic-kiosk/pkg/config"
	"clinic-kiosk/pkg/speech"
	"clinic-kiosk/pkg/version"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	addr := flag.String("addr", "", "listen address (overrides config)")
	configPath := flag.String("config", os.Getenv("KIOSK_CONFIG"), "yaml config path")
	modelURL := flag.String("model-url", os.Getenv("WHISPER_URL"), "whisper endpoint URL (env WHISPER_URL)")
	dbPath := flag.String("db", "", "transcript sqlite path (overrides config)")
	showVersion := flag.Bool("v", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		log.Printf("speechd version=%s", version.Build)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Speech.Addr = *addr
	}
	if *modelURL != "" {
		cfg.Speech.ModelURL = *modelURL
	}
	if *dbPath != "" {
		cfg.Speech.TranscriptDB = *dbPath
	}
	if cfg.Speech.ModelURL == "" {
		log.Fatalf("no model endpoint configured; set -model-url, WHISPER_URL or speech.model_url")
	}

	sink, err := speech.OpenSQLiteSink(cfg.Speech.TranscriptDB)
	if err != nil {
		log.Fatalf("transcript sink: %v", err)
	}
	defer sink.Close()

	tr := speech.NewWhisperClient(cfg.Speech.ModelURL, cfg.Speech.SampleRate)
	handler := speech.NewHandler(tr, sink, cfg.Speech)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"ws":"/ws"}`))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/ws", handler)

	srv := &http.Server{
		Addr:              cfg.Speech.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("speech gateway listening on %s (model=%s)", cfg.Speech.Addr, cfg.Speech.ModelURL)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

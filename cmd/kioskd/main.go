package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"clinic-kiosk/pkg/api"
	"clinic-kiosk/pkg/config"
	"clinic-kiosk/pkg/directory"
	"clinic-kiosk/pkg/discovery"
	"clinic-kiosk/pkg/events"
	"clinic-kiosk/pkg/kiosk"
	"clinic-kiosk/pkg/store"
	"clinic-kiosk/pkg/version"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	defaultSource := os.Getenv("PATIENT_SHEET_URL")

	addr := flag.String("addr", "", "listen address (overrides config)")
	configPath := flag.String("config", os.Getenv("KIOSK_CONFIG"), "yaml config path")
	sourceURL := flag.String("source", defaultSource, "patient table CSV export URL (env PATIENT_SHEET_URL)")
	questionsURL := flag.String("questions", os.Getenv("QUESTION_SHEET_URL"), "question table CSV export URL (env QUESTION_SHEET_URL)")
	storeType := flag.String("store", "memory", "session store backend: memory|mysql")
	kioskID := flag.String("id", "kiosk-1", "kiosk id for consul registration")
	showVersion := flag.Bool("v", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		log.Printf("kioskd version=%s", version.Build)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.Kiosk.Addr = *addr
	}
	if *sourceURL != "" {
		cfg.Kiosk.Directory.SourceURL = *sourceURL
	}
	if *questionsURL != "" {
		cfg.Kiosk.Directory.QuestionsURL = *questionsURL
	}
	if cfg.Kiosk.Directory.SourceURL == "" {
		log.Fatalf("no patient source configured; set -source, PATIENT_SHEET_URL or directory.source_url")
	}

	var sessions store.SessionStore
	switch *storeType {
	case "mysql":
		gs, err := store.OpenMySQL()
		if err != nil {
			log.Fatalf("mysql store: %v", err)
		}
		sessions = gs
	case "memory":
		sessions = store.NewMemoryStore()
	default:
		log.Fatalf("unsupported store type: %s", *storeType)
	}

	src := directory.NewCSVSource(
		cfg.Kiosk.Directory.SourceURL,
		cfg.Kiosk.Directory.IDColumn,
		time.Duration(cfg.Kiosk.Directory.FetchTimeoutMs)*time.Millisecond,
	)
	dir := directory.NewCache(src, time.Duration(cfg.Kiosk.Directory.TTLSeconds)*time.Second)

	var questions *directory.QuestionBank
	if cfg.Kiosk.Directory.QuestionsURL != "" {
		qsrc := directory.NewQuestionCSVSource(
			cfg.Kiosk.Directory.QuestionsURL,
			time.Duration(cfg.Kiosk.Directory.FetchTimeoutMs)*time.Millisecond,
		)
		questions = directory.NewQuestionBank(qsrc, time.Duration(cfg.Kiosk.Directory.TTLSeconds)*time.Second)
	}

	hub := events.NewHub()
	machine := kiosk.New(dir, hub)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, machine, dir, sessions, hub, questions)
	authHandler := &api.AuthHandler{Store: sessions}
	authHandler.RegisterRoutes(mux)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// warm the directory; a failed first fetch is non-fatal, lookups
	// report not-found until a refresh succeeds
	if err := dir.Refresh(ctx, true); err != nil {
		log.Printf("initial directory fetch failed: %v", err)
	}

	if cfg.Kiosk.Consul.Enabled {
		if err := discovery.Register(ctx, cfg.Kiosk.Consul.Addr, cfg.Kiosk.Consul.Service, *kioskID, portOf(cfg.Kiosk.Addr)); err != nil {
			log.Printf("consul registration failed: %v", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Kiosk.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("kiosk backend listening on %s (store=%s)", cfg.Kiosk.Addr, *storeType)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func portOf(addr string) int {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return 0
	}
	p, _ := strconv.Atoi(port)
	return p
}

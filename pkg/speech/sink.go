package speech

import (
	"context"
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"clinic-kiosk/pkg/model"
)

// Sink receives finalized utterances.
type Sink interface {
	Append(model.TranscriptEntry) error
}

// SQLiteSink logs transcripts to a local sqlite file. Writes are
// best-effort: a failed append must not take the session down.
type SQLiteSink struct {
	db *sql.DB
}

func OpenSQLiteSink(path string) (*SQLiteSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := "file:" + path + "?_pragma=busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS transcripts(session_id TEXT, text TEXT, seconds REAL, ts INTEGER); CREATE INDEX IF NOT EXISTS idx_transcripts_session ON transcripts(session_id);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Append(e model.TranscriptEntry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ts := e.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO transcripts(session_id, text, seconds, ts) VALUES(?,?,?,?)`,
		e.SessionID, e.Text, e.Seconds, ts.Unix())
	if err != nil {
		log.Printf("transcript append failed session=%s: %v", e.SessionID, err)
	}
	return err
}

func (s *SQLiteSink) Close() error { return s.db.Close() }

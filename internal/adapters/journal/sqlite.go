// Package journal persists session lifecycle events to SQLite. The journal
// is an audit trail only; the broker never reads state back from it.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkeye/RemoteDesk/internal/core"
	"github.com/dkeye/RemoteDesk/internal/domain"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const defaultRecent = 50

type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database file (and its directory) if needed and runs migrations.
func Open(path string) (*SQLite, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create journal dir: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info().Str("module", "journal").Str("path", path).Msg("journal opened")
	return &SQLite{db: db, now: time.Now}, nil
}

func runMigrations(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS session_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at DATETIME NOT NULL,
		kind TEXT NOT NULL,
		session_id TEXT,
		conn_id TEXT,
		detail TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (j *SQLite) Record(ctx context.Context, ev core.Event) error {
	if ev.At.IsZero() {
		ev.At = j.now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO session_events (at, kind, session_id, conn_id, detail) VALUES (?, ?, ?, ?, ?)`,
		ev.At.UTC(), string(ev.Kind), string(ev.Session), string(ev.Conn), ev.Detail,
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", ev.Kind, err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (j *SQLite) Recent(ctx context.Context, limit int) ([]core.Event, error) {
	if limit <= 0 {
		limit = defaultRecent
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT at, kind, session_id, conn_id, detail FROM session_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []core.Event
	for rows.Next() {
		var (
			ev                core.Event
			kind              string
			sid, conn, detail sql.NullString
		)
		if err := rows.Scan(&ev.At, &kind, &sid, &conn, &detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Kind = core.EventKind(kind)
		ev.Session = domain.SessionID(sid.String)
		ev.Conn = domain.ConnID(conn.String)
		ev.Detail = detail.String
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

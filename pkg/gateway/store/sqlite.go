package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/faheemlive/backend/pkg/gateway/live/protocol"
	"github.com/faheemlive/backend/pkg/gateway/tutor"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id       TEXT PRIMARY KEY,
	duration_seconds REAL NOT NULL,
	topics_covered   TEXT NOT NULL,
	mistakes         TEXT NOT NULL,
	corrections      TEXT NOT NULL,
	score            REAL NOT NULL,
	summary          TEXT NOT NULL,
	created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
);

CREATE TABLE IF NOT EXISTS tool_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(session_id),
	tool       TEXT NOT NULL,
	args       TEXT NOT NULL,
	result     TEXT NOT NULL,
	called_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tool_events_session ON tool_events(session_id);
`

// SQLite archives sessions in a local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the archive at path, enabling WAL
// so session writes do not block concurrent reads.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) SaveSession(ctx context.Context, recap protocol.Recap, events []tutor.ToolEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer tx.Rollback()

	topics, err := json.Marshal(recap.TopicsCovered)
	if err != nil {
		return fmt.Errorf("encode topics: %w", err)
	}
	mistakes, err := json.Marshal(recap.Mistakes)
	if err != nil {
		return fmt.Errorf("encode mistakes: %w", err)
	}
	corrections, err := json.Marshal(recap.Corrections)
	if err != nil {
		return fmt.Errorf("encode corrections: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
			(session_id, duration_seconds, topics_covered, mistakes, corrections, score, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		recap.SessionID, recap.DurationSeconds, string(topics), string(mistakes),
		string(corrections), recap.Score, recap.Summary,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for _, ev := range events {
		args, err := json.Marshal(ev.Args)
		if err != nil {
			return fmt.Errorf("encode tool args: %w", err)
		}
		result, err := json.Marshal(ev.Result)
		if err != nil {
			return fmt.Errorf("encode tool result: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO tool_events (session_id, tool, args, result, called_at)
			VALUES (?, ?, ?, ?, ?)`,
			recap.SessionID, ev.Tool, string(args), string(result),
			ev.At.UTC().Format("2006-01-02T15:04:05.000Z"),
		)
		if err != nil {
			return fmt.Errorf("insert tool event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive tx: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

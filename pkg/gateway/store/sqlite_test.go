package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/faheemlive/backend/pkg/gateway/live/protocol"
	"github.com/faheemlive/backend/pkg/gateway/tutor"
)

func openTestArchive(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.db")
	archive, err := OpenSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { archive.Close() })
	return archive
}

func testRecap(sessionID string) protocol.Recap {
	return protocol.Recap{
		SessionID:       sessionID,
		DurationSeconds: 42.5,
		TopicsCovered:   []string{"algebra"},
		Mistakes:        []string{"7"},
		Corrections:     []string{"9"},
		Score:           0.9,
		Summary:         "Math session complete.",
	}
}

func TestSaveSessionRoundTrip(t *testing.T) {
	archive := openTestArchive(t)
	ctx := context.Background()

	events := []tutor.ToolEvent{
		{
			Tool:   tutor.ToolNameCheckAnswer,
			Args:   map[string]any{"student_answer": "7"},
			Result: map[string]any{"verdict": "incorrect"},
			At:     time.Now(),
		},
	}
	if err := archive.SaveSession(ctx, testRecap("s1"), events); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	var score float64
	var summary string
	row := archive.db.QueryRowContext(ctx, "SELECT score, summary FROM sessions WHERE session_id = ?", "s1")
	if err := row.Scan(&score, &summary); err != nil {
		t.Fatalf("scan session: %v", err)
	}
	if score != 0.9 || summary != "Math session complete." {
		t.Fatalf("got score=%v summary=%q", score, summary)
	}

	var eventCount int
	row = archive.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tool_events WHERE session_id = ?", "s1")
	if err := row.Scan(&eventCount); err != nil {
		t.Fatalf("scan events: %v", err)
	}
	if eventCount != 1 {
		t.Fatalf("eventCount = %d, want 1", eventCount)
	}
}

func TestSaveSessionReplacesExisting(t *testing.T) {
	archive := openTestArchive(t)
	ctx := context.Background()

	if err := archive.SaveSession(ctx, testRecap("s1"), nil); err != nil {
		t.Fatalf("first save: %v", err)
	}
	updated := testRecap("s1")
	updated.Score = 0.5
	if err := archive.SaveSession(ctx, updated, nil); err != nil {
		t.Fatalf("second save: %v", err)
	}

	var count int
	row := archive.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE session_id = ?", "s1")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestPing(t *testing.T) {
	archive := openTestArchive(t)
	if err := archive.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestDiscardArchive(t *testing.T) {
	var archive Archive = Discard{}
	if err := archive.SaveSession(context.Background(), testRecap("s1"), nil); err != nil {
		t.Fatalf("Discard.SaveSession: %v", err)
	}
	if err := archive.Ping(context.Background()); err != nil {
		t.Fatalf("Discard.Ping: %v", err)
	}
}

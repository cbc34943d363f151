package sessions

import (
	"context"
	"testing"
	"time"
)

func TestTrackerRegisterAndUnregister(t *testing.T) {
	tr := NewTracker()
	unregister := tr.Register("s1", Handle{})
	if got := tr.Count(); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}
	unregister()
	if got := tr.Count(); got != 0 {
		t.Fatalf("Count = %d, want 0", got)
	}
}

func TestTrackerUnregisterIdempotent(t *testing.T) {
	tr := NewTracker()
	unregister := tr.Register("s1", Handle{})
	unregister()
	unregister()
	if got := tr.Count(); got != 0 {
		t.Fatalf("Count = %d, want 0", got)
	}
	if !tr.Wait(nil) {
		t.Fatalf("Wait should return immediately")
	}
}

func TestTrackerReplacesDuplicateID(t *testing.T) {
	tr := NewTracker()
	firstCanceled := false
	tr.Register("s1", Handle{Cancel: func() { firstCanceled = true }})
	tr.Register("s1", Handle{})
	if got := tr.Count(); got != 1 {
		t.Fatalf("Count = %d, want 1", got)
	}
	if firstCanceled {
		t.Fatalf("replacing an ID must unregister, not cancel, the old entry")
	}
}

func TestTrackerCancelAll(t *testing.T) {
	tr := NewTracker()
	canceled := 0
	tr.Register("s1", Handle{Cancel: func() { canceled++ }})
	tr.Register("s2", Handle{Cancel: func() { canceled++ }})
	tr.Register("s3", Handle{})

	if got := tr.CancelAll(); got != 2 {
		t.Fatalf("CancelAll = %d, want 2", got)
	}
	if canceled != 2 {
		t.Fatalf("canceled = %d, want 2", canceled)
	}
}

func TestTrackerWarnAll(t *testing.T) {
	tr := NewTracker()
	var messages []string
	tr.Register("s1", Handle{Warn: func(m string) { messages = append(messages, m) }})
	tr.Register("s2", Handle{})

	if got := tr.WarnAll("closing soon"); got != 1 {
		t.Fatalf("WarnAll = %d, want 1", got)
	}
	if len(messages) != 1 || messages[0] != "closing soon" {
		t.Fatalf("messages = %v", messages)
	}
}

func TestTrackerWaitBlocksUntilDrained(t *testing.T) {
	tr := NewTracker()
	unregister := tr.Register("s1", Handle{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if tr.Wait(ctx) {
		t.Fatalf("Wait returned true with a session still registered")
	}

	unregister()
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	if !tr.Wait(ctx2) {
		t.Fatalf("Wait returned false after drain")
	}
}

// Package store persists completed tutoring sessions. The archive is
// best-effort: a failed write is logged by the caller and never interrupts
// the session teardown.
package store

import (
	"context"

	"github.com/faheemlive/backend/pkg/gateway/live/protocol"
	"github.com/faheemlive/backend/pkg/gateway/tutor"
)

type Archive interface {
	// SaveSession records the recap and the tool-call history for one
	// completed session.
	SaveSession(ctx context.Context, recap protocol.Recap, events []tutor.ToolEvent) error
	Ping(ctx context.Context) error
	Close() error
}

// Discard is the Archive used when no archive path is configured.
type Discard struct{}

func (Discard) SaveSession(context.Context, protocol.Recap, []tutor.ToolEvent) error { return nil }
func (Discard) Ping(context.Context) error                                          { return nil }
func (Discard) Close() error                                                        { return nil }

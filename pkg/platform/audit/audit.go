// Package audit captures the account event trail. Domain code records events
// through a buffered Recorder; a background worker drains the buffer into a
// Store so request latency never pays for audit persistence.
package audit

import (
	"context"
	"log/slog"

	id "agegate/pkg/domain"
	"agegate/pkg/requestcontext"
)

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Recorder accepts events from request handlers and hands them to the
// background worker through a bounded inbox. A nil Recorder discards events,
// so callers never need to guard their Record calls.
type Recorder struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewRecorder builds a recorder with the given inbox capacity.
func NewRecorder(buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Inbox exposes the event channel for the worker to consume.
func (r *Recorder) Inbox() <-chan Event {
	return r.inbox
}

// Record enqueues an event without blocking the request path. Missing
// timestamp and request ID fields are filled from the context. When the inbox
// is full the event is dropped and counted against the log, never the caller.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	select {
	case r.inbox <- event:
	default:
		if r.logger != nil {
			r.logger.WarnContext(ctx, "audit inbox full, event dropped",
				"action", event.Action,
				"request_id", event.RequestID,
			)
		}
	}
}

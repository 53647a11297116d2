package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agegate/pkg/requestcontext"
)

func TestRecorder(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("fills timestamp and request id from context", func(t *testing.T) {
		recorder := NewRecorder(4, logger)
		ctx := requestcontext.WithTime(context.Background(), now)
		ctx = requestcontext.WithRequestID(ctx, "req-42")

		recorder.Record(ctx, Event{Action: ActionLoginSucceeded})

		event := <-recorder.Inbox()
		assert.Equal(t, now, event.Timestamp)
		assert.Equal(t, "req-42", event.RequestID)
	})

	t.Run("keeps explicit fields", func(t *testing.T) {
		recorder := NewRecorder(4, logger)
		earlier := now.Add(-time.Hour)

		recorder.Record(context.Background(), Event{
			Action:    ActionUserRegistered,
			Timestamp: earlier,
			RequestID: "req-original",
		})

		event := <-recorder.Inbox()
		assert.Equal(t, earlier, event.Timestamp)
		assert.Equal(t, "req-original", event.RequestID)
	})

	t.Run("nil recorder discards without panicking", func(t *testing.T) {
		var recorder *Recorder
		require.NotPanics(t, func() {
			recorder.Record(context.Background(), Event{Action: ActionLoginFailed})
		})
	})

	t.Run("full inbox drops instead of blocking", func(t *testing.T) {
		recorder := NewRecorder(1, logger)
		recorder.Record(context.Background(), Event{Action: ActionLoginFailed})

		done := make(chan struct{})
		go func() {
			recorder.Record(context.Background(), Event{Action: ActionLoginFailed})
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Record blocked on a full inbox")
		}
	})
}

func TestActionCategory(t *testing.T) {
	assert.Equal(t, CategoryCompliance, ActionUserRegistered.Category())
	assert.Equal(t, CategorySecurity, ActionLoginFailed.Category())
	assert.Equal(t, CategorySecurity, ActionAccountLocked.Category())
	assert.Equal(t, CategoryOperations, ActionAccessGranted.Category())
	assert.Equal(t, CategorySecurity, Action("something_new").Category())
}

package worker

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	audit "agegate/pkg/platform/audit"
)

// Worker drains the recorder inbox into the store. Persistence failures are
// logged and the loop keeps running: a broken audit sink must not take the
// login path down with it.
type Worker struct {
	store       audit.Store
	inbox       <-chan audit.Event
	logger      *slog.Logger
	concurrency int
}

type Option func(*Worker)

func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

func New(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		store:       store,
		inbox:       inbox,
		logger:      logger,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			return w.consume(ctx)
		})
	}
	return g.Wait()
}

func (w *Worker) consume(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "failed to persist audit event",
					"action", event.Action,
					"request_id", event.RequestID,
					"error", err,
				)
			}
		}
	}
}

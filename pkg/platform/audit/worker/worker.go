package worker

import (
	"context"

	audit "viewergate/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them until the
// inbox is closed or the context is cancelled.
type Worker struct {
	store audit.Sink
	inbox <-chan audit.Event
	onErr func(audit.Event, error)
}

func NewWorker(store audit.Sink, inbox <-chan audit.Event, onErr func(audit.Event, error)) *Worker {
	return &Worker{store: store, inbox: inbox, onErr: onErr}
}

// Run drains the inbox. Append failures are reported to onErr and do not stop
// the worker.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.inbox:
			if !ok {
				return nil
			}
			if err := w.store.Append(ctx, event); err != nil && w.onErr != nil {
				w.onErr(event, err)
			}
		}
	}
}

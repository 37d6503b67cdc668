package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	id "viewergate/pkg/domain"
	audit "viewergate/pkg/platform/audit"
	"viewergate/pkg/platform/audit/worker"
)

var errBufferFull = errors.New("audit buffer full")

// Publisher persists audit events to a Store and copies them to optional sinks.
// In async mode events are queued on a bounded channel drained by a worker;
// Close stops accepting events and waits for the queue to drain.
type Publisher struct {
	store  audit.Store
	sinks  []audit.Sink
	logger *slog.Logger
	now    func() time.Time

	bufferSize int
	inbox      chan audit.Event
	done       chan struct{}
	closeOnce  sync.Once
	mu         sync.RWMutex
	closed     bool
}

type Option func(*Publisher)

// WithAsyncBuffer enables async mode with a bounded queue of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.bufferSize = n
		}
	}
}

// WithSink adds a secondary destination that receives every event.
func WithSink(sink audit.Sink) Option {
	return func(p *Publisher) {
		if sink != nil {
			p.sinks = append(p.sinks, sink)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		w := worker.NewWorker(fanout{p}, p.inbox, p.reportFailure)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit records the event. In async mode it returns an error when the queue is
// full or ctx is already done.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	if p.inbox == nil {
		return p.append(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return p.append(ctx, event)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errBufferFull
}

func (p *Publisher) List(ctx context.Context, accountID id.AccountID) ([]audit.Event, error) {
	return p.store.ListByAccount(ctx, accountID)
}

// Close drains queued events. Safe to call more than once.
func (p *Publisher) Close() {
	if p.inbox == nil {
		return
	}
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.inbox)
		p.mu.Unlock()
		<-p.done
	})
}

func (p *Publisher) append(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, sink := range p.sinks {
		if err := sink.Append(ctx, event); err != nil {
			p.reportFailure(event, err)
		}
	}
	return nil
}

func (p *Publisher) reportFailure(event audit.Event, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Error("failed to persist audit event",
		"action", event.Action,
		"account_id", event.AccountID.String(),
		"error", err,
	)
}

type fanout struct{ p *Publisher }

func (f fanout) Append(ctx context.Context, event audit.Event) error {
	return f.p.append(ctx, event)
}

// Package worker runs the single event loop that owns board state. Messages
// are handled one at a time in arrival order, so handlers need no locking.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/attendboard/pkg/logger"
	"github.com/okian/attendboard/pkg/metrics"
)

// Source is where the loop reads messages from.
type Source[T any] interface {
	Dequeue() <-chan T
}

// Handler processes one message.
type Handler[T any] interface {
	Handle(ctx context.Context, m T) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc[T any] func(ctx context.Context, m T) error

// Handle calls f.
func (f HandlerFunc[T]) Handle(ctx context.Context, m T) error { return f(ctx, m) }

// Loop drains a Source into a Handler on one goroutine.
type Loop[T any] struct {
	source  Source[T]
	handler Handler[T]
	name    string
	logger  logger.Logger

	shutdown chan struct{}
	done     chan struct{}
}

// New creates a loop. It does nothing until Run is called.
func New[T any](source Source[T], handler Handler[T], opts ...Option) *Loop[T] {
	cfg := config{name: "worker"}
	for _, opt := range opts {
		opt(&cfg)
	}
	l := &Loop[T]{
		source:   source,
		handler:  handler,
		name:     cfg.name,
		logger:   cfg.logger,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	if l.logger == nil {
		l.logger = logger.Get().Named(l.name)
	}
	return l
}

// Run handles messages until ctx ends, Shutdown is called, or the source closes.
func (l *Loop[T]) Run(ctx context.Context) {
	defer close(l.done)

	in := l.source.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.shutdown:
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			l.handle(ctx, m)
		}
	}
}

func (l *Loop[T]) handle(ctx context.Context, m T) {
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent(l.name, "panic")
			l.logger.Error(ctx, "handler panicked", logger.Any("panic", r))
		}
	}()

	if err := l.handler.Handle(ctx, m); err != nil {
		metrics.RecordErrorByComponent(l.name, "handler_error")
		l.logger.Warn(ctx, "error handling message", logger.Error(err))
	}
}

// Done is closed when Run returns.
func (l *Loop[T]) Done() <-chan struct{} { return l.done }

// Shutdown stops the loop and waits for the message in flight to finish.
func (l *Loop[T]) Shutdown(ctx context.Context) error {
	select {
	case <-l.shutdown:
	default:
		close(l.shutdown)
	}

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		l.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// ShutdownTimeout is the default grace period used by owners of a Loop.
const ShutdownTimeout = 5 * time.Second

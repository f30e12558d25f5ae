// Package eventbus provides an in-process pub/sub bus for generation
// progress. The generator publishes milestones; subscribers log or count
// them on a single consumer goroutine.
package eventbus

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Handler processes an event. Handlers run on the bus goroutine, one event
// at a time.
type Handler interface {
	HandleEvent(ctx context.Context, evt Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, evt Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// Publisher is the producer side of a Bus.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) {}

// Bus is a buffered in-process event bus. Events are dispatched to all
// subscribers in subscription order by a single consumer goroutine.
type Bus struct {
	mu          sync.RWMutex
	subscribers []namedHandler
	events      chan Event
	done        chan struct{}
	closeOnce   sync.Once
	dropped     atomic.Int64
	logger      *slog.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// New creates a Bus with the given channel buffer size. A nil logger uses
// slog.Default().
func New(bufSize int, logger *slog.Logger) *Bus {
	if bufSize < 1 {
		bufSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		events: make(chan Event, bufSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Subscribe registers a named handler. Must be called before Start.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, namedHandler{name: name, handler: h})
}

// Publish sends an event to the bus. Non-blocking: if the buffer is full the
// event is dropped and counted.
func (b *Bus) Publish(_ context.Context, evt Event) {
	select {
	case b.events <- evt:
	default:
		b.dropped.Add(1)
		b.logger.Warn("eventbus: buffer full, dropping event", "kind", evt.Kind, "id", evt.ID)
	}
}

// Dropped returns how many events Publish discarded.
func (b *Bus) Dropped() int64 { return b.dropped.Load() }

// Start begins the consumer goroutine. It processes events until Stop is
// called or ctx is cancelled; either way buffered events are drained first.
func (b *Bus) Start(ctx context.Context) {
	go func() {
		defer close(b.done)
		for {
			select {
			case evt, ok := <-b.events:
				if !ok {
					return
				}
				b.dispatch(ctx, evt)
			case <-ctx.Done():
				for {
					select {
					case evt, ok := <-b.events:
						if !ok {
							return
						}
						b.dispatch(ctx, evt)
					default:
						return
					}
				}
			}
		}
	}()
}

// Stop closes the bus and waits for the consumer goroutine to drain it.
// Publishing after Stop panics.
func (b *Bus) Stop() {
	b.closeOnce.Do(func() { close(b.events) })
	<-b.done
}

func (b *Bus) dispatch(ctx context.Context, evt Event) {
	b.mu.RLock()
	subs := b.subscribers
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler.HandleEvent(ctx, evt); err != nil {
			b.logger.Error("eventbus: handler failed", "handler", s.name, "kind", evt.Kind, "err", err)
		}
	}
}

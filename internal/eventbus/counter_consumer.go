package eventbus

import (
	"context"
	"sync"
)

// CounterConsumer tallies events by kind.
type CounterConsumer struct {
	mu     sync.Mutex
	counts map[Kind]int
}

func NewCounterConsumer() *CounterConsumer {
	return &CounterConsumer{counts: make(map[Kind]int)}
}

func (c *CounterConsumer) HandleEvent(_ context.Context, evt Event) error {
	c.mu.Lock()
	c.counts[evt.Kind]++
	c.mu.Unlock()
	return nil
}

// Count returns how many events of kind were seen.
func (c *CounterConsumer) Count(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[kind]
}

package interrupt

import (
	"context"
	"fmt"
	"sync"
)

// Controller tracks pending interrupts for interactive sessions and routes
// decisions back to whoever is waiting on them. Several interrupts may be
// pending at once; each is resolved independently by id.
type Controller struct {
	mu      sync.Mutex
	pending map[string]Suspend
	order   []string
	waiters map[string]chan Decision

	// notifyCh receives each raised suspend for UI consumption.
	notifyCh chan Suspend
}

// NewController creates an interrupt controller.
func NewController() *Controller {
	return &Controller{
		pending: make(map[string]Suspend),
		waiters: make(map[string]chan Decision),
		// Buffered so Raise never blocks when nothing consumes notifications.
		notifyCh: make(chan Suspend, 64),
	}
}

// Notifications returns a channel receiving each raised suspend.
func (c *Controller) Notifications() <-chan Suspend {
	return c.notifyCh
}

// Raise registers a pending interrupt.
func (c *Controller) Raise(s Suspend) {
	c.mu.Lock()
	if _, exists := c.pending[s.ID]; !exists {
		c.order = append(c.order, s.ID)
	}
	c.pending[s.ID] = s
	c.mu.Unlock()

	select {
	case c.notifyCh <- s:
	default:
	}
}

// Pending returns the pending interrupts in the order they were raised.
func (c *Controller) Pending() []Suspend {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Suspend, 0, len(c.order))
	for _, id := range c.order {
		if s, ok := c.pending[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Decide resolves a pending interrupt. It fails if the id is unknown or the
// decision type is invalid.
func (c *Controller) Decide(id string, d Decision) error {
	if !d.Type.Valid() {
		return fmt.Errorf("invalid decision type %q", d.Type)
	}

	c.mu.Lock()
	if _, ok := c.pending[id]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("no pending interrupt with id %s", id)
	}
	delete(c.pending, id)
	for i, pid := range c.order {
		if pid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	ch := c.waiters[id]
	delete(c.waiters, id)
	c.mu.Unlock()

	if ch != nil {
		ch <- d
	}
	return nil
}

// Wait blocks until a decision arrives for the given interrupt or the context
// is cancelled.
func (c *Controller) Wait(ctx context.Context, id string) (Decision, error) {
	c.mu.Lock()
	if _, ok := c.pending[id]; !ok {
		c.mu.Unlock()
		return Decision{}, fmt.Errorf("no pending interrupt with id %s", id)
	}
	ch := make(chan Decision, 1)
	c.waiters[id] = ch
	c.mu.Unlock()

	select {
	case d := <-ch:
		return d, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.waiters, id)
		c.mu.Unlock()
		return Decision{}, ctx.Err()
	}
}

package push

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pushchat/internal/domain"
)

// DefaultCapacity is the per-subscriber buffer used when none is given.
const DefaultCapacity = 256

var (
	// ErrClosed is returned by Recv once the hub is closed and drained.
	ErrClosed = errors.New("push: subscription closed")
	// ErrLagged matches every *LaggedError.
	ErrLagged = errors.New("push: subscriber lagged")
)

// LaggedError reports how many envelopes a slow subscriber missed.
type LaggedError struct {
	Skipped uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("push: subscriber lagged, skipped %d envelopes", e.Skipped)
}

// Is lets errors.Is(err, ErrLagged) match.
func (e *LaggedError) Is(target error) bool { return target == ErrLagged }

// Hub fans published envelopes out to subscriptions.
type Hub struct {
	mu        sync.Mutex
	subs      map[int]*Subscription
	nextID    int
	capacity  int
	closed    bool
	published uint64
}

// NewHub returns a hub whose subscribers buffer up to capacity envelopes.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Hub{subs: make(map[int]*Subscription), capacity: capacity}
}

// Subscribe registers a new reader.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		hub: h,
		id:  h.nextID,
		ch:  make(chan domain.Envelope, h.capacity),
	}
	if h.closed {
		close(sub.ch)
		return sub
	}
	h.subs[sub.id] = sub
	return sub
}

// Publish delivers env to every subscriber without blocking. A subscriber
// whose buffer is full misses env and is told so by its next Recv. Publish
// reports whether every subscriber received env.
func (h *Hub) Publish(env domain.Envelope) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.published++
	all := true
	for _, sub := range h.subs {
		select {
		case sub.ch <- env:
		default:
			all = false
			sub.mu.Lock()
			sub.skipped++
			sub.mu.Unlock()
		}
	}
	return all
}

// Offer delivers env only if every subscriber has room for it, and reports
// whether it did. A refused envelope is not counted as skipped.
func (h *Hub) Offer(env domain.Envelope) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	// Only senders hold mu, so free slots cannot shrink before the sends below.
	for _, sub := range h.subs {
		if len(sub.ch) == cap(sub.ch) {
			return false
		}
	}
	h.published++
	for _, sub := range h.subs {
		sub.ch <- env
	}
	return true
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close stops publishing; subscribers drain their buffers and then see ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Subscription is one reader handle on a Hub.
type Subscription struct {
	hub *Hub
	id  int
	ch  chan domain.Envelope

	mu      sync.Mutex
	skipped uint64
}

// Recv blocks until the next envelope, a lag report, closure, or ctx ends.
func (s *Subscription) Recv(ctx context.Context) (domain.Envelope, error) {
	s.mu.Lock()
	skipped := s.skipped
	s.skipped = 0
	s.mu.Unlock()
	if skipped > 0 {
		return domain.Envelope{}, &LaggedError{Skipped: skipped}
	}

	select {
	case env, ok := <-s.ch:
		if !ok {
			return domain.Envelope{}, ErrClosed
		}
		return env, nil
	case <-ctx.Done():
		return domain.Envelope{}, ctx.Err()
	}
}

// Close detaches the subscription from its hub.
func (s *Subscription) Close() { s.hub.remove(s.id) }

// Compile-time assertion that Subscription implements domain.Subscription.
var _ domain.Subscription = (*Subscription)(nil)

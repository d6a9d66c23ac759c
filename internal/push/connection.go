package push

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pushchat/internal/domain"
)

const maxBackoff = 60 * time.Second

// Connection polls the relay on behalf of the session and publishes what it
// fetches to its Hub.
type Connection struct {
	relay    domain.RelayClient
	hub      *Hub
	interval time.Duration
	limit    int

	mu    sync.RWMutex
	state domain.PushState
}

// NewConnection resumes prior when it carries a token, otherwise it creates a
// fresh push state for relayURL.
func NewConnection(relay domain.RelayClient, relayURL string, prior *domain.PushState, interval time.Duration, limit int) *Connection {
	var state domain.PushState
	if prior != nil && prior.Token != "" {
		state = *prior
		state.Topics = append([]domain.Topic(nil), prior.Topics...)
	} else {
		state.Token = uuid.NewString()
	}
	if relayURL != "" {
		state.RelayURL = relayURL
	}
	if len(state.Topics) == 0 {
		state.Topics = []domain.Topic{domain.TopicMessages, domain.TopicLocation}
	}
	state.ConnectedAt = time.Now().UTC()

	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Connection{
		relay:    relay,
		hub:      NewHub(DefaultCapacity),
		interval: interval,
		limit:    limit,
		state:    state,
	}
}

// State returns a copy of the current push state.
func (c *Connection) State() domain.PushState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := c.state
	out.Topics = append([]domain.Topic(nil), c.state.Topics...)
	return out
}

// Subscribe returns a new reader of inbound envelopes.
func (c *Connection) Subscribe() *Subscription { return c.hub.Subscribe() }

// PollOnce fetches, publishes and acknowledges queued envelopes for each handle.
// Only the prefix every subscriber accepted is acknowledged; the rest stays
// queued on the relay for a later poll. It returns how many were published.
func (c *Connection) PollOnce(ctx context.Context, handles []domain.Handle) (int, error) {
	published := 0
	var errs []error
	for _, h := range handles {
		envs, err := c.relay.FetchEnvelopes(ctx, h, c.limit)
		if err != nil {
			errs = append(errs, fmt.Errorf("fetch %s: %w", h, err))
			continue
		}
		if len(envs) == 0 {
			continue
		}
		accepted := 0
		for _, env := range envs {
			if !c.hub.Offer(env) {
				break
			}
			accepted++
		}
		if accepted < len(envs) {
			logrus.WithFields(logrus.Fields{
				"function": "PollOnce",
				"handle":   h,
				"accepted": accepted,
				"fetched":  len(envs),
			}).Debug("Subscriber buffers full, leaving envelopes on the relay")
		}
		if accepted == 0 {
			continue
		}
		published += accepted
		if err := c.relay.AckEnvelopes(ctx, h, accepted); err != nil {
			errs = append(errs, fmt.Errorf("ack %d for %s: %w", accepted, h, err))
		}
	}
	return published, errors.Join(errs...)
}

// Run polls until ctx ends, backing off exponentially while the relay fails.
// The hub is closed on return.
func (c *Connection) Run(ctx context.Context, handles func() []domain.Handle) error {
	defer c.hub.Close()

	wait := c.interval
	for {
		n, err := c.PollOnce(ctx, handles())
		switch {
		case err != nil && ctx.Err() == nil:
			wait = min(wait*2, maxBackoff)
			logrus.WithFields(logrus.Fields{
				"function": "Run",
				"token":    c.State().Token,
				"retry_in": wait.String(),
				"error":    err.Error(),
			}).Warn("Relay poll failed")
		case n > 0:
			logrus.WithFields(logrus.Fields{
				"function":  "Run",
				"published": n,
			}).Debug("Published inbound envelopes")
			wait = c.interval
		default:
			wait = c.interval
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

package location

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"pushchat/internal/domain"
)

// Service keeps the latest Position per handle.
type Service struct {
	mu        sync.RWMutex
	positions map[domain.Handle]domain.Position
}

// New returns an empty location service.
func New() *Service {
	return &Service{positions: make(map[domain.Handle]domain.Position)}
}

// Handle records the position carried by env. Other topics are ignored.
// Older positions never replace newer ones.
func (s *Service) Handle(_ context.Context, env domain.Envelope) error {
	if env.Topic != domain.TopicLocation {
		return nil
	}

	var p domain.Position
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return fmt.Errorf("decode location from %q: %w", env.From, err)
	}
	if p.Handle == "" {
		p.Handle = env.From
	}
	if p.Handle == "" {
		return fmt.Errorf("location envelope %s has no handle", env.ID)
	}
	if p.Timestamp == 0 {
		p.Timestamp = env.Timestamp
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.positions[p.Handle]; ok && prev.Timestamp > p.Timestamp {
		return nil
	}
	s.positions[p.Handle] = p
	return nil
}

// Position returns the last known position of h.
func (s *Service) Position(h domain.Handle) (domain.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.positions[h]
	return p, ok
}

// Positions returns a snapshot of every known position.
func (s *Service) Positions() map[domain.Handle]domain.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.Handle]domain.Position, len(s.positions))
	for h, p := range s.positions {
		out[h] = p
	}
	return out
}

var _ domain.LocationService = (*Service)(nil)

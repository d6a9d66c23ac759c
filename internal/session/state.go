package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"pushchat/internal/domain"
)

// StateStore holds the authoritative SessionState of a running session and
// writes a full snapshot to its sink on every mutation.
type StateStore struct {
	mu    sync.RWMutex
	state domain.SessionState
	sink  domain.StateSink
}

// NewStateStore wraps initial; it does not write it.
func NewStateStore(initial domain.SessionState, sink domain.StateSink) *StateStore {
	return &StateStore{state: initial.Clone(), sink: sink}
}

// Snapshot returns a deep copy of the current state.
func (s *StateStore) Snapshot() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Save writes the current state.
func (s *StateStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, "save")
}

// Commit applies mutate and writes the result. When the write fails the
// mutation is rolled back and the error returned.
func (s *StateStore) Commit(ctx context.Context, mutate func(*domain.SessionState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.state.Clone()
	mutate(&s.state)
	if err := s.write(ctx, "commit"); err != nil {
		s.state = prev
		return err
	}
	return nil
}

// IdentitiesRotated merges users by UserID into the state and writes it
// before returning.
func (s *StateStore) IdentitiesRotated(ctx context.Context, users []domain.UserIdentity) error {
	return s.Commit(ctx, func(st *domain.SessionState) {
		for _, u := range users {
			replaced := false
			for i := range st.Users {
				if st.Users[i].UserID == u.UserID {
					st.Users[i] = u.Clone()
					replaced = true
					break
				}
			}
			if !replaced {
				st.Users = append(st.Users, u.Clone())
			}
		}
	})
}

// write must be called with mu held.
func (s *StateStore) write(ctx context.Context, op string) error {
	if err := s.sink.SaveSessionState(ctx, s.state.Clone()); err != nil {
		return fmt.Errorf("persist session state (%s): %w", op, err)
	}
	logrus.WithFields(logrus.Fields{
		"function": "StateStore." + op,
		"users":    len(s.state.Users),
	}).Debug("Persisted session state")
	return nil
}

var _ domain.RotationListener = (*StateStore)(nil)

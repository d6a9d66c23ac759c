package store

import (
	"context"
	"path/filepath"
	"sync"

	"pushchat/internal/domain"
)

const (
	stateFilename = "session.json"
	emptyState    = "{}"
)

// StateFileStore persists the session state as a single file under dir.
// Every save rewrites the file in full.
type StateFileStore struct {
	dir   string
	codec snapshotCodec
	mu    sync.Mutex
}

// NewStateFileStore returns a StateFileStore rooted at dir. A non-empty
// passphrase seals the file.
func NewStateFileStore(dir, passphrase string) *StateFileStore {
	return &StateFileStore{dir: dir, codec: newSnapshotCodec(passphrase)}
}

// Path returns the location of the state file.
func (s *StateFileStore) Path() string { return filepath.Join(s.dir, stateFilename) }

// SaveSessionState writes a full snapshot.
func (s *StateFileStore) SaveSessionState(_ context.Context, state domain.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.codec.encode(state)
	if err != nil {
		return err
	}
	return writeFile(s.Path(), b, 0o600)
}

// LoadSessionState reads the snapshot. A missing file is created empty and
// reported as no prior session.
func (s *StateFileStore) LoadSessionState(_ context.Context) (domain.SessionState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path()
	b, err := readFile(path)
	if err != nil {
		return domain.SessionState{}, false, err
	}
	if b == nil {
		if err := writeFile(path, []byte(emptyState), 0o600); err != nil {
			return domain.SessionState{}, false, err
		}
		return domain.SessionState{}, false, nil
	}
	return s.codec.decode(path, b)
}

// Compile-time assertion that StateFileStore implements domain.StateSink.
var _ domain.StateSink = (*StateFileStore)(nil)

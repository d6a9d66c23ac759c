package interfaces

import (
	"context"

	domaintypes "pushchat/internal/domain/types"
)

// StateSink persists full SessionState snapshots. Every save rewrites the whole
// record.
type StateSink interface {
	SaveSessionState(ctx context.Context, state domaintypes.SessionState) error
	// LoadSessionState reports ok=false when there is no usable prior session.
	LoadSessionState(ctx context.Context) (domaintypes.SessionState, bool, error)
}

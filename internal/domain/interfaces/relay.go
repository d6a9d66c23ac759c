package interfaces

import (
	"context"

	domaintypes "pushchat/internal/domain/types"
)

// RelayClient is how we talk to the relay server, all with context.
type RelayClient interface {
	Register(ctx context.Context, bundle domaintypes.RegistrationBundle) error
	SendEnvelope(ctx context.Context, envelope domaintypes.Envelope) error
	FetchEnvelopes(
		ctx context.Context,
		handle domaintypes.Handle,
		limit int,
	) ([]domaintypes.Envelope, error)
	AckEnvelopes(ctx context.Context, handle domaintypes.Handle, count int) error
}

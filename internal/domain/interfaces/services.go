package interfaces

import (
	"context"

	domaintypes "pushchat/internal/domain/types"
)

// Subscription is one reader of the inbound push broadcast.
type Subscription interface {
	Recv(ctx context.Context) (domaintypes.Envelope, error)
	Close()
}

// MessageClient decodes inbound envelopes and sends outbound messages.
type MessageClient interface {
	// Handle returns nil when the envelope carries nothing for the client.
	Handle(ctx context.Context, env domaintypes.Envelope) (*domaintypes.MessageInst, error)
	// Send may mutate msg, for example to assign its ID.
	Send(ctx context.Context, msg *domaintypes.MessageInst) error
	Handles() []domaintypes.Handle
}

// LocationService consumes location envelopes.
type LocationService interface {
	Handle(ctx context.Context, env domaintypes.Envelope) error
}

// RotationListener is notified synchronously after user identities rotate.
type RotationListener interface {
	IdentitiesRotated(ctx context.Context, users []domaintypes.UserIdentity) error
}

// IdentityService creates and rotates key material.
type IdentityService interface {
	NewDevice() (domaintypes.DeviceIdentity, error)
	NewUser(handle domaintypes.Handle) (domaintypes.UserIdentity, error)
	Rotate(user domaintypes.UserIdentity) (domaintypes.UserIdentity, error)
}

// Registrar publishes user identities to the relay.
type Registrar interface {
	Register(
		ctx context.Context,
		push domaintypes.PushState,
		device domaintypes.DeviceIdentity,
		users []domaintypes.UserIdentity,
	) ([]domaintypes.UserIdentity, error)
}

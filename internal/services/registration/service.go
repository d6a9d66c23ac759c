package registration

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"pushchat/internal/crypto"
	"pushchat/internal/domain"
)

// Service registers user identities for a set of relay services.
type Service struct {
	relay    domain.RelayClient
	services []string
	now      func() time.Time
}

// New returns a registrar for services; none means domain.DefaultServices.
func New(relay domain.RelayClient, services ...string) *Service {
	if len(services) == 0 {
		services = domain.DefaultServices
	}
	return &Service{
		relay:    relay,
		services: append([]string(nil), services...),
		now:      time.Now,
	}
}

// Bundle builds the signed bundle user publishes for push and device.
func (s *Service) Bundle(push domain.PushState, device domain.DeviceIdentity, user domain.UserIdentity) domain.RegistrationBundle {
	b := domain.RegistrationBundle{
		UserID:     user.UserID,
		Handles:    append([]domain.Handle(nil), user.Handles...),
		Services:   append([]string(nil), s.services...),
		PushToken:  push.Token,
		SigningKey: user.SigningPub,
		DeviceKey:  device.XPub,
	}
	b.Signature = crypto.SignEd25519(user.SigningPriv, b.SignedBytes())
	return b
}

// Register publishes every user and returns copies carrying their new
// registrations. Users are left unchanged on error.
func (s *Service) Register(
	ctx context.Context,
	push domain.PushState,
	device domain.DeviceIdentity,
	users []domain.UserIdentity,
) ([]domain.UserIdentity, error) {
	out := domain.CloneUsers(users)
	for i := range out {
		u := &out[i]
		if err := s.relay.Register(ctx, s.Bundle(push, device, *u)); err != nil {
			return nil, fmt.Errorf("register %s: %w", u.PrimaryHandle(), err)
		}

		fp := crypto.Fingerprint(u.SigningPub.Slice())
		at := s.now().UTC()
		u.Registrations = make(map[string]domain.Registration, len(s.services))
		for _, svc := range s.services {
			u.Registrations[svc] = domain.Registration{
				Service:      svc,
				Fingerprint:  fp,
				PushToken:    push.Token,
				RegisteredAt: at,
			}
		}

		logrus.WithFields(logrus.Fields{
			"function":    "Register",
			"user_id":     u.UserID,
			"handles":     u.Handles,
			"services":    s.services,
			"fingerprint": fp,
		}).Info("Registered user identity")
	}
	return out, nil
}

// Compile-time assertion that Service implements domain.Registrar.
var _ domain.Registrar = (*Service)(nil)

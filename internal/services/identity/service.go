package identity

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"pushchat/internal/crypto"
	"pushchat/internal/domain"
)

// ErrEmptyHandle is returned when a user is created without a handle.
var ErrEmptyHandle = errors.New("identity: handle must not be empty")

// Service generates device and user key material.
type Service struct {
	now func() time.Time
}

// New returns an identity service.
func New() *Service { return &Service{now: time.Now} }

// NewDevice generates the long-term keys of this installation.
func (s *Service) NewDevice() (domain.DeviceIdentity, error) {
	xPriv, xPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.DeviceIdentity{}, err
	}
	edPriv, edPub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.DeviceIdentity{}, err
	}
	return domain.DeviceIdentity{
		XPub:   xPub,
		XPriv:  xPriv,
		EdPub:  edPub,
		EdPriv: edPriv,
	}, nil
}

// NewUser creates an unregistered user identity for handle.
func (s *Service) NewUser(handle domain.Handle) (domain.UserIdentity, error) {
	handle = handle.Normalize()
	if handle == "" {
		return domain.UserIdentity{}, ErrEmptyHandle
	}
	priv, pub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.UserIdentity{}, err
	}
	return domain.UserIdentity{
		UserID:      uuid.NewString(),
		Handles:     []domain.Handle{handle},
		SigningPub:  pub,
		SigningPriv: priv,
	}, nil
}

// Rotate returns a copy of user with a fresh signing pair and no registrations.
func (s *Service) Rotate(user domain.UserIdentity) (domain.UserIdentity, error) {
	priv, pub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.UserIdentity{}, err
	}
	out := user.Clone()
	out.SigningPub = pub
	out.SigningPriv = priv
	out.Registrations = nil
	out.RotatedAt = s.now().UTC()

	logrus.WithFields(logrus.Fields{
		"function":        "Rotate",
		"user_id":         user.UserID,
		"old_fingerprint": Fingerprint(user.SigningPub),
		"new_fingerprint": Fingerprint(pub),
	}).Info("Rotated user signing key")
	return out, nil
}

// Fingerprint returns the short fingerprint of a signing key.
func Fingerprint(pub domain.Ed25519Public) domain.Fingerprint {
	return crypto.Fingerprint(pub.Slice())
}

// DeviceFingerprint returns the short fingerprint of the device's X25519 key.
func DeviceFingerprint(d domain.DeviceIdentity) domain.Fingerprint {
	return crypto.Fingerprint(d.XPub.Slice())
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)

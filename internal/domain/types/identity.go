package types

import "time"

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// IsZero reports whether the key was never set.
func (p Ed25519Public) IsZero() bool { return p == Ed25519Public{} }

// Ed25519Private is an Ed25519 signing private key.
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// DeviceIdentity holds the long-term keys of this installation.
type DeviceIdentity struct {
	XPub   X25519Public   `json:"xpub"`
	XPriv  X25519Private  `json:"xpriv"`
	EdPub  Ed25519Public  `json:"edpub"`
	EdPriv Ed25519Private `json:"edpriv"`
}

// IsZero reports whether no device keys have been generated.
func (d DeviceIdentity) IsZero() bool { return d.EdPub.IsZero() }

// Registration records a successful publication of a user identity for one
// relay service.
type Registration struct {
	Service      string      `json:"service"`
	Fingerprint  Fingerprint `json:"fingerprint"`
	PushToken    string      `json:"push_token"`
	RegisteredAt time.Time   `json:"registered_at"`
}

// UserIdentity is one account known to this session. The first user of a
// SessionState is the primary one.
type UserIdentity struct {
	UserID        string                  `json:"user_id"`
	Handles       []Handle                `json:"handles"`
	SigningPub    Ed25519Public           `json:"signing_pub"`
	SigningPriv   Ed25519Private          `json:"signing_priv"`
	Registrations map[string]Registration `json:"registrations,omitempty"`
	RotatedAt     time.Time               `json:"rotated_at,omitempty"`
}

// IsRegistered reports whether the user holds at least one registration.
func (u UserIdentity) IsRegistered() bool { return len(u.Registrations) > 0 }

// PrimaryHandle returns the first handle, or "" when the user has none.
func (u UserIdentity) PrimaryHandle() Handle {
	if len(u.Handles) == 0 {
		return ""
	}
	return u.Handles[0]
}

// Clone returns a copy that shares no mutable memory with u.
func (u UserIdentity) Clone() UserIdentity {
	out := u
	out.Handles = append([]Handle(nil), u.Handles...)
	if u.Registrations != nil {
		out.Registrations = make(map[string]Registration, len(u.Registrations))
		for k, v := range u.Registrations {
			out.Registrations[k] = v
		}
	}
	return out
}

// CloneUsers deep-copies a user list.
func CloneUsers(users []UserIdentity) []UserIdentity {
	if users == nil {
		return nil
	}
	out := make([]UserIdentity, len(users))
	for i, u := range users {
		out[i] = u.Clone()
	}
	return out
}

// Package identity creates and rotates the key material of a session.
//
// A device identity (X25519 + Ed25519) is generated once per installation.
// Each user identity carries its own Ed25519 signing pair, which Rotate
// replaces; rotated users must be registered again before use.
package identity

// Package message decodes inbound message envelopes and sends outbound
// messages through the relay.
//
// The client also owns the session's user identities: RotateIdentities
// replaces their signing keys, re-registers them and notifies every
// RotationListener before returning.
package message

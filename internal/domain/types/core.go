package types

import "strings"

// Handle is an addressable user identifier on the relay, such as
// "alice@example.org" or a phone number.
type Handle string

// String returns the string form of the handle.
func (h Handle) String() string { return string(h) }

// Normalize trims surrounding whitespace.
func (h Handle) Normalize() Handle { return Handle(strings.TrimSpace(string(h))) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// Topic names the push topic an envelope was published on.
type Topic string

const (
	// TopicMessages carries conversation traffic handled by the message client.
	TopicMessages Topic = "messages"
	// TopicLocation carries position updates handled by the location service.
	TopicLocation Topic = "location"
)

// Service names used when registering identities with the relay.
const (
	ServiceMessages = "messages"
	ServiceLocation = "location"
)

// DefaultServices is the set of services every user registers for.
var DefaultServices = []string{ServiceMessages, ServiceLocation}

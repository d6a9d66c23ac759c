// Package registration publishes user identities to the relay.
//
// For each user it assembles a RegistrationBundle (handles, services, push
// token, signing and device public keys), signs it with the user's signing key
// and records a Registration per service once the relay accepts it.
package registration

// Package crypto exposes the minimal primitives used by pushchat.
//
// Contents
//
//   - X25519 key generation and clamping (GenerateX25519)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// All functions return fixed-size array types defined in internal/domain so keys
// can be embedded in the persisted session state without reallocation.
package crypto

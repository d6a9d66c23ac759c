// Package store provides durable sinks for pushchat's session state.
//
// A sink always persists the whole SessionState: there are no partial or
// append updates, and writes are never coalesced. Two backends exist:
//   - StateFileStore: one JSON file under the configured home directory,
//     replaced atomically through a temp file and rename.
//   - DynamoStateStore: one DynamoDB item per profile.
//
// Both optionally seal the snapshot with a passphrase (scrypt +
// ChaCha20-Poly1305). A snapshot that cannot be parsed is reported as "no prior
// session"; a wrong or missing passphrase is an error.
package store

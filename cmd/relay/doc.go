// Package main runs the in-memory HTTP relay used by pushchat during
// development and tests. It stores signed registrations and queues envelopes
// for handles until they fetch them.
//
// HTTP API
//
//	POST /register
//	    Store a RegistrationBundle for each of its handles. The bundle's
//	    Ed25519 signature must verify against its signing key.
//
//	POST /msg/{handle}
//	    Enqueue an Envelope destined to {handle}. A missing id is filled with a
//	    UUID and a zero Timestamp with the current Unix time in milliseconds.
//
//	GET /msg/{handle}?limit=N
//	    Return up to N queued Envelopes for {handle}. If limit is absent, zero
//	    or greater than the queue length, all queued envelopes are returned.
//
//	POST /msg/{handle}/ack { "count": N }
//	    Drop the first N queued envelopes for {handle}. If N exceeds the queue
//	    length, the queue is cleared.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Responses are JSON. Non-2xx statuses carry a short error message.
//   - An access log records method, path, remote, status, bytes and duration
//     for each request.
//   - The default listen address is :8080 (-addr).
package main

// Package relay provides an HTTP implementation of the domain.RelayClient
// interface used by pushchat.
//
// The relay is a store-and-forward service: it keeps registration bundles for
// each handle and queues envelopes for recipients until their push connection
// fetches and acknowledges them.
//
// Supported operations include:
//   - Publishing a signed registration bundle.
//   - Enqueueing an envelope for a handle.
//   - Fetching pending envelopes for a handle.
//   - Acknowledging processed envelopes.
//
// All requests are JSON over HTTP and accept a context for cancellation and
// deadlines. Non-2xx statuses are returned as errors carrying the method, path
// and status text.
package relay

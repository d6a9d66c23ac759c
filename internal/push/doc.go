// Package push delivers inbound envelopes to subscribers.
//
// A Hub is a multi-reader broadcast: every Subscription sees every envelope
// published after it subscribed, in publish order. Each reader has a bounded
// buffer; a reader that falls behind loses envelopes and is told so by a
// LaggedError on its next Recv. Closing the hub lets readers drain what is
// buffered and then report ErrClosed.
//
// Connection feeds a Hub by polling the relay for every handle of the session
// and acknowledging what it published.
package push

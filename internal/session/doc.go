// Package session drives an interactive messaging session.
//
// A Loop races the inbound push subscription against a pending console read
// and handles whichever completes first. Inbound messages are deduplicated by
// a Ledger before display, console lines are classified by an Interpreter,
// plain sends go through the Scheduler, and the StateStore keeps the durable
// session snapshot current when identities rotate.
package session

// Package app wires application dependencies for the CLI.
//
// NewWire builds the state sink, relay client and identity services from
// Config. Bootstrap then restores or creates the session state, registers
// the primary user when needed and assembles the running Session.
package app

// Package location records the last known position of each handle from
// location topic envelopes.
package location

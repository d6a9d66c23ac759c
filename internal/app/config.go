package app

import (
	"io"
	"net/http"

	"pushchat/internal/config"
	"pushchat/internal/domain"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home       string        // state directory, e.g. $HOME/.pushchat
	RelayURL   string        // relay base URL, overrides Settings.RelayURL when set
	Passphrase string        // seals the state snapshot when non-empty
	Username   string        // first-run handle; prompted for when empty
	Settings   config.Config // file configuration over defaults
	HTTP       *http.Client  // optional; defaults to http.DefaultClient

	// Sink overrides the file state store, e.g. with a DynamoDB sink.
	Sink domain.StateSink

	In  io.Reader // console input
	Out io.Writer // console output
}

func (c Config) relayURL() string {
	if c.RelayURL != "" {
		return c.RelayURL
	}
	return c.Settings.RelayURL
}

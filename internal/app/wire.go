package app

import (
	"net/http"

	"pushchat/internal/domain"
	"pushchat/internal/relay"
	identitysvc "pushchat/internal/services/identity"
	registrationsvc "pushchat/internal/services/registration"
	"pushchat/internal/store"
)

// Wire bundles the stores, services and clients shared by the commands.
type Wire struct {
	Sink      domain.StateSink
	Relay     domain.RelayClient
	Identity  *identitysvc.Service
	Registrar *registrationsvc.Service
	HTTP      *http.Client
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	sink := cfg.Sink
	if sink == nil {
		sink = store.NewStateFileStore(cfg.Home, cfg.Passphrase)
	}

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	rc := relay.NewHTTP(cfg.relayURL(), httpClient)

	return &Wire{
		Sink:      sink,
		Relay:     rc,
		Identity:  identitysvc.New(),
		Registrar: registrationsvc.New(rc),
		HTTP:      httpClient,
	}, nil
}

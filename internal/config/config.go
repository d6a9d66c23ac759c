// Package config loads the client's TOML configuration file over built-in
// defaults. Only keys present in the file override a default.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// State backends.
const (
	BackendFile     = "file"
	BackendDynamoDB = "dynamodb"
)

// Filename is the config file looked up in the home directory.
const Filename = "pushchat.toml"

// Config is the resolved client configuration.
type Config struct {
	RelayURL         string
	StateBackend     string
	StateTable       string
	StateProfile     string
	PassphraseParam  string
	PollInterval     time.Duration
	RotationInterval time.Duration
	ReceiveLimit     int
	FilterPrefix     string
	SecondaryKeyword string
	ScheduleDelay    time.Duration
	UnscheduleAfter  time.Duration
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		RelayURL:         "http://127.0.0.1:8080",
		StateBackend:     BackendFile,
		StateProfile:     "default",
		PollInterval:     2 * time.Second,
		RotationInterval: 24 * time.Hour,
		ReceiveLimit:     100,
		FilterPrefix:     "filter ",
		SecondaryKeyword: "sms",
		ScheduleDelay:    60 * time.Second,
		UnscheduleAfter:  10 * time.Second,
	}
}

type fileConfig struct {
	RelayURL          string `toml:"relay_url"`
	StateBackend      string `toml:"state_backend"`
	StateTable        string `toml:"state_table"`
	StateProfile      string `toml:"state_profile"`
	PassphraseParam   string `toml:"passphrase_param"`
	PollInterval      string `toml:"poll_interval"`
	RotationInterval  string `toml:"rotation_interval"`
	ReceiveLimit      int    `toml:"receive_limit"`
	FilterPrefix      string `toml:"filter_prefix"`
	SecondaryKeyword  string `toml:"secondary_keyword"`
	ScheduleDelay     string `toml:"schedule_delay"`
	ScheduleDelayMS   int64  `toml:"schedule_delay_ms"`
	UnscheduleAfter   string `toml:"unschedule_after"`
	UnscheduleAfterMS int64  `toml:"unschedule_after_ms"`
}

// Load reads path over Default. A missing file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}

	if meta.IsDefined("relay_url") {
		cfg.RelayURL = strings.TrimSpace(raw.RelayURL)
	}
	if meta.IsDefined("state_backend") {
		cfg.StateBackend = strings.ToLower(strings.TrimSpace(raw.StateBackend))
	}
	if meta.IsDefined("state_table") {
		cfg.StateTable = strings.TrimSpace(raw.StateTable)
	}
	if meta.IsDefined("state_profile") {
		cfg.StateProfile = strings.TrimSpace(raw.StateProfile)
	}
	if meta.IsDefined("passphrase_param") {
		cfg.PassphraseParam = strings.TrimSpace(raw.PassphraseParam)
	}
	if meta.IsDefined("receive_limit") {
		cfg.ReceiveLimit = raw.ReceiveLimit
	}
	if meta.IsDefined("filter_prefix") {
		// Trailing whitespace is part of the prefix.
		cfg.FilterPrefix = raw.FilterPrefix
	}
	if meta.IsDefined("secondary_keyword") {
		cfg.SecondaryKeyword = strings.TrimSpace(raw.SecondaryKeyword)
	}

	durations := []struct {
		key string
		val string
		dst *time.Duration
	}{
		{"poll_interval", raw.PollInterval, &cfg.PollInterval},
		{"rotation_interval", raw.RotationInterval, &cfg.RotationInterval},
		{"schedule_delay", raw.ScheduleDelay, &cfg.ScheduleDelay},
		{"unschedule_after", raw.UnscheduleAfter, &cfg.UnscheduleAfter},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.val))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}
	if meta.IsDefined("schedule_delay_ms") {
		cfg.ScheduleDelay = time.Duration(raw.ScheduleDelayMS) * time.Millisecond
	}
	if meta.IsDefined("unschedule_after_ms") {
		cfg.UnscheduleAfter = time.Duration(raw.UnscheduleAfterMS) * time.Millisecond
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields Default.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch c.StateBackend {
	case BackendFile:
	case BackendDynamoDB:
		if c.StateTable == "" {
			return errors.New("state_table is required for the dynamodb backend")
		}
	default:
		return fmt.Errorf("unknown state_backend %q", c.StateBackend)
	}
	if c.StateProfile == "" {
		return errors.New("state_profile must not be empty")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll_interval must be positive")
	}
	if c.RotationInterval < 0 {
		return errors.New("rotation_interval must not be negative")
	}
	if c.ReceiveLimit < 0 {
		return errors.New("receive_limit must not be negative")
	}
	if strings.TrimSpace(c.FilterPrefix) == "" {
		return errors.New("filter_prefix must not be blank")
	}
	if c.SecondaryKeyword == "" {
		return errors.New("secondary_keyword must not be empty")
	}
	if c.ScheduleDelay < 0 || c.UnscheduleAfter < 0 {
		return errors.New("schedule delays must not be negative")
	}
	return nil
}

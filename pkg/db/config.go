package db

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoActiveProfile = errors.New("no active profile found")

// Config is the runtime configuration of the active profile.
type Config struct {
	Profile   *Profile
	Listeners map[ListenerKind]*Listener
}

// APIAddress returns the HTTP listen address.
func (c *Config) APIAddress() string {
	if l, ok := c.Listeners[ListenerHTTP]; ok {
		return l.Address
	}
	return DefaultHTTPAddress
}

// MQTTBroker returns the broker address, or "" when the bridge is disabled.
func (c *Config) MQTTBroker() string {
	if l, ok := c.Listeners[ListenerMQTT]; ok {
		return l.Address
	}
	return ""
}

// Locale returns the profile locale, or "" when unset.
func (c *Config) Locale() string {
	if c.Profile == nil {
		return ""
	}
	return c.Profile.Locale
}

// CatalogPath returns the profile's catalog file, or "" for the built-in catalog.
func (c *Config) CatalogPath() string {
	if c.Profile == nil {
		return ""
	}
	return c.Profile.Catalog
}

// ActiveConfig loads the configuration of the active profile.
func (db *DB) ActiveConfig(ctx context.Context) (*Config, error) {
	profile, err := db.Profiles().GetActive(ctx)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrNoActiveProfile
		}
		return nil, fmt.Errorf("failed to get active profile: %w", err)
	}

	listeners, err := db.Listeners().List(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list listeners: %w", err)
	}

	config := &Config{
		Profile:   profile,
		Listeners: make(map[ListenerKind]*Listener, len(listeners)),
	}
	for _, l := range listeners {
		config.Listeners[l.Kind] = l
	}

	return config, nil
}

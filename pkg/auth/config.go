// SPDX-FileCopyrightText: 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pluce/openlink/pkg/models"
)

// Default values applied when the environment does not override them.
const (
	DefaultListenPort   = 3001
	DefaultServerSecret = "openlink-dev-secret"
	DefaultUserJWTTTL   = 24 * time.Hour
	DefaultServerJWTTTL = 24 * time.Hour
)

// OIDCProvider holds the parameters of one network's identity provider.
type OIDCProvider struct {
	// TokenURL is the provider's OIDC token endpoint.
	TokenURL string
}

// Config is the gateway configuration, shared by all handlers.
type Config struct {
	// ListenPort is the HTTP port of the gateway.
	ListenPort int
	// Networks maps each network to its OIDC provider.
	Networks map[models.NetworkID]OIDCProvider
	// ServerSecret is the pre-shared secret routing servers present to
	// obtain a wildcard JWT.
	ServerSecret string
	// UserJWTTTL is the lifetime of user JWTs.
	UserJWTTTL time.Duration
	// ServerJWTTTL is the lifetime of server JWTs.
	ServerJWTTTL time.Duration
	// ProviderTimeout bounds each HTTP call to an identity provider.
	ProviderTimeout time.Duration
}

// ConfigFromEnv builds the configuration from environment variables.
//
//	AUTH_PORT                  HTTP listen port (default 3001)
//	OIDC_{NETWORK}_TOKEN_URL   token endpoint; {NETWORK} is upper-cased
//	SERVER_SECRET              server exchange secret
//
// Every OIDC_*_TOKEN_URL variable registers one network; a deployment
// without any defaults to the demonetwork pointing at a local mock
// provider.
func ConfigFromEnv() Config {
	config := Config{
		ListenPort:      DefaultListenPort,
		Networks:        make(map[models.NetworkID]OIDCProvider),
		ServerSecret:    DefaultServerSecret,
		UserJWTTTL:      DefaultUserJWTTTL,
		ServerJWTTTL:    DefaultServerJWTTTL,
		ProviderTimeout: 10 * time.Second,
	}

	if port, err := strconv.Atoi(os.Getenv("AUTH_PORT")); err == nil && port > 0 {
		config.ListenPort = port
	}
	if secret := os.Getenv("SERVER_SECRET"); secret != "" {
		config.ServerSecret = secret
	}

	for _, entry := range os.Environ() {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || value == "" {
			continue
		}
		network, found := strings.CutPrefix(name, "OIDC_")
		if !found {
			continue
		}
		network, found = strings.CutSuffix(network, "_TOKEN_URL")
		if !found || network == "" {
			continue
		}
		config.Networks[models.NetworkID(strings.ToLower(network))] = OIDCProvider{TokenURL: value}
	}

	if len(config.Networks) == 0 {
		config.Networks["demonetwork"] = OIDCProvider{TokenURL: "http://localhost:4000/token"}
	}

	return config
}

// ProviderFor resolves the OIDC provider configured for a network.
func (c Config) ProviderFor(network models.NetworkID) (OIDCProvider, bool) {
	provider, ok := c.Networks[network]
	return provider, ok
}

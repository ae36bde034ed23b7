// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pluce/openlink/pkg/server"
)

// tomlConfig describes the TOML configuration file.
type tomlConfig struct {
	Core     coreConf
	Presence presenceConf
	Monitor  monitorConf
}

// coreConf describes the [core] block.
type coreConf struct {
	Network      string `toml:"network"`
	NatsURL      string `toml:"nats-url"`
	AuthURL      string `toml:"auth-url"`
	ServerSecret string `toml:"server-secret"`
	Clean        bool   `toml:"clean"`
	Debug        bool   `toml:"debug"`
}

// presenceConf describes the [presence] block.
type presenceConf struct {
	LeaseTTLSeconds      int   `toml:"lease-ttl-seconds"`
	SweepIntervalSeconds int   `toml:"sweep-interval-seconds"`
	AutoEndService       *bool `toml:"auto-end-service"`
}

// monitorConf describes the [monitor] block.
type monitorConf struct {
	Listen string `toml:"listen"`
}

// serverConfig is the effective configuration after file parsing and
// environment overrides.
type serverConfig struct {
	network      string
	natsURL      string
	authURL      string
	serverSecret string
	clean        bool
	debug        bool
	presence     server.PresenceConfig
	monitor      string
}

// parseConfig loads the optional TOML file and applies the environment.
// Environment variables take precedence over the file.
func parseConfig(filename string) (cfg serverConfig, err error) {
	cfg = serverConfig{
		network:      "demonetwork",
		natsURL:      "nats://localhost:4222",
		authURL:      "http://localhost:3001",
		serverSecret: "openlink-dev-secret",
		presence:     server.DefaultPresenceConfig(),
	}

	if filename != "" {
		var conf tomlConfig
		if _, err = toml.DecodeFile(filename, &conf); err != nil {
			err = fmt.Errorf("parsing %s: %w", filename, err)
			return
		}

		applyString(&cfg.network, conf.Core.Network)
		applyString(&cfg.natsURL, conf.Core.NatsURL)
		applyString(&cfg.authURL, conf.Core.AuthURL)
		applyString(&cfg.serverSecret, conf.Core.ServerSecret)
		cfg.clean = conf.Core.Clean
		cfg.debug = conf.Core.Debug
		if conf.Presence.LeaseTTLSeconds > 0 {
			cfg.presence.LeaseTTL = time.Duration(conf.Presence.LeaseTTLSeconds) * time.Second
		}
		if conf.Presence.SweepIntervalSeconds > 0 {
			cfg.presence.SweepInterval = time.Duration(conf.Presence.SweepIntervalSeconds) * time.Second
		}
		if conf.Presence.AutoEndService != nil {
			cfg.presence.AutoEndService = *conf.Presence.AutoEndService
		}
		cfg.monitor = conf.Monitor.Listen
	}

	applyString(&cfg.network, os.Getenv("NETWORK_ID"))
	applyString(&cfg.natsURL, os.Getenv("NATS_URL"))
	applyString(&cfg.authURL, os.Getenv("AUTH_URL"))
	applyString(&cfg.serverSecret, os.Getenv("SERVER_SECRET"))
	applyString(&cfg.monitor, os.Getenv("MONITOR_LISTEN"))

	if seconds, ok := envSeconds("PRESENCE_LEASE_TTL_SECONDS"); ok {
		cfg.presence.LeaseTTL = seconds
	}
	if seconds, ok := envSeconds("PRESENCE_SWEEP_INTERVAL_SECONDS"); ok {
		cfg.presence.SweepInterval = seconds
	}
	if raw := os.Getenv("AUTO_END_SERVICE_ON_STATION_OFFLINE"); raw != "" {
		if value, parseErr := strconv.ParseBool(raw); parseErr == nil {
			cfg.presence.AutoEndService = value
		}
	}

	return
}

// applyString overwrites dst when value is set.
func applyString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// envSeconds reads a positive duration in seconds from the environment.
func envSeconds(name string) (time.Duration, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

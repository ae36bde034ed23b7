// SPDX-FileCopyrightText: 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"testing"
)

func TestConfigFromEnvDefaults(t *testing.T) {
	config := ConfigFromEnv()

	if config.ListenPort != DefaultListenPort {
		t.Errorf("port = %d", config.ListenPort)
	}
	if len(config.Networks) == 0 {
		t.Error("at least the demonetwork default should exist")
	}
}

func TestConfigFromEnvProviders(t *testing.T) {
	t.Setenv("OIDC_VATSIM_TOKEN_URL", "http://vatsim.test/token")
	t.Setenv("OIDC_IVAO_TOKEN_URL", "http://ivao.test/token")
	t.Setenv("AUTH_PORT", "3999")
	t.Setenv("SERVER_SECRET", "super")

	config := ConfigFromEnv()

	if config.ListenPort != 3999 {
		t.Errorf("port = %d", config.ListenPort)
	}
	if config.ServerSecret != "super" {
		t.Errorf("secret = %q", config.ServerSecret)
	}

	vatsim, ok := config.ProviderFor("vatsim")
	if !ok || vatsim.TokenURL != "http://vatsim.test/token" {
		t.Errorf("vatsim provider = %+v, %v", vatsim, ok)
	}
	ivao, ok := config.ProviderFor("ivao")
	if !ok || ivao.TokenURL != "http://ivao.test/token" {
		t.Errorf("ivao provider = %+v, %v", ivao, ok)
	}
	if _, ok := config.ProviderFor("nosuchnet"); ok {
		t.Error("unknown network should have no provider")
	}
}

func TestConfigFromEnvIgnoresMalformedPort(t *testing.T) {
	t.Setenv("AUTH_PORT", "not-a-port")

	if config := ConfigFromEnv(); config.ListenPort != DefaultListenPort {
		t.Errorf("port = %d, expected default", config.ListenPort)
	}
}

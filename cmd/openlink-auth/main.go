// SPDX-FileCopyrightText: 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

// openlink-auth runs the authentication gateway: it exchanges OIDC
// authorization codes for scoped NATS user JWTs and server secrets for
// wildcard server JWTs.
package main

import (
	"fmt"
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/nats-io/nkeys"

	"github.com/pluce/openlink/pkg/auth"
)

func main() {
	if os.Getenv("DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}

	config := auth.ConfigFromEnv()

	// The account key signs every issued JWT. A production deployment
	// would load it from a vault; an ephemeral key suffices for the
	// reference setup because the broker learns the public key at
	// startup.
	accountKP, err := nkeys.CreateAccount()
	if err != nil {
		log.WithError(err).Fatal("Failed to generate account key")
	}
	publicKey, err := accountKP.PublicKey()
	if err != nil {
		log.WithError(err).Fatal("Failed to derive account public key")
	}
	log.WithField("public_key", publicKey).Info("Account key generated")

	for network, provider := range config.Networks {
		log.WithFields(log.Fields{
			"network":   network,
			"token_url": provider.TokenURL,
		}).Info("OIDC provider registered")
	}

	service := auth.NewService(config, accountKP)

	address := fmt.Sprintf(":%d", config.ListenPort)
	log.WithField("address", address).Info("Auth service listening")
	if err := http.ListenAndServe(address, service); err != nil {
		log.WithError(err).Fatal("Auth service stopped")
	}
}

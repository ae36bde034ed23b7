// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

// openlink-server runs the session engine for one network: it subscribes
// the outbox wildcard, drives the CPDLC session state machine, and routes
// envelopes between station inboxes.
//
//	openlink-server [configuration.toml]
//
// Environment variables (NATS_URL, AUTH_URL, SERVER_SECRET, PRESENCE_*)
// override the configuration file.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"

	"github.com/pluce/openlink/pkg/models"
	"github.com/pluce/openlink/pkg/server"
)

func main() {
	configFile := ""
	if len(os.Args) > 2 {
		log.Fatalf("Usage: %s [configuration.toml]", os.Args[0])
	} else if len(os.Args) == 2 {
		configFile = os.Args[1]
	}

	cfg, err := parseConfig(configFile)
	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Fatal("Failed to parse config")
	}

	if cfg.debug {
		log.SetLevel(log.DebugLevel)
	}

	engine, err := server.NewEngine(
		models.NetworkID(cfg.network),
		cfg.natsURL, cfg.authURL, cfg.serverSecret,
		cfg.clean, cfg.presence)
	if err != nil {
		log.WithFields(log.Fields{
			"network": cfg.network,
			"error":   err,
		}).Fatal("Failed to start session engine")
	}

	if cfg.monitor != "" {
		monitor := server.NewMonitor(engine.Registry())
		engine.AttachMonitor(monitor)
		go func() {
			log.WithField("listen", cfg.monitor).Info("Monitor listening")
			if err := http.ListenAndServe(cfg.monitor, monitor); err != nil {
				log.WithError(err).Error("Monitor server stopped")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := engine.Run(ctx); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("Session engine failed")
	}

	log.Info("Shutting down..")
}

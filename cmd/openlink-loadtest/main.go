// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

// openlink-loadtest drives a fleet of simulated aircraft against one ATC
// station to measure routing throughput: every aircraft logs on, then
// sends a climb request at a fixed interval until the test ends. Inbound
// messages are handled only by the SDK auto-responder; the aircraft send
// no short responses and no end-service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/pluce/openlink/pkg/models"
	"github.com/pluce/openlink/pkg/sdk"
)

// counters aggregates results across the fleet.
type counters struct {
	sent     atomic.Int64
	received atomic.Int64
	errors   atomic.Int64
}

func main() {
	var (
		natsURL  = flag.String("nats-url", "nats://localhost:4222", "broker URL")
		authURL  = flag.String("auth-url", "http://localhost:3001", "gateway URL")
		network  = flag.String("network-id", "demonetwork", "network to load")
		station  = flag.String("station", "LFPG", "target station callsign")
		fleet    = flag.Int("fleet", 10, "number of simulated aircraft")
		duration = flag.Duration("duration", 30*time.Second, "test duration")
		interval = flag.Duration("interval", 500*time.Millisecond, "delay between requests per aircraft")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	var stats counters
	var wg sync.WaitGroup

	log.WithFields(log.Fields{
		"fleet":    *fleet,
		"station":  *station,
		"duration": *duration,
	}).Info("Starting load test")

	started := time.Now()
	for i := 0; i < *fleet; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			fly(ctx, flyConfig{
				natsURL:  *natsURL,
				authURL:  *authURL,
				network:  models.NetworkID(*network),
				station:  *station,
				callsign: fmt.Sprintf("LDT%03d", index),
				address:  fmt.Sprintf("LD%05d", index),
				code:     fmt.Sprintf("code_loadtest%03d", index),
				interval: *interval,
			}, &stats)
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(started)

	sent := stats.sent.Load()
	received := stats.received.Load()
	fmt.Printf("\nFleet:     %d aircraft\n", *fleet)
	fmt.Printf("Elapsed:   %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Sent:      %d (%.1f msg/s)\n", sent, float64(sent)/elapsed.Seconds())
	fmt.Printf("Received:  %d (%.1f msg/s)\n", received, float64(received)/elapsed.Seconds())
	fmt.Printf("Errors:    %d\n", stats.errors.Load())

	if stats.errors.Load() > 0 {
		os.Exit(1)
	}
}

// flyConfig describes one simulated aircraft.
type flyConfig struct {
	natsURL  string
	authURL  string
	network  models.NetworkID
	station  string
	callsign string
	address  string
	code     string
	interval time.Duration
}

// fly runs one aircraft: connect, log on, then request climbs until the
// context ends.
func fly(ctx context.Context, cfg flyConfig, stats *counters) {
	client, err := sdk.ConnectWithAuthorizationCode(cfg.natsURL, cfg.authURL, cfg.code, cfg.network)
	if err != nil {
		log.WithError(err).WithField("callsign", cfg.callsign).Error("Connection failed")
		stats.errors.Add(1)
		return
	}
	defer client.Close()

	if err := client.StartPresence(ctx, cfg.callsign, cfg.address, 0); err != nil {
		stats.errors.Add(1)
		return
	}

	responder := sdk.NewAutoResponder(client, true, cfg.callsign, cfg.address)
	sub, err := client.SubscribeInbox(func(envelope models.Envelope) {
		stats.received.Add(1)
		responder.Handle(envelope)
	})
	if err != nil {
		stats.errors.Add(1)
		return
	}
	defer func() { _ = sub.Unsubscribe() }()

	logon := sdk.CpdlcLogonRequest(cfg.callsign, cfg.address, cfg.station, "LFPG", "EGLL")
	if err := client.SendToServer(logon); err != nil {
		stats.errors.Add(1)
		return
	}
	stats.sent.Add(1)

	level := uint16(300)
	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			level++
			if level > 410 {
				level = 300
			}
			elements := []models.MessageElement{
				models.NewMessageElement("DM9", models.LevelArg(models.NewFlightLevel(level))),
			}
			payload := sdk.CpdlcAircraftApplication(cfg.callsign, cfg.address, cfg.station, elements, nil)
			if err := client.SendToServer(payload); err != nil {
				stats.errors.Add(1)
				continue
			}
			stats.sent.Add(1)
		case <-ctx.Done():
			return
		}
	}
}

// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/pluce/openlink/pkg/models"
	"github.com/pluce/openlink/pkg/sdk"
	"github.com/pluce/openlink/pkg/subjects"
)

// exchange flags.
var (
	exchangeDir string
)

var exchangeCmd = &cobra.Command{
	Use:   "exchange",
	Short: "Watch a directory and publish dropped envelope files",
	Long: `Watch a directory and publish every JSON envelope file that appears in
it, while received messages are printed to the terminal. Useful for
scripted conformance scenarios: drop a wire-example file into the
directory and observe the round trip.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		client, err := connect()
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := client.StartPresence(ctx, callsign, acarsAddress, 0); err != nil {
			return err
		}

		sub, err := client.SubscribeInbox(printEnvelope)
		if err != nil {
			return err
		}
		defer func() { _ = sub.Unsubscribe() }()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer func() { _ = watcher.Close() }()

		if err := watcher.Add(exchangeDir); err != nil {
			return err
		}
		log.WithField("dir", exchangeDir).Info("Watching for envelope files, ^C to stop")

		outbox := subjects.Outbox(client.Network(), client.Address())
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				if !strings.HasSuffix(event.Name, ".json") {
					continue
				}
				publishFile(client, outbox, event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				log.WithError(err).Warn("Directory watcher error")
			case <-ctx.Done():
				return nil
			}
		}
	},
}

func init() {
	exchangeCmd.Flags().StringVar(&exchangeDir, "dir", ".", "directory to watch")
}

// publishFile parses one dropped file and publishes it on the client's
// outbox. The file's routing source and token are rewritten to this
// client's identity so foreign fixtures stay usable.
func publishFile(client *sdk.Client, outbox, filename string) {
	raw, err := os.ReadFile(filename)
	if err != nil {
		log.WithError(err).WithField("file", filename).Warn("Cannot read envelope file")
		return
	}

	envelope, err := models.ParseEnvelope(raw)
	if err != nil {
		log.WithError(err).WithField("file", filename).Warn("Not a valid envelope, skipping")
		return
	}

	envelope.Routing.Source = models.AddressEndpoint(client.Network(), client.Address())
	envelope.Token = client.Credentials().JWT

	if err := client.PublishEnvelope(outbox, envelope); err != nil {
		log.WithError(err).WithField("file", filename).Warn("Publishing envelope failed")
		return
	}
	log.WithField("file", filepath.Base(filename)).Info("Envelope published")
}

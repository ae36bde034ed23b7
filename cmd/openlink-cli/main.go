// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

// openlink-cli is the operator client for the OpenLink network. It
// authenticates against the gateway, connects to the broker, and offers
// CPDLC send/listen leaves plus an interactive TUI.
//
//	openlink-cli --network-id demonetwork --auth-code code_765283 \
//	    acars --callsign AFR123 --address AY213 cpdlc listen
package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/spf13/cobra"

	"github.com/pluce/openlink/pkg/models"
	"github.com/pluce/openlink/pkg/sdk"
)

// Root flags.
var (
	networkID      string
	networkAddress string
	natsURL        string
	authURL        string
	authCode       string
	debug          bool
)

// ACARS identity flags.
var (
	callsign     string
	acarsAddress string
	atcMode      bool
)

var rootCmd = &cobra.Command{
	Use:           "openlink-cli",
	Short:         "OpenLink datalink network client",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if debug {
			log.SetLevel(log.DebugLevel)
		}
	},
}

var acarsCmd = &cobra.Command{
	Use:   "acars",
	Short: "ACARS-level operations for one endpoint identity",
}

var cpdlcCmd = &cobra.Command{
	Use:   "cpdlc",
	Short: "Controller-pilot datalink messaging",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&networkID, "network-id", "demonetwork", "network to operate on")
	rootCmd.PersistentFlags().StringVar(&networkAddress, "network-address", "", "expected network address (defaults to the authenticated CID)")
	rootCmd.PersistentFlags().StringVar(&natsURL, "nats-url", "nats://localhost:4222", "broker URL")
	rootCmd.PersistentFlags().StringVar(&authURL, "auth-url", "http://localhost:3001", "authentication gateway URL")
	rootCmd.PersistentFlags().StringVar(&authCode, "auth-code", "", "OIDC authorization code")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")

	acarsCmd.PersistentFlags().StringVar(&callsign, "callsign", "", "operational callsign (e.g. AFR123 or LFPG)")
	acarsCmd.PersistentFlags().StringVar(&acarsAddress, "address", "", "7-character ACARS address")
	acarsCmd.PersistentFlags().BoolVar(&atcMode, "atc", false, "act as an ATC ground station instead of an aircraft")
	_ = acarsCmd.MarkPersistentFlagRequired("callsign")
	_ = acarsCmd.MarkPersistentFlagRequired("address")

	cpdlcCmd.AddCommand(listenCmd, sendCmd, exchangeCmd, tuiCmd)
	acarsCmd.AddCommand(cpdlcCmd)
	rootCmd.AddCommand(acarsCmd)
}

// connect authenticates and dials the broker.
func connect() (*sdk.Client, error) {
	if authCode == "" {
		return nil, fmt.Errorf("an --auth-code is required")
	}

	client, err := sdk.ConnectWithAuthorizationCode(natsURL, authURL, authCode, models.NetworkID(networkID))
	if err != nil {
		return nil, err
	}

	if networkAddress != "" && networkAddress != client.CID() {
		client.Close()
		return nil, fmt.Errorf("authenticated as %s, but --network-address expects %s", client.CID(), networkAddress)
	}

	log.WithFields(log.Fields{
		"cid":     client.CID(),
		"network": networkID,
	}).Info("Connected")
	return client, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

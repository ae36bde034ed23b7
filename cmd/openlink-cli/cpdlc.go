// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/spf13/cobra"

	"github.com/pluce/openlink/pkg/models"
	"github.com/pluce/openlink/pkg/sdk"
)

// listen flags.
var (
	noAutoAck bool
)

// send flags.
var (
	sendTo       string
	sendOrigin   string
	sendDest     string
	sendElements []string
	sendMrn      int
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Subscribe the inbox and print every received message",
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

		responder := sdk.NewAutoResponder(client, !atcMode, callsign, acarsAddress)

		sub, err := client.SubscribeInbox(func(envelope models.Envelope) {
			printEnvelope(envelope)
			if !noAutoAck {
				responder.Handle(envelope)
			}
		})
		if err != nil {
			return err
		}
		defer func() { _ = sub.Unsubscribe() }()

		log.Info("Listening, ^C to stop")
		<-ctx.Done()
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send (logon|message)",
	Short: "Publish a CPDLC message",
}

var sendLogonCmd = &cobra.Command{
	Use:   "logon",
	Short: "Request logon with a ground station",
	RunE: func(_ *cobra.Command, _ []string) error {
		if sendTo == "" {
			return fmt.Errorf("a --to station is required")
		}

		client, err := connect()
		if err != nil {
			return err
		}
		defer client.Close()

		payload := sdk.CpdlcLogonRequest(callsign, acarsAddress, sendTo, sendOrigin, sendDest)
		if err := client.SendToServer(payload); err != nil {
			return err
		}
		fmt.Printf("Logon request sent to %s\n", sendTo)
		return nil
	},
}

var sendMessageCmd = &cobra.Command{
	Use:   "message",
	Short: "Send an operational message built from catalog elements",
	Long: `Send an operational message built from catalog elements.

Each --element takes "ID" or "ID:arg1,arg2", e.g.

  --element UM20:350            CLIMB TO FL350
  --element DM9:390             REQUEST CLIMB TO FL390
  --element "UM117:LFPG,121.5"  CONTACT LFPG 121.5`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if sendTo == "" {
			return fmt.Errorf("a --to callsign is required")
		}

		elements, err := parseElements(sendElements)
		if err != nil {
			return err
		}

		direction := models.Downlink
		if atcMode {
			direction = models.Uplink
		}
		if err := models.ValidateElements(elements, direction); err != nil {
			return err
		}

		var mrn *uint8
		if sendMrn >= 0 {
			value := uint8(sendMrn)
			mrn = &value
		}

		client, err := connect()
		if err != nil {
			return err
		}
		defer client.Close()

		var payload models.Payload
		if atcMode {
			payload = sdk.CpdlcStationApplication(callsign, sendTo, "", elements, mrn)
		} else {
			payload = sdk.CpdlcAircraftApplication(callsign, acarsAddress, sendTo, elements, mrn)
		}
		if err := client.SendToServer(payload); err != nil {
			return err
		}

		fmt.Printf("Sent: %s\n", renderText(elements))
		return nil
	},
}

func init() {
	listenCmd.Flags().BoolVar(&noAutoAck, "no-auto-ack", false, "disable automatic logical acknowledgements")

	sendCmd.PersistentFlags().StringVar(&sendTo, "to", "", "destination callsign")
	sendLogonCmd.Flags().StringVar(&sendOrigin, "origin", "", "flight plan origin (ICAO)")
	sendLogonCmd.Flags().StringVar(&sendDest, "destination", "", "flight plan destination (ICAO)")
	sendMessageCmd.Flags().StringArrayVar(&sendElements, "element", nil, "catalog element, ID or ID:arg1,arg2")
	sendMessageCmd.Flags().IntVar(&sendMrn, "mrn", -1, "MIN of the message being answered")

	sendCmd.AddCommand(sendLogonCmd, sendMessageCmd)
}

// parseElements turns "ID:arg1,arg2" specs into catalog elements, typing
// each argument by the catalog entry's argument list.
func parseElements(specs []string) ([]models.MessageElement, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("at least one --element is required")
	}

	elements := make([]models.MessageElement, 0, len(specs))
	for _, spec := range specs {
		id, rawArgs, _ := strings.Cut(spec, ":")
		entry := models.FindCatalogEntry(id)
		if entry == nil {
			return nil, fmt.Errorf("unknown element id %q", id)
		}

		var values []string
		if rawArgs != "" {
			values = strings.Split(rawArgs, ",")
		}
		if len(values) != len(entry.Args) {
			return nil, fmt.Errorf("%s wants %d arguments, got %d", id, len(entry.Args), len(values))
		}

		args := make([]models.Argument, len(values))
		for i, value := range values {
			arg, err := typedArgument(entry.Args[i], strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("%s argument %d: %w", id, i+1, err)
			}
			args[i] = arg
		}
		elements = append(elements, models.NewMessageElement(id, args...))
	}
	return elements, nil
}

// typedArgument parses one raw argument value into its catalog type.
func typedArgument(argType models.ArgType, value string) (models.Argument, error) {
	switch argType {
	case models.ArgLevel:
		level, err := models.ParseFlightLevel(value)
		if err != nil {
			return models.Argument{}, err
		}
		return models.LevelArg(level), nil
	case models.ArgDegrees:
		degrees, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return models.Argument{}, fmt.Errorf("%q is not a heading", value)
		}
		return models.DegreesArg(uint16(degrees)), nil
	default:
		return models.TextArg(argType, value), nil
	}
}

// renderText joins element texts for terminal output.
func renderText(elements []models.MessageElement) string {
	var text strings.Builder
	for _, part := range models.RenderElements(elements) {
		text.WriteString(part.Text)
	}
	return text.String()
}

// printEnvelope writes one received envelope to the terminal.
func printEnvelope(envelope models.Envelope) {
	acars := envelope.Payload.Acars
	if acars == nil || acars.Message.CPDLC == nil {
		return
	}
	cpdlc := acars.Message.CPDLC

	switch {
	case cpdlc.Message.Application != nil:
		app := cpdlc.Message.Application
		mrn := "-"
		if app.Mrn != nil {
			mrn = strconv.Itoa(int(*app.Mrn))
		}
		fmt.Printf("[%s] %s (MIN %d, MRN %s)\n",
			cpdlc.Source, app.Render(), app.Min, mrn)
	case cpdlc.Message.Meta != nil:
		fmt.Printf("[%s] %s\n", cpdlc.Source, cpdlc.Message.Meta.Summary())
	}
}

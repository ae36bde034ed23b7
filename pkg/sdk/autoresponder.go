// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sdk

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/pluce/openlink/pkg/models"
	"github.com/pluce/openlink/pkg/runtime"
)

// AutoResponder implements the conformance-required automatic client
// behaviours on inbound messages:
//
//   - answer every application message carrying a server-assigned MIN with
//     a logical acknowledgement, unless the message is one itself;
//   - on a UM117 CONTACT from the active data authority, publish a logon
//     request to the named station (aircraft clients only).
//
// Session state is projected from received SessionUpdate snapshots, never
// recomputed locally.
type AutoResponder struct {
	client *Client

	// aircraft is true for pilot-side clients.
	aircraft bool
	callsign string
	address  string

	mutex   sync.Mutex
	session models.SessionView
}

// NewAutoResponder builds an auto responder for the participant with the
// given operational identity. Set aircraft for pilot-side clients.
func NewAutoResponder(client *Client, aircraft bool, callsign, acarsAddress string) *AutoResponder {
	return &AutoResponder{
		client:   client,
		aircraft: aircraft,
		callsign: callsign,
		address:  acarsAddress,
	}
}

// Session returns the last projected session snapshot.
func (ar *AutoResponder) Session() models.SessionView {
	ar.mutex.Lock()
	defer ar.mutex.Unlock()
	return ar.session
}

// Handle inspects one inbound envelope and performs the automatic
// behaviours. It returns true when it published a reaction.
func (ar *AutoResponder) Handle(envelope models.Envelope) bool {
	if envelope.Payload.Acars == nil || envelope.Payload.Acars.Message.CPDLC == nil {
		return false
	}
	cpdlc := envelope.Payload.Acars.Message.CPDLC
	aircraft := envelope.Payload.Acars.Routing.Aircraft

	if update, ok := cpdlc.Message.Meta.(models.SessionUpdate); ok {
		ar.mutex.Lock()
		ar.session = update.Session
		ar.mutex.Unlock()
		return false
	}

	app := cpdlc.Message.Application
	if app == nil {
		return false
	}

	reacted := false
	if runtime.ShouldAutoSendLogicalAck(app.Elements, app.Min) {
		reacted = ar.sendLogicalAck(cpdlc, aircraft, app.Min) || reacted
	}
	if ar.aircraft {
		reacted = ar.maybeContact(cpdlc, app) || reacted
	}
	return reacted
}

// sendLogicalAck answers the received MIN with DM100 or UM227 depending
// on which side this client is.
func (ar *AutoResponder) sendLogicalAck(cpdlc *models.CpdlcEnvelope, aircraft models.AcarsEndpoint, min uint8) bool {
	direction := models.Uplink
	if ar.aircraft {
		direction = models.Downlink
	}

	payload := CpdlcLogicalAck(ar.callsign,
		aircraft.Callsign.String(), aircraft.Address.String(),
		cpdlc.Source.String(), direction, min)

	if err := ar.client.SendToServer(payload); err != nil {
		log.WithError(err).Warn("Automatic logical acknowledgement failed")
		return false
	}
	log.WithFields(log.Fields{
		"peer": cpdlc.Source,
		"mrn":  min,
	}).Debug("Sent automatic logical acknowledgement")
	return true
}

// maybeContact reacts to a UM117 CONTACT instruction from the active data
// authority by logging on to the named station.
func (ar *AutoResponder) maybeContact(cpdlc *models.CpdlcEnvelope, app *models.CpdlcApplicationMessage) bool {
	session := ar.Session()
	if session.ActiveConnection == nil || session.ActiveConnection.Peer != cpdlc.Source {
		return false
	}

	for _, element := range app.Elements {
		if element.ID != "UM117" || len(element.Args) == 0 {
			continue
		}
		next := element.Args[0].String()

		payload := CpdlcLogonRequest(ar.callsign, ar.address, next, "", "")
		if err := ar.client.SendToServer(payload); err != nil {
			log.WithError(err).WithField("station", next).Warn("Automatic logon request failed")
			return false
		}
		log.WithField("station", next).Info("Contact instruction received, logging on")
		return true
	}
	return false
}

// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nats-io/nats.go"

	"github.com/pluce/openlink/pkg/models"
	"github.com/pluce/openlink/pkg/sdk"
	"github.com/pluce/openlink/pkg/subjects"
)

// PresenceConfig tunes the station presence lease.
type PresenceConfig struct {
	// LeaseTTL is how long a station stays online without a heartbeat.
	LeaseTTL time.Duration
	// SweepInterval is how often the sweeper runs.
	SweepInterval time.Duration
	// AutoEndService synthesises an END SERVICE when a station holding
	// the active connection goes offline.
	AutoEndService bool
}

// DefaultPresenceConfig returns the spec defaults: 90 s lease, 20 s
// sweep, auto end-service on.
func DefaultPresenceConfig() PresenceConfig {
	return PresenceConfig{
		LeaseTTL:       90 * time.Second,
		SweepInterval:  20 * time.Second,
		AutoEndService: true,
	}
}

// Engine is the session engine of one network: it owns the session and
// registry buckets and routes every outbox envelope.
type Engine struct {
	network  models.NetworkID
	client   *sdk.Client
	sessions *SessionStore
	registry *StationRegistry
	handler  *CpdlcHandler
	presence PresenceConfig
	monitor  *Monitor
}

// NewEngine connects to the broker as the network's server and binds the
// KV buckets. With clean set, the buckets are reset first.
func NewEngine(network models.NetworkID, natsURL, authURL, serverSecret string, clean bool, presence PresenceConfig) (*Engine, error) {
	client, err := sdk.ConnectAsServer(natsURL, authURL, serverSecret, network)
	if err != nil {
		return nil, fmt.Errorf("server connection failed: %w", err)
	}

	js, err := client.Conn().JetStream()
	if err != nil {
		return nil, fmt.Errorf("JetStream unavailable: %w", err)
	}

	sessionsKV, err := OpenNatsKV(js, subjects.KVCpdlcSessions(network), clean)
	if err != nil {
		return nil, fmt.Errorf("binding session bucket: %w", err)
	}
	registryKV, err := OpenNatsKV(js, subjects.KVStationRegistry(network), clean)
	if err != nil {
		return nil, fmt.Errorf("binding registry bucket: %w", err)
	}
	indexKV, err := OpenNatsKV(js, subjects.KVStationCallsignIndex(network), clean)
	if err != nil {
		return nil, fmt.Errorf("binding callsign index bucket: %w", err)
	}

	return NewEngineWithStores(network, client, NewSessionStore(sessionsKV),
		NewStationRegistry(registryKV, indexKV), presence), nil
}

// NewEngineWithStores assembles an engine over explicit stores.
func NewEngineWithStores(network models.NetworkID, client *sdk.Client, sessions *SessionStore, registry *StationRegistry, presence PresenceConfig) *Engine {
	return &Engine{
		network:  network,
		client:   client,
		sessions: sessions,
		registry: registry,
		handler:  NewCpdlcHandler(sessions, registry),
		presence: presence,
	}
}

// AttachMonitor lets the engine feed the read-only monitor.
func (e *Engine) AttachMonitor(monitor *Monitor) {
	e.monitor = monitor
}

// Registry exposes the station registry, e.g. for the monitor.
func (e *Engine) Registry() *StationRegistry {
	return e.registry
}

// Run subscribes the outbox wildcard and processes envelopes until the
// context ends. The presence sweeper runs on its configured interval.
func (e *Engine) Run(ctx context.Context) error {
	messages, subscription, err := e.client.SubscribeAllOutbox()
	if err != nil {
		return err
	}
	defer func() {
		if err := subscription.Unsubscribe(); err != nil {
			log.WithError(err).Debug("Unsubscribing outbox wildcard failed")
		}
	}()

	log.WithFields(log.Fields{
		"network":        e.network,
		"lease_ttl":      e.presence.LeaseTTL,
		"sweep_interval": e.presence.SweepInterval,
	}).Info("Server listening")

	sweeper := time.NewTicker(e.presence.SweepInterval)
	defer sweeper.Stop()

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			e.dispatch(msg)
		case <-sweeper.C:
			e.sweepPresence()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dispatch parses, validates and routes one inbound message. The sender
// is untrusted: failures are logged and the message dropped, no reply.
func (e *Engine) dispatch(msg *nats.Msg) {
	envelope, err := models.ParseEnvelope(msg.Data)
	if err != nil {
		log.WithFields(log.Fields{
			"subject": msg.Subject,
			"error":   err,
		}).Warn("Ignoring malformed envelope")
		return
	}

	if !e.senderAuthentic(msg.Subject, envelope) {
		log.WithFields(log.Fields{
			"subject": msg.Subject,
			"source":  envelope.Routing.Source,
		}).Warn("Dropping envelope with spoofed source address")
		return
	}

	switch {
	case envelope.Payload.Meta != nil:
		e.handleStationStatus(envelope, *envelope.Payload.Meta)
	case envelope.Payload.Acars != nil:
		e.handleAcars(envelope, *envelope.Payload.Acars)
	default:
		log.Warn("Ignoring envelope without payload")
	}
}

// senderAuthentic checks the claimed source address against the subject
// the broker delivered the message on. The broker's JWT enforcement
// guarantees a client can only publish to its own outbox, so subject and
// claim must agree.
func (e *Engine) senderAuthentic(subject string, envelope models.Envelope) bool {
	sender, ok := subjects.ParseOutboxSender(subject)
	if !ok {
		return false
	}
	source := envelope.Routing.Source
	return !source.IsServer() && source.Address == models.NetworkAddress(sender)
}

// handleStationStatus refreshes the registry and reacts to presence
// transitions.
func (e *Engine) handleStationStatus(envelope models.Envelope, meta models.StationStatusMeta) {
	log.WithFields(log.Fields{
		"station": meta.ID,
		"status":  meta.Status,
	}).Info("Station status update")

	address := envelope.Routing.Source.Address
	if err := e.registry.UpdateStatus(meta.ID, meta.Status, meta.Endpoint, address); err != nil {
		log.WithError(err).Error("Failed to update station status")
		return
	}

	switch meta.Status {
	case models.StationOnline:
		if err := e.replaySnapshots(address, meta.Endpoint.Callsign, envelope.ID.String()); err != nil {
			log.WithError(err).WithField("callsign", meta.Endpoint.Callsign).
				Warn("Failed to replay session snapshots")
		}
	case models.StationOffline:
		if err := e.stationOffline(meta.Endpoint.Callsign, envelope.ID.String()); err != nil {
			log.WithError(err).WithField("callsign", meta.Endpoint.Callsign).
				Warn("Failed to process station offline transition")
		}
	}
}

// handleAcars routes an ACARS envelope, today always CPDLC.
func (e *Engine) handleAcars(envelope models.Envelope, acars models.AcarsEnvelope) {
	if acars.Message.CPDLC == nil {
		log.Warn("Ignoring ACARS envelope without CPDLC message")
		return
	}

	result, err := e.handler.Handle(envelope, acars, *acars.Message.CPDLC)
	if err != nil {
		log.WithError(err).Warn("CPDLC handler returned error")
		return
	}

	if result.Reject != nil {
		e.sendReject(envelope, *result.Reject)
	}

	if result.Destination != "" && result.Envelope != nil {
		e.forward(envelope, result.Destination, *result.Envelope)
	}

	if result.Session != nil {
		e.broadcastSessionUpdate(result.Session, acars.Message.CPDLC, envelope.ID.String())
	}
}

// forward delivers an envelope to the destination callsign's inbox. An
// unresolvable callsign answers the sender with a DM62 error.
func (e *Engine) forward(original models.Envelope, destination models.Callsign, envelope models.Envelope) {
	entry, err := e.registry.LookupCallsign(destination)
	if err != nil {
		log.WithError(err).Error("Registry lookup failed")
		return
	}
	if entry == nil {
		log.WithField("destination", destination).Info("Destination not resolvable")
		e.sendReject(original, e.unknownDestinationPayload(original, destination))
		return
	}

	envelope.Routing = models.Routing{
		Source:      models.ServerEndpoint(e.network),
		Destination: models.AddressEndpoint(e.network, entry.NetworkAddress),
	}

	if err := e.client.SendToStation(entry.NetworkAddress, envelope); err != nil {
		log.WithError(err).WithField("destination", destination).Error("Failed to forward message")
		return
	}
	log.WithFields(log.Fields{
		"destination": destination,
		"address":     entry.NetworkAddress,
	}).Debug("Forwarded envelope")

	if e.monitor != nil {
		e.monitor.Observe(envelope)
	}
}

// sendReject answers the sender of the original envelope with a
// server-generated payload.
func (e *Engine) sendReject(original models.Envelope, payload models.Payload) {
	source := original.Routing.Source
	if source.IsServer() {
		return
	}

	reply := models.NewEnvelopeBuilder(payload).
		SourceServer(e.network.String()).
		DestinationAddress(e.network.String(), source.Address.String()).
		CorrelationID(original.ID.String()).
		Build()

	if err := e.client.SendToStation(source.Address, reply); err != nil {
		log.WithError(err).Warn("Failed to deliver rejection to sender")
	}
}

// unknownDestinationPayload is the DM62 answer for unroutable traffic.
func (e *Engine) unknownDestinationPayload(original models.Envelope, destination models.Callsign) models.Payload {
	aircraft := models.AcarsEndpoint{Callsign: destination}
	if original.Payload.Acars != nil {
		aircraft = original.Payload.Acars.Routing.Aircraft
	}

	elements := []models.MessageElement{
		models.NewMessageElement("DM62",
			models.TextArg(models.ArgErrorInfo, fmt.Sprintf("STATION %s NOT AVAILABLE", destination))),
	}
	return models.NewCpdlcBuilder(aircraft.Callsign.String(), aircraft.Address.String()).
		From(aircraft.Callsign.String()).
		To(destination.String()).
		Application(elements, nil).
		Build()
}

// broadcastSessionUpdate sends every involved party its projected session
// snapshot: the aircraft always, plus each station holding a connection
// or taking part in the triggering exchange. Stations that just lost
// their connection still receive a snapshot so they can clear UI state.
func (e *Engine) broadcastSessionUpdate(session *Session, trigger *models.CpdlcEnvelope, correlationID string) {
	aircraft := session.Aircraft

	e.sendSessionView(aircraft.Callsign, session.ToAircraftView(), session, correlationID)

	stations := make(map[models.Callsign]bool)
	for _, callsign := range session.Involved() {
		stations[callsign] = true
	}
	if trigger != nil {
		if trigger.Source != aircraft.Callsign {
			stations[trigger.Source] = true
		}
		if trigger.Destination != aircraft.Callsign {
			stations[trigger.Destination] = true
		}
	}

	for station := range stations {
		e.sendSessionView(station, session.ToStationView(station), session, correlationID)
	}
}

// sendSessionView wraps one session view into a SessionUpdate envelope
// and delivers it to the recipient's inbox.
func (e *Engine) sendSessionView(recipient models.Callsign, view models.SessionView, session *Session, correlationID string) {
	entry, err := e.registry.LookupCallsign(recipient)
	if err != nil || entry == nil {
		log.WithField("callsign", recipient).Debug("Recipient not in registry, skipping SessionUpdate")
		return
	}

	payload := models.NewCpdlcBuilder(session.Aircraft.Callsign.String(), session.Aircraft.Address.String()).
		From("SERVER").
		To(recipient.String()).
		SessionUpdate(view).
		Build()

	envelope := models.NewEnvelopeBuilder(payload).
		SourceServer(e.network.String()).
		DestinationAddress(e.network.String(), entry.NetworkAddress.String()).
		CorrelationID(correlationID).
		Build()

	if err := e.client.SendToStation(entry.NetworkAddress, envelope); err != nil {
		log.WithError(err).WithField("callsign", recipient).Error("Failed to send SessionUpdate")
		return
	}
	log.WithField("callsign", recipient).Debug("Sent SessionUpdate")
}

// replaySnapshots resends the current session snapshots a participant is
// involved in, e.g. after it (re)announced itself online.
func (e *Engine) replaySnapshots(address models.NetworkAddress, callsign models.Callsign, correlationID string) error {
	sessions, err := e.sessions.List()
	if err != nil {
		return err
	}

	for _, session := range sessions {
		var view models.SessionView
		switch {
		case session.Aircraft.Callsign == callsign:
			view = session.ToAircraftView()
		case session.connectionWith(callsign) != nil:
			view = session.ToStationView(callsign)
		default:
			continue
		}

		payload := models.NewCpdlcBuilder(session.Aircraft.Callsign.String(), session.Aircraft.Address.String()).
			From("SERVER").
			To(callsign.String()).
			SessionUpdate(view).
			Build()

		envelope := models.NewEnvelopeBuilder(payload).
			SourceServer(e.network.String()).
			DestinationAddress(e.network.String(), address.String()).
			CorrelationID(correlationID).
			Build()

		if err := e.client.SendToStation(address, envelope); err != nil {
			return err
		}
	}
	return nil
}

// sweepPresence expires stale stations and applies the offline rule.
func (e *Engine) sweepPresence() {
	expired, err := e.registry.ExpireStaleOnline(e.presence.LeaseTTL)
	if err != nil {
		log.WithError(err).Warn("Presence sweeper failed")
	}

	for _, entry := range expired {
		log.WithFields(log.Fields{
			"station":  entry.StationID,
			"callsign": entry.Endpoint.Callsign,
		}).Info("Presence lease expired, station marked offline")

		correlationID := fmt.Sprintf("presence-expire-%s", entry.StationID)
		if err := e.stationOffline(entry.Endpoint.Callsign, correlationID); err != nil {
			log.WithError(err).WithField("station", entry.StationID).
				Warn("Failed to process station offline transition")
		}
	}
}

// stationOffline terminates every session in which the station holds the
// active connection: the aircraft receives a synthesised UM161 END
// SERVICE from the station, then the promotion rule applies and the new
// snapshot goes out.
func (e *Engine) stationOffline(station models.Callsign, correlationID string) error {
	sessions, err := e.sessions.List()
	if err != nil {
		return err
	}

	for _, stored := range sessions {
		if active := stored.connectionWith(station); active == nil || active != stored.Active {
			continue
		}

		var syntheticMin uint8
		session, err := e.sessions.Update(stored.Aircraft.Callsign, func(session *Session) (*Session, error) {
			if session == nil {
				return nil, nil
			}
			connection := session.connectionWith(station)
			if connection == nil || connection != session.Active {
				return session, nil // no longer the active connection
			}
			syntheticMin = connection.NextMin(models.Uplink)
			if err := session.EndService(station); err != nil {
				return session, nil // already terminated elsewhere
			}
			return session, nil
		})
		if err != nil {
			log.WithError(err).WithField("aircraft", stored.Aircraft.Callsign).
				Warn("Failed to terminate session for offline station")
			continue
		}
		if session == nil {
			continue
		}

		if e.presence.AutoEndService {
			e.sendSyntheticEndService(session, station, syntheticMin, correlationID)
		}

		e.broadcastSessionUpdate(session, nil, correlationID)
	}
	return nil
}

// sendSyntheticEndService delivers the server-generated UM161 to the
// aircraft on behalf of the vanished station.
func (e *Engine) sendSyntheticEndService(session *Session, station models.Callsign, min uint8, correlationID string) {
	entry, err := e.registry.LookupCallsign(session.Aircraft.Callsign)
	if err != nil || entry == nil {
		log.WithField("aircraft", session.Aircraft.Callsign).
			Debug("Aircraft not reachable for synthetic END SERVICE")
		return
	}

	elements := []models.MessageElement{models.NewMessageElement("UM161")}
	payload := models.NewCpdlcBuilder(session.Aircraft.Callsign.String(), session.Aircraft.Address.String()).
		From(station.String()).
		To(session.Aircraft.Callsign.String()).
		Application(elements, nil).
		Build()
	if acars := payload.Acars; acars != nil && acars.Message.CPDLC != nil && acars.Message.CPDLC.Message.Application != nil {
		acars.Message.CPDLC.Message.Application.Min = min
	}

	envelope := models.NewEnvelopeBuilder(payload).
		SourceServer(e.network.String()).
		DestinationAddress(e.network.String(), entry.NetworkAddress.String()).
		CorrelationID(correlationID).
		Build()

	if err := e.client.SendToStation(entry.NetworkAddress, envelope); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"aircraft": session.Aircraft.Callsign,
			"station":  station,
		}).Warn("Failed to send automatic END SERVICE")
	}
}

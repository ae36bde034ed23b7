// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package models

import (
	"time"

	"github.com/google/uuid"
)

// CpdlcBuilder assembles the nested ACARS/CPDLC payload hierarchy with a
// fluent chain instead of hand-written struct literals.
//
//	payload := models.NewCpdlcBuilder("AFR123", "AY213").
//		From("AFR123").
//		To("LFPG").
//		LogonRequest("LFPG", "LFPG", "EGLL").
//		Build()
type CpdlcBuilder struct {
	aircraft    AcarsEndpoint
	source      Callsign
	destination Callsign
	message     CpdlcMessage
}

// NewCpdlcBuilder starts a CPDLC payload for the given aircraft.
func NewCpdlcBuilder(aircraftCallsign, aircraftAddress string) *CpdlcBuilder {
	return &CpdlcBuilder{
		aircraft: NewAcarsEndpoint(aircraftCallsign, aircraftAddress),
	}
}

// From sets the CPDLC source callsign.
func (b *CpdlcBuilder) From(callsign string) *CpdlcBuilder {
	b.source = Callsign(callsign)
	return b
}

// To sets the CPDLC destination callsign.
func (b *CpdlcBuilder) To(callsign string) *CpdlcBuilder {
	b.destination = Callsign(callsign)
	return b
}

// LogonRequest sets a logon request meta message.
func (b *CpdlcBuilder) LogonRequest(station, origin, destination string) *CpdlcBuilder {
	b.message = MetaMessage(LogonRequest{
		Station:               Callsign(station),
		FlightPlanOrigin:      NewICAOAirportCode(origin),
		FlightPlanDestination: NewICAOAirportCode(destination),
	})
	return b
}

// LogonResponse sets a logon response meta message.
func (b *CpdlcBuilder) LogonResponse(accepted bool) *CpdlcBuilder {
	b.message = MetaMessage(LogonResponse{Accepted: accepted})
	return b
}

// ConnectionRequest sets a connection request meta message.
func (b *CpdlcBuilder) ConnectionRequest() *CpdlcBuilder {
	b.message = MetaMessage(ConnectionRequest{})
	return b
}

// ConnectionResponse sets a connection response meta message.
func (b *CpdlcBuilder) ConnectionResponse(accepted bool) *CpdlcBuilder {
	b.message = MetaMessage(ConnectionResponse{Accepted: accepted})
	return b
}

// ContactRequest sets a contact request meta message.
func (b *CpdlcBuilder) ContactRequest(station string) *CpdlcBuilder {
	b.message = MetaMessage(ContactRequest{Station: Callsign(station)})
	return b
}

// ContactResponse sets a contact response meta message.
func (b *CpdlcBuilder) ContactResponse(accepted bool) *CpdlcBuilder {
	b.message = MetaMessage(ContactResponse{Accepted: accepted})
	return b
}

// ContactComplete sets a contact complete meta message.
func (b *CpdlcBuilder) ContactComplete() *CpdlcBuilder {
	b.message = MetaMessage(ContactComplete{})
	return b
}

// LogonForward sets a ground-to-ground logon forward meta message.
func (b *CpdlcBuilder) LogonForward(flight, origin, destination, newStation string) *CpdlcBuilder {
	b.message = MetaMessage(LogonForward{
		Flight:                Callsign(flight),
		FlightPlanOrigin:      NewICAOAirportCode(origin),
		FlightPlanDestination: NewICAOAirportCode(destination),
		NewStation:            Callsign(newStation),
	})
	return b
}

// NextDataAuthority sets an NDA designation meta message.
func (b *CpdlcBuilder) NextDataAuthority(callsign, address string) *CpdlcBuilder {
	b.message = MetaMessage(NextDataAuthority{NDA: NewAcarsEndpoint(callsign, address)})
	return b
}

// EndService sets an end-of-service meta message.
func (b *CpdlcBuilder) EndService() *CpdlcBuilder {
	b.message = MetaMessage(EndService{})
	return b
}

// SessionUpdate sets a session snapshot meta message.
func (b *CpdlcBuilder) SessionUpdate(view SessionView) *CpdlcBuilder {
	b.message = MetaMessage(SessionUpdate{Session: view})
	return b
}

// Application sets an operational message. Clients submit min 0; the
// server assigns the definitive MIN when forwarding.
func (b *CpdlcBuilder) Application(elements []MessageElement, mrn *uint8) *CpdlcBuilder {
	b.message = ApplicationMessage(CpdlcApplicationMessage{
		Min:       0,
		Mrn:       mrn,
		Elements:  elements,
		Timestamp: time.Now().UTC(),
	})
	return b
}

// LogicalAck sets a single-element logical acknowledgement referencing the
// given MIN: DM100 when the aircraft answers, UM227 when a station does.
func (b *CpdlcBuilder) LogicalAck(direction Direction, mrn uint8) *CpdlcBuilder {
	id := "DM100"
	if direction == Uplink {
		id = "UM227"
	}
	return b.Application([]MessageElement{NewMessageElement(id)}, &mrn)
}

// Build assembles the payload.
func (b *CpdlcBuilder) Build() Payload {
	return AcarsPayload(AcarsEnvelope{
		Routing: AcarsRouting{Aircraft: b.aircraft},
		Message: AcarsMessage{CPDLC: &CpdlcEnvelope{
			Source:      b.source,
			Destination: b.destination,
			Message:     b.message,
		}},
	})
}

// Envelope continues into an envelope builder around the built payload.
func (b *CpdlcBuilder) Envelope() *EnvelopeBuilder {
	return NewEnvelopeBuilder(b.Build())
}

// StationStatusBuilder assembles a presence announcement payload.
type StationStatusBuilder struct {
	id       StationID
	endpoint AcarsEndpoint
}

// NewStationStatusBuilder starts a status payload for the given station.
func NewStationStatusBuilder(id, callsign, address string) *StationStatusBuilder {
	return &StationStatusBuilder{
		id:       StationID(id),
		endpoint: NewAcarsEndpoint(callsign, address),
	}
}

// Online builds an Online announcement.
func (b *StationStatusBuilder) Online() Payload {
	return StationStatusPayload(StationStatusMeta{
		ID: b.id, Status: StationOnline, Endpoint: b.endpoint,
	})
}

// Offline builds an Offline announcement.
func (b *StationStatusBuilder) Offline() Payload {
	return StationStatusPayload(StationStatusMeta{
		ID: b.id, Status: StationOffline, Endpoint: b.endpoint,
	})
}

// EnvelopeBuilder assembles the outer envelope around a payload.
type EnvelopeBuilder struct {
	payload       Payload
	source        RoutingEndpoint
	destination   RoutingEndpoint
	correlationID *string
	token         string
}

// NewEnvelopeBuilder starts an envelope around the given payload.
func NewEnvelopeBuilder(payload Payload) *EnvelopeBuilder {
	return &EnvelopeBuilder{payload: payload}
}

// SourceAddress routes from a station address.
func (b *EnvelopeBuilder) SourceAddress(network, address string) *EnvelopeBuilder {
	b.source = AddressEndpoint(NetworkID(network), NetworkAddress(address))
	return b
}

// SourceServer routes from the network server.
func (b *EnvelopeBuilder) SourceServer(network string) *EnvelopeBuilder {
	b.source = ServerEndpoint(NetworkID(network))
	return b
}

// DestinationAddress routes to a station address.
func (b *EnvelopeBuilder) DestinationAddress(network, address string) *EnvelopeBuilder {
	b.destination = AddressEndpoint(NetworkID(network), NetworkAddress(address))
	return b
}

// DestinationServer routes to the network server.
func (b *EnvelopeBuilder) DestinationServer(network string) *EnvelopeBuilder {
	b.destination = ServerEndpoint(NetworkID(network))
	return b
}

// CorrelationID links the envelope to an earlier request.
func (b *EnvelopeBuilder) CorrelationID(id string) *EnvelopeBuilder {
	b.correlationID = &id
	return b
}

// Token sets the sender's bearer JWT.
func (b *EnvelopeBuilder) Token(token string) *EnvelopeBuilder {
	b.token = token
	return b
}

// Build assembles the envelope with a fresh id and timestamp.
func (b *EnvelopeBuilder) Build() Envelope {
	return Envelope{
		ID:            uuid.New(),
		Timestamp:     time.Now().UTC(),
		CorrelationID: b.correlationID,
		Routing:       Routing{Source: b.source, Destination: b.destination},
		Payload:       b.payload,
		Token:         b.token,
	}
}

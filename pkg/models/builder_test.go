// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package models

import (
	"testing"
)

func TestCpdlcBuilderLogonRequest(t *testing.T) {
	payload := NewCpdlcBuilder("AFR123", "AY213").
		From("AFR123").
		To("LFPG").
		LogonRequest("LFPG", "LFPG", "KJFK").
		Build()

	if payload.Acars == nil {
		t.Fatal("payload should be ACARS")
	}
	if cs := payload.Acars.Routing.Aircraft.Callsign; cs != "AFR123" {
		t.Errorf("aircraft callsign = %s", cs)
	}

	cpdlc := payload.Acars.Message.CPDLC
	if cpdlc == nil {
		t.Fatal("message should be CPDLC")
	}
	if cpdlc.Source != "AFR123" || cpdlc.Destination != "LFPG" {
		t.Errorf("routing %s -> %s", cpdlc.Source, cpdlc.Destination)
	}

	logon, ok := cpdlc.Message.Meta.(LogonRequest)
	if !ok {
		t.Fatalf("message is %T", cpdlc.Message.Meta)
	}
	if logon.Station != "LFPG" || logon.FlightPlanOrigin != "LFPG" || logon.FlightPlanDestination != "KJFK" {
		t.Errorf("logon request = %+v", logon)
	}
}

func TestCpdlcBuilderApplication(t *testing.T) {
	mrn := uint8(4)
	payload := NewCpdlcBuilder("AFR123", "AY213").
		From("AFR123").
		To("LFPG").
		Application([]MessageElement{NewMessageElement("DM0")}, &mrn).
		Build()

	app := payload.Acars.Message.CPDLC.Message.Application
	if app == nil {
		t.Fatal("message should be an application message")
	}
	if app.Min != 0 {
		t.Errorf("client-built MIN must be the 0 placeholder, got %d", app.Min)
	}
	if app.Mrn == nil || *app.Mrn != 4 {
		t.Errorf("mrn = %v", app.Mrn)
	}
	if app.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestCpdlcBuilderLogicalAck(t *testing.T) {
	payload := NewCpdlcBuilder("AFR123", "AY213").
		From("AFR123").
		To("LFPG").
		LogicalAck(Downlink, 7).
		Build()

	app := payload.Acars.Message.CPDLC.Message.Application
	if len(app.Elements) != 1 || app.Elements[0].ID != "DM100" {
		t.Fatalf("downlink logical ack elements = %v", app.Elements)
	}
	if app.Mrn == nil || *app.Mrn != 7 {
		t.Fatalf("mrn = %v", app.Mrn)
	}

	payload = NewCpdlcBuilder("AFR123", "AY213").
		From("LFPG").
		To("AFR123").
		LogicalAck(Uplink, 9).
		Build()
	app = payload.Acars.Message.CPDLC.Message.Application
	if app.Elements[0].ID != "UM227" {
		t.Fatalf("uplink logical ack element = %s", app.Elements[0].ID)
	}
}

func TestStationStatusBuilder(t *testing.T) {
	online := NewStationStatusBuilder("1234", "LFPG", "LFPGCYA").Online()
	if online.Meta == nil {
		t.Fatal("payload should be meta")
	}
	if online.Meta.Status != StationOnline {
		t.Errorf("status = %s", online.Meta.Status)
	}
	if online.Meta.ID != "1234" || online.Meta.Endpoint.Callsign != "LFPG" {
		t.Errorf("meta = %+v", online.Meta)
	}

	offline := NewStationStatusBuilder("1234", "LFPG", "LFPGCYA").Offline()
	if offline.Meta.Status != StationOffline {
		t.Errorf("status = %s", offline.Meta.Status)
	}
}

func TestEnvelopeBuilderRouting(t *testing.T) {
	envelope := NewCpdlcBuilder("AFR123", "AY213").
		From("AFR123").
		To("LFPG").
		ConnectionResponse(true).
		Envelope().
		SourceAddress("demonetwork", "765283").
		DestinationServer("demonetwork").
		Token("tok").
		Build()

	if envelope.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("envelope id not assigned")
	}
	if envelope.Timestamp.IsZero() {
		t.Error("timestamp not assigned")
	}
	if envelope.Routing.Source != AddressEndpoint("demonetwork", "765283") {
		t.Errorf("source = %v", envelope.Routing.Source)
	}
	if !envelope.Routing.Destination.IsServer() {
		t.Errorf("destination = %v", envelope.Routing.Destination)
	}
	if envelope.Token != "tok" {
		t.Errorf("token = %q", envelope.Token)
	}
	if envelope.CorrelationID != nil {
		t.Errorf("correlation id should default to nil")
	}
}

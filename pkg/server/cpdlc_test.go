// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"testing"

	"github.com/pluce/openlink/pkg/models"
)

// handlerFixture is a CPDLC handler over in-memory stores with the
// spec's three participants registered.
type handlerFixture struct {
	handler  *CpdlcHandler
	sessions *SessionStore
	registry *StationRegistry
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	sessions := NewSessionStore(NewMemoryKV())
	registry := testRegistry()

	stations := []struct {
		id       string
		callsign string
		acars    string
		address  string
	}{
		{"CID_AFR", "AFR123", "AY213", "CID_AFR"},
		{"CID_LFPG", "LFPG", "LFPGCYA", "CID_LFPG"},
		{"CID_EGLL", "EGLL", "EGLLCYA", "CID_EGLL"},
	}
	for _, station := range stations {
		err := registry.UpdateStatus(models.StationID(station.id), models.StationOnline,
			endpoint(station.callsign, station.acars), models.NetworkAddress(station.address))
		if err != nil {
			t.Fatal(err)
		}
	}

	return &handlerFixture{
		handler:  NewCpdlcHandler(sessions, registry),
		sessions: sessions,
		registry: registry,
	}
}

// deliver wraps a payload into an envelope and runs it through the
// handler.
func (f *handlerFixture) deliver(t *testing.T, payload models.Payload, sourceAddress string) *Result {
	t.Helper()

	envelope := models.NewEnvelopeBuilder(payload).
		SourceAddress("demonetwork", sourceAddress).
		DestinationServer("demonetwork").
		Token("tok").
		Build()

	result, err := f.handler.Handle(envelope, *payload.Acars, *payload.Acars.Message.CPDLC)
	if err != nil {
		t.Fatalf("handler errored: %v", err)
	}
	return result
}

// rejectElement extracts the single element id of a rejection payload.
func rejectElement(t *testing.T, result *Result) string {
	t.Helper()

	if result.Reject == nil {
		t.Fatal("expected a rejection")
	}
	app := result.Reject.Acars.Message.CPDLC.Message.Application
	if app == nil || len(app.Elements) == 0 {
		t.Fatalf("rejection payload malformed: %+v", result.Reject)
	}
	return app.Elements[0].ID
}

// logonPayload is scenario 1's logon request.
func logonPayload() models.Payload {
	return models.NewCpdlcBuilder("AFR123", "AY213").
		From("AFR123").
		To("LFPG").
		LogonRequest("LFPG", "LFPG", "EGLL").
		Build()
}

// establish walks scenarios 1+2 up to a connected LFPG.
func (f *handlerFixture) establish(t *testing.T) {
	t.Helper()

	f.deliver(t, logonPayload(), "CID_AFR")
	f.deliver(t, models.NewCpdlcBuilder("AFR123", "AY213").
		From("LFPG").To("AFR123").LogonResponse(true).Build(), "CID_LFPG")
	f.deliver(t, models.NewCpdlcBuilder("AFR123", "AY213").
		From("LFPG").To("AFR123").ConnectionRequest().Build(), "CID_LFPG")
	f.deliver(t, models.NewCpdlcBuilder("AFR123", "AY213").
		From("AFR123").To("LFPG").ConnectionResponse(true).Build(), "CID_AFR")
}

func TestHandlerNominalLogon(t *testing.T) {
	fixture := newHandlerFixture(t)

	result := fixture.deliver(t, logonPayload(), "CID_AFR")

	if result.Destination != "LFPG" {
		t.Errorf("destination = %s", result.Destination)
	}
	if result.Reject != nil {
		t.Errorf("unexpected rejection: %+v", result.Reject)
	}
	if result.Session == nil {
		t.Fatal("session should have mutated")
	}
	if result.Session.Active == nil ||
		result.Session.Active.Station.Callsign != "LFPG" ||
		result.Session.Active.Phase != models.PhaseLogonPending {
		t.Errorf("active = %+v", result.Session.Active)
	}
}

func TestHandlerConnectionEstablishment(t *testing.T) {
	fixture := newHandlerFixture(t)
	fixture.establish(t)

	session, err := fixture.sessions.Get("AFR123")
	if err != nil {
		t.Fatal(err)
	}
	if session.Active == nil || session.Active.Phase != models.PhaseConnected {
		t.Fatalf("active = %+v", session.Active)
	}
}

func TestHandlerMinAssignment(t *testing.T) {
	fixture := newHandlerFixture(t)
	fixture.establish(t)

	// Scenario 3: LFPG uplinks UM20 with the MIN placeholder.
	uplink := models.NewCpdlcBuilder("AFR123", "AY213").
		From("LFPG").To("AFR123").
		Application([]models.MessageElement{
			models.NewMessageElement("UM20", models.LevelArg(models.NewFlightLevel(350))),
		}, nil).
		Build()

	result := fixture.deliver(t, uplink, "CID_LFPG")
	if result.Reject != nil {
		t.Fatalf("uplink rejected: %+v", result.Reject)
	}
	if result.Destination != "AFR123" {
		t.Errorf("destination = %s", result.Destination)
	}

	forwarded := result.Envelope.Payload.Acars.Message.CPDLC.Message.Application
	if forwarded.Min != 1 {
		t.Errorf("assigned MIN = %d, expected 1", forwarded.Min)
	}

	// The aircraft answers WILCO referencing MIN 1.
	mrn := uint8(1)
	downlink := models.NewCpdlcBuilder("AFR123", "AY213").
		From("AFR123").To("LFPG").
		Application([]models.MessageElement{models.NewMessageElement("DM0")}, &mrn).
		Build()

	result = fixture.deliver(t, downlink, "CID_AFR")
	if result.Reject != nil {
		t.Fatalf("downlink rejected: %+v", result.Reject)
	}

	answered := result.Envelope.Payload.Acars.Message.CPDLC.Message.Application
	if answered.Min != 1 {
		t.Errorf("downlink MIN = %d, expected 1 on the independent counter", answered.Min)
	}
	if answered.Mrn == nil || *answered.Mrn != 1 {
		t.Errorf("mrn = %v, must be preserved", answered.Mrn)
	}

	// A second uplink advances the uplink counter.
	result = fixture.deliver(t, models.NewCpdlcBuilder("AFR123", "AY213").
		From("LFPG").To("AFR123").
		Application([]models.MessageElement{
			models.NewMessageElement("UM19", models.LevelArg(models.NewFlightLevel(350))),
		}, nil).
		Build(), "CID_LFPG")

	if min := result.Envelope.Payload.Acars.Message.CPDLC.Message.Application.Min; min != 2 {
		t.Errorf("second uplink MIN = %d, expected 2", min)
	}
}

func TestHandlerSubmittedMinPreserved(t *testing.T) {
	fixture := newHandlerFixture(t)
	fixture.establish(t)

	uplink := models.NewCpdlcBuilder("AFR123", "AY213").
		From("LFPG").To("AFR123").
		Application([]models.MessageElement{models.NewMessageElement("UM161")}, nil).
		Build()
	uplink.Acars.Message.CPDLC.Message.Application.Min = 42

	result := fixture.deliver(t, uplink, "CID_LFPG")
	if min := result.Envelope.Payload.Acars.Message.CPDLC.Message.Application.Min; min != 42 {
		t.Errorf("non-placeholder MIN rewritten to %d", min)
	}
}

func TestHandlerHandover(t *testing.T) {
	fixture := newHandlerFixture(t)
	fixture.establish(t)

	// Scenario 4: UM160 NEXT DATA AUTHORITY EGLL.
	um160 := models.NewCpdlcBuilder("AFR123", "AY213").
		From("LFPG").To("AFR123").
		Application([]models.MessageElement{
			models.NewMessageElement("UM160", models.TextArg(models.ArgFacilityDesignation, "EGLL")),
		}, nil).
		Build()

	result := fixture.deliver(t, um160, "CID_LFPG")
	if result.Session == nil {
		t.Fatal("UM160 should mutate the session")
	}
	if result.Session.NextDataAuthority == nil || *result.Session.NextDataAuthority != "EGLL" {
		t.Fatalf("nda = %v", result.Session.NextDataAuthority)
	}

	// EGLL opens its connection.
	fixture.deliver(t, models.NewCpdlcBuilder("AFR123", "AY213").
		From("EGLL").To("AFR123").ConnectionRequest().Build(), "CID_EGLL")

	session, err := fixture.sessions.Get("AFR123")
	if err != nil {
		t.Fatal(err)
	}
	if session.Inactive == nil || session.Inactive.Station.Callsign != "EGLL" ||
		session.Inactive.Phase != models.PhaseConnected {
		t.Fatalf("inactive = %+v", session.Inactive)
	}

	// UM161 END SERVICE promotes EGLL.
	um161 := models.NewCpdlcBuilder("AFR123", "AY213").
		From("LFPG").To("AFR123").
		Application([]models.MessageElement{models.NewMessageElement("UM161")}, nil).
		Build()

	result = fixture.deliver(t, um161, "CID_LFPG")
	if result.Session == nil {
		t.Fatal("UM161 should mutate the session")
	}
	if result.Session.Active == nil || result.Session.Active.Station.Callsign != "EGLL" {
		t.Fatalf("active after promotion = %+v", result.Session.Active)
	}
	if result.Session.Inactive != nil || result.Session.NextDataAuthority != nil {
		t.Fatalf("inactive/nda not cleared: %+v / %v",
			result.Session.Inactive, result.Session.NextDataAuthority)
	}
}

func TestHandlerRejectsNonAuthority(t *testing.T) {
	fixture := newHandlerFixture(t)
	fixture.establish(t)

	// Scenario 6: EGLL is neither CDA nor NDA.
	um20 := models.NewCpdlcBuilder("AFR123", "AY213").
		From("EGLL").To("AFR123").
		Application([]models.MessageElement{
			models.NewMessageElement("UM20", models.LevelArg(models.NewFlightLevel(350))),
		}, nil).
		Build()

	result := fixture.deliver(t, um20, "CID_EGLL")

	if result.Destination != "" {
		t.Errorf("unauthorised traffic must not forward, destination = %s", result.Destination)
	}
	if id := rejectElement(t, result); id != "DM63" {
		t.Errorf("rejection element = %s, expected DM63", id)
	}

	// The session is untouched.
	session, err := fixture.sessions.Get("AFR123")
	if err != nil {
		t.Fatal(err)
	}
	if session.Active.Station.Callsign != "LFPG" || session.Inactive != nil {
		t.Errorf("session changed: %+v", session)
	}
}

func TestHandlerRejectsPendingNDAWithDM107(t *testing.T) {
	fixture := newHandlerFixture(t)
	fixture.establish(t)

	// Designate EGLL, but let it send before connecting.
	fixture.deliver(t, models.NewCpdlcBuilder("AFR123", "AY213").
		From("LFPG").To("AFR123").
		Application([]models.MessageElement{
			models.NewMessageElement("UM160", models.TextArg(models.ArgFacilityDesignation, "EGLL")),
		}, nil).
		Build(), "CID_LFPG")

	um20 := models.NewCpdlcBuilder("AFR123", "AY213").
		From("EGLL").To("AFR123").
		Application([]models.MessageElement{
			models.NewMessageElement("UM20", models.LevelArg(models.NewFlightLevel(350))),
		}, nil).
		Build()

	result := fixture.deliver(t, um20, "CID_EGLL")
	if id := rejectElement(t, result); id != "DM107" {
		t.Errorf("rejection element = %s, expected DM107", id)
	}
}

func TestHandlerRejectsInvalidElements(t *testing.T) {
	fixture := newHandlerFixture(t)
	fixture.establish(t)

	// DM0 is a downlink element; LFPG must not uplink it.
	wrongDirection := models.NewCpdlcBuilder("AFR123", "AY213").
		From("LFPG").To("AFR123").
		Application([]models.MessageElement{models.NewMessageElement("DM0")}, nil).
		Build()

	result := fixture.deliver(t, wrongDirection, "CID_LFPG")
	if result.Destination != "" {
		t.Error("invalid message must not forward")
	}
	if id := rejectElement(t, result); id != "DM62" {
		t.Errorf("rejection element = %s, expected DM62", id)
	}
}

func TestHandlerDownlinkWithoutConnection(t *testing.T) {
	fixture := newHandlerFixture(t)

	downlink := models.NewCpdlcBuilder("AFR123", "AY213").
		From("AFR123").To("LFPG").
		Application([]models.MessageElement{
			models.NewMessageElement("DM9", models.LevelArg(models.NewFlightLevel(390))),
		}, nil).
		Build()

	result := fixture.deliver(t, downlink, "CID_AFR")
	if result.Destination != "" {
		t.Error("unconnected downlink must not forward")
	}
	if id := rejectElement(t, result); id != "DM62" {
		t.Errorf("rejection element = %s, expected DM62", id)
	}
}

func TestHandlerLogonForwardRoutesToNewStation(t *testing.T) {
	fixture := newHandlerFixture(t)

	forward := models.NewCpdlcBuilder("AFR123", "AY213").
		From("LFPG").To("EGLL").
		LogonForward("AFR123", "LFPG", "EGLL", "EGLL").
		Build()

	result := fixture.deliver(t, forward, "CID_LFPG")
	if result.Destination != "EGLL" {
		t.Errorf("destination = %s, expected EGLL", result.Destination)
	}
	if result.Session != nil {
		t.Error("logon forward must not mutate sessions")
	}
}

func TestHandlerDropsClientSessionUpdate(t *testing.T) {
	fixture := newHandlerFixture(t)

	spoofed := models.NewCpdlcBuilder("AFR123", "AY213").
		From("LFPG").To("AFR123").
		SessionUpdate(models.SessionView{Aircraft: "AFR123"}).
		Build()

	result := fixture.deliver(t, spoofed, "CID_LFPG")
	if result.Destination != "" || result.Session != nil || result.Reject != nil {
		t.Errorf("client SessionUpdate must be dropped silently: %+v", result)
	}
}

// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"testing"

	"github.com/pluce/openlink/pkg/models"
)

func endpoint(callsign, address string) models.AcarsEndpoint {
	return models.NewAcarsEndpoint(callsign, address)
}

func TestSessionNominalLogon(t *testing.T) {
	session := NewSession(endpoint("AFR123", "AY213"))
	lfpg := endpoint("LFPG", "LFPGCYA")

	if err := session.LogonRequest(lfpg); err != nil {
		t.Fatal(err)
	}
	if session.Active == nil || session.Active.Station.Callsign != "LFPG" {
		t.Fatalf("active = %+v", session.Active)
	}
	if session.Active.Phase != models.PhaseLogonPending {
		t.Fatalf("phase = %s", session.Active.Phase)
	}
	if session.Inactive != nil {
		t.Fatal("no inactive connection expected")
	}
}

func TestSessionConnectionEstablishment(t *testing.T) {
	session := NewSession(endpoint("AFR123", "AY213"))
	lfpg := endpoint("LFPG", "LFPGCYA")

	if err := session.LogonRequest(lfpg); err != nil {
		t.Fatal(err)
	}
	if err := session.LogonAccepted("LFPG"); err != nil {
		t.Fatal(err)
	}
	if session.Active.Phase != models.PhaseLoggedOn {
		t.Fatalf("phase after logon = %s", session.Active.Phase)
	}

	if err := session.ConnectionRequest(lfpg); err != nil {
		t.Fatal(err)
	}
	if session.Active.Phase != models.PhaseConnected {
		t.Fatalf("phase after connection request = %s", session.Active.Phase)
	}

	if err := session.ConnectionAccepted("LFPG"); err != nil {
		t.Fatal(err)
	}
	if session.Active.Phase != models.PhaseConnected {
		t.Fatalf("phase after connection response = %s", session.Active.Phase)
	}
}

func TestSessionLogonWithoutRequestFails(t *testing.T) {
	session := NewSession(endpoint("AFR123", "AY213"))

	if err := session.LogonAccepted("LFPG"); err == nil {
		t.Error("logon acceptance without request should fail")
	}
	if err := session.ConnectionAccepted("LFPG"); err == nil {
		t.Error("connection acceptance without logon should fail")
	}
	if session.Active != nil {
		t.Error("failed transitions must not create connections")
	}
}

func TestSessionDuplicateLogonRejected(t *testing.T) {
	session := NewSession(endpoint("AFR123", "AY213"))
	lfpg := endpoint("LFPG", "LFPGCYA")

	if err := session.LogonRequest(lfpg); err != nil {
		t.Fatal(err)
	}
	if err := session.LogonRequest(lfpg); err == nil {
		t.Error("second logon to the same station should fail")
	}
}

func TestSessionLogonRejectedRemovesConnection(t *testing.T) {
	session := NewSession(endpoint("AFR123", "AY213"))

	if err := session.LogonRequest(endpoint("LFPG", "LFPGCYA")); err != nil {
		t.Fatal(err)
	}
	if err := session.LogonRejected("LFPG"); err != nil {
		t.Fatal(err)
	}
	if session.Active != nil {
		t.Fatalf("active should be cleared, got %+v", session.Active)
	}
}

// TestSessionHandover walks the full UM160/UM161 handover: designate the
// NDA, let it connect into the inactive slot, end service, promote.
func TestSessionHandover(t *testing.T) {
	session := NewSession(endpoint("AFR123", "AY213"))
	lfpg := endpoint("LFPG", "LFPGCYA")
	egll := endpoint("EGLL", "EGLLCYA")

	if err := session.LogonRequest(lfpg); err != nil {
		t.Fatal(err)
	}
	if err := session.LogonAccepted("LFPG"); err != nil {
		t.Fatal(err)
	}
	if err := session.ConnectionRequest(lfpg); err != nil {
		t.Fatal(err)
	}

	// UM160 NEXT DATA AUTHORITY EGLL
	session.SetNextDataAuthority("EGLL")

	// EGLL connects without a prior logon (implicit NDA logon).
	if err := session.ConnectionRequest(egll); err != nil {
		t.Fatal(err)
	}

	if session.Active.Station.Callsign != "LFPG" || session.Active.Phase != models.PhaseConnected {
		t.Fatalf("active = %+v", session.Active)
	}
	if session.Inactive == nil || session.Inactive.Station.Callsign != "EGLL" ||
		session.Inactive.Phase != models.PhaseConnected {
		t.Fatalf("inactive = %+v", session.Inactive)
	}
	if session.NextDataAuthority == nil || *session.NextDataAuthority != "EGLL" {
		t.Fatalf("nda = %v", session.NextDataAuthority)
	}

	// UM161 END SERVICE from LFPG promotes EGLL.
	if err := session.EndService("LFPG"); err != nil {
		t.Fatal(err)
	}
	if session.Active == nil || session.Active.Station.Callsign != "EGLL" {
		t.Fatalf("active after promotion = %+v", session.Active)
	}
	if session.Inactive != nil {
		t.Fatalf("inactive should be cleared, got %+v", session.Inactive)
	}
	if session.NextDataAuthority != nil {
		t.Fatalf("nda should be cleared, got %v", session.NextDataAuthority)
	}
}

func TestSessionEndServiceWithoutNDADropsActive(t *testing.T) {
	session := NewSession(endpoint("AFR123", "AY213"))

	if err := session.LogonRequest(endpoint("LFPG", "LFPGCYA")); err != nil {
		t.Fatal(err)
	}
	if err := session.LogonAccepted("LFPG"); err != nil {
		t.Fatal(err)
	}
	if err := session.ConnectionAccepted("LFPG"); err != nil {
		t.Fatal(err)
	}

	if err := session.EndService("LFPG"); err != nil {
		t.Fatal(err)
	}
	if session.Active != nil {
		t.Fatalf("active should be gone, got %+v", session.Active)
	}
}

func TestSessionNDAChangeClearsForeignInactive(t *testing.T) {
	session := NewSession(endpoint("AFR123", "AY213"))
	lfpg := endpoint("LFPG", "LFPGCYA")
	egll := endpoint("EGLL", "EGLLCYA")

	if err := session.LogonRequest(lfpg); err != nil {
		t.Fatal(err)
	}
	if err := session.LogonAccepted("LFPG"); err != nil {
		t.Fatal(err)
	}
	if err := session.ConnectionRequest(lfpg); err != nil {
		t.Fatal(err)
	}

	session.SetNextDataAuthority("EGLL")
	if err := session.ConnectionRequest(egll); err != nil {
		t.Fatal(err)
	}

	// Re-designating a different NDA drops the EGLL inactive slot.
	session.SetNextDataAuthority("EDDF")
	if session.Inactive != nil {
		t.Fatalf("inactive should be cleared, got %+v", session.Inactive)
	}
	if *session.NextDataAuthority != "EDDF" {
		t.Fatalf("nda = %v", session.NextDataAuthority)
	}
}

func TestSessionConnectionRequestUnauthorised(t *testing.T) {
	session := NewSession(endpoint("AFR123", "AY213"))
	lfpg := endpoint("LFPG", "LFPGCYA")

	if err := session.LogonRequest(lfpg); err != nil {
		t.Fatal(err)
	}
	if err := session.LogonAccepted("LFPG"); err != nil {
		t.Fatal(err)
	}
	if err := session.ConnectionRequest(lfpg); err != nil {
		t.Fatal(err)
	}

	// EGLL is neither connected nor designated.
	if err := session.ConnectionRequest(endpoint("EGLL", "EGLLCYA")); err == nil {
		t.Error("foreign connection request should fail")
	}
}

func TestSessionAuthority(t *testing.T) {
	session := NewSession(endpoint("AFR123", "AY213"))
	lfpg := endpoint("LFPG", "LFPGCYA")

	if session.Authority("LFPG") != AuthorityNone {
		t.Error("empty session grants no authority")
	}

	if err := session.LogonRequest(lfpg); err != nil {
		t.Fatal(err)
	}
	if session.Authority("LFPG") != AuthorityNone {
		t.Error("a pending logon grants no authority")
	}

	if err := session.LogonAccepted("LFPG"); err != nil {
		t.Fatal(err)
	}
	if err := session.ConnectionRequest(lfpg); err != nil {
		t.Fatal(err)
	}
	if session.Authority("LFPG") != AuthorityCDA {
		t.Error("connected active peer is the CDA")
	}

	session.SetNextDataAuthority("EGLL")
	if session.Authority("EGLL") != AuthorityPendingNDA {
		t.Error("designated but unconnected NDA is pending")
	}

	if err := session.ConnectionRequest(endpoint("EGLL", "EGLLCYA")); err != nil {
		t.Fatal(err)
	}
	if session.Authority("EGLL") != AuthorityNDA {
		t.Error("connected NDA holds NDA authority")
	}
	if session.Authority("EDDF") != AuthorityNone {
		t.Error("third parties hold no authority")
	}
}

func TestConnectionMinWrapsAround(t *testing.T) {
	connection := NewConnection(endpoint("LFPG", "LFPGCYA"))

	first := connection.NextMin(models.Uplink)
	if first != 1 {
		t.Fatalf("first MIN = %d", first)
	}

	connection.UplinkMin = 63
	if next := connection.NextMin(models.Uplink); next != 1 {
		t.Fatalf("MIN after 63 = %d, expected wrap to 1", next)
	}

	// The downlink counter is independent.
	if next := connection.NextMin(models.Downlink); next != 1 {
		t.Fatalf("first downlink MIN = %d", next)
	}
}

func TestSessionViews(t *testing.T) {
	session := NewSession(endpoint("AFR123", "AY213"))
	lfpg := endpoint("LFPG", "LFPGCYA")

	if err := session.LogonRequest(lfpg); err != nil {
		t.Fatal(err)
	}
	if err := session.LogonAccepted("LFPG"); err != nil {
		t.Fatal(err)
	}
	if err := session.ConnectionRequest(lfpg); err != nil {
		t.Fatal(err)
	}

	aircraft := session.ToAircraftView()
	if aircraft.Aircraft != "AFR123" || aircraft.AircraftAddress != "AY213" {
		t.Errorf("aircraft identity = %s/%s", aircraft.Aircraft, aircraft.AircraftAddress)
	}
	if aircraft.ActiveConnection == nil || aircraft.ActiveConnection.Peer != "LFPG" {
		t.Errorf("aircraft view active = %+v", aircraft.ActiveConnection)
	}

	station := session.ToStationView("LFPG")
	if station.ActiveConnection == nil || station.ActiveConnection.Peer != "AFR123" {
		t.Errorf("station view active = %+v", station.ActiveConnection)
	}

	foreign := session.ToStationView("EGLL")
	if foreign.ActiveConnection != nil || foreign.InactiveConnection != nil {
		t.Errorf("foreign station should see no connections: %+v", foreign)
	}
}

func TestSessionTerminatedConnectionsHiddenFromViews(t *testing.T) {
	session := NewSession(endpoint("AFR123", "AY213"))

	if err := session.LogonRequest(endpoint("LFPG", "LFPGCYA")); err != nil {
		t.Fatal(err)
	}
	if err := session.LogonAccepted("LFPG"); err != nil {
		t.Fatal(err)
	}
	if err := session.ConnectionAccepted("LFPG"); err != nil {
		t.Fatal(err)
	}
	if err := session.EndService("LFPG"); err != nil {
		t.Fatal(err)
	}

	view := session.ToAircraftView()
	if view.ActiveConnection != nil {
		t.Errorf("terminated connection leaked into view: %+v", view.ActiveConnection)
	}
}

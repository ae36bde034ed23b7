// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"fmt"

	"github.com/pluce/openlink/pkg/models"
)

// Connection is one CPDLC connection inside a session: the ground station
// peer, the lifecycle phase, and the MIN counters of both dialogue
// directions. Counters are cyclic in 1..63; zero means "none issued yet".
type Connection struct {
	Station     models.AcarsEndpoint   `json:"station"`
	Phase       models.ConnectionPhase `json:"phase"`
	UplinkMin   uint8                  `json:"uplink_min"`
	DownlinkMin uint8                  `json:"downlink_min"`
}

// NewConnection starts a connection in the LogonPending phase.
func NewConnection(station models.AcarsEndpoint) *Connection {
	return &Connection{Station: station, Phase: models.PhaseLogonPending}
}

// advance moves the connection to the next phase. Within one connection
// instance phases only ever move forward.
func (c *Connection) advance(next models.ConnectionPhase) error {
	if !c.Phase.CanAdvanceTo(next) {
		return fmt.Errorf("connection with %s cannot move %s -> %s",
			c.Station.Callsign, c.Phase, next)
	}
	c.Phase = next
	return nil
}

// NextMin issues the next MIN for the given sender direction, wrapping
// from 63 back to 1 and never reusing the 0 placeholder.
func (c *Connection) NextMin(direction models.Direction) uint8 {
	counter := &c.DownlinkMin
	if direction == models.Uplink {
		counter = &c.UplinkMin
	}
	*counter++
	if *counter > 63 {
		*counter = 1
	}
	return *counter
}

// Info projects the connection for a session view.
func (c *Connection) Info() *models.ConnectionInfo {
	return &models.ConnectionInfo{Peer: c.Station.Callsign, Phase: c.Phase}
}

// Session is the per-aircraft CPDLC session record: at most one active and
// one inactive connection with distinct peers, plus the designated next
// data authority. Sessions are persisted per aircraft callsign and
// mutated only through the methods below.
type Session struct {
	Aircraft          models.AcarsEndpoint `json:"aircraft"`
	Active            *Connection          `json:"active_connection"`
	Inactive          *Connection          `json:"inactive_connection"`
	NextDataAuthority *models.Callsign     `json:"next_data_authority"`
}

// NewSession starts an empty session for an aircraft.
func NewSession(aircraft models.AcarsEndpoint) *Session {
	return &Session{Aircraft: aircraft}
}

// connectionWith finds the non-terminated connection with the given peer.
func (s *Session) connectionWith(station models.Callsign) *Connection {
	if s.Active != nil && s.Active.Station.Callsign == station && s.Active.Phase != models.PhaseTerminated {
		return s.Active
	}
	if s.Inactive != nil && s.Inactive.Station.Callsign == station && s.Inactive.Phase != models.PhaseTerminated {
		return s.Inactive
	}
	return nil
}

// isNDA reports whether the station is the designated next data authority.
func (s *Session) isNDA(station models.Callsign) bool {
	return s.NextDataAuthority != nil && *s.NextDataAuthority == station
}

// LogonRequest records a logon attempt towards a station. The connection
// lands in the active slot when it is free, otherwise in the inactive
// slot, replacing a prior inactive connection to a different peer.
func (s *Session) LogonRequest(station models.AcarsEndpoint) error {
	if existing := s.connectionWith(station.Callsign); existing != nil {
		return fmt.Errorf("connection with %s already %s", station.Callsign, existing.Phase)
	}

	connection := NewConnection(station)
	if s.Active == nil || s.Active.Phase == models.PhaseTerminated {
		s.Active = connection
	} else {
		s.Inactive = connection
	}
	return nil
}

// LogonAccepted advances the pending connection with the station to
// LoggedOn.
func (s *Session) LogonAccepted(station models.Callsign) error {
	connection := s.connectionWith(station)
	if connection == nil {
		return fmt.Errorf("no connection with %s awaiting logon response", station)
	}
	return connection.advance(models.PhaseLoggedOn)
}

// LogonRejected removes the connection with the station from the session.
func (s *Session) LogonRejected(station models.Callsign) error {
	connection := s.connectionWith(station)
	if connection == nil {
		return fmt.Errorf("no connection with %s to reject", station)
	}
	s.remove(connection)
	return nil
}

// ConnectionRequest handles a station's request to open the CPDLC data
// connection. Permitted for the current active peer and for the
// designated next data authority, which may join without a prior logon.
func (s *Session) ConnectionRequest(station models.AcarsEndpoint) error {
	if connection := s.connectionWith(station.Callsign); connection != nil {
		if connection == s.Active || s.isNDA(station.Callsign) {
			return connection.advance(models.PhaseConnected)
		}
		return fmt.Errorf("%s holds a connection but is not active nor next data authority", station.Callsign)
	}

	// Implicit logon for the designated NDA.
	if s.isNDA(station.Callsign) {
		connection := NewConnection(station)
		connection.Phase = models.PhaseConnected
		if s.Active == nil || s.Active.Phase == models.PhaseTerminated {
			s.Active = connection
		} else {
			s.Inactive = connection
		}
		return nil
	}

	return fmt.Errorf("%s is neither connected nor next data authority", station.Callsign)
}

// ConnectionAccepted finalises the connection with the station after the
// aircraft accepted.
func (s *Session) ConnectionAccepted(station models.Callsign) error {
	connection := s.connectionWith(station)
	if connection == nil {
		return fmt.Errorf("no connection with %s to accept", station)
	}
	return connection.advance(models.PhaseConnected)
}

// ConnectionRejected removes the connection with the station after the
// aircraft declined.
func (s *Session) ConnectionRejected(station models.Callsign) error {
	connection := s.connectionWith(station)
	if connection == nil {
		return fmt.Errorf("no connection with %s to reject", station)
	}
	s.remove(connection)
	return nil
}

// SetNextDataAuthority designates the handover target. An inactive
// connection to a different peer is cleared.
func (s *Session) SetNextDataAuthority(station models.Callsign) {
	s.NextDataAuthority = &station
	if s.Inactive != nil && s.Inactive.Station.Callsign != station {
		s.Inactive = nil
	}
}

// EndService terminates the connection with the station. When the active
// connection ends, the inactive one is promoted iff its peer is the
// designated next data authority; inactive and NDA are cleared either
// way.
func (s *Session) EndService(station models.Callsign) error {
	connection := s.connectionWith(station)
	if connection == nil {
		return fmt.Errorf("no connection with %s to terminate", station)
	}

	connection.Phase = models.PhaseTerminated
	if connection == s.Active {
		s.promote()
	} else {
		s.Inactive = nil
		if s.isNDA(station) {
			s.NextDataAuthority = nil
		}
	}
	return nil
}

// promote applies the promotion rule after the active connection ended.
func (s *Session) promote() {
	if s.Inactive != nil && s.NextDataAuthority != nil &&
		s.Inactive.Station.Callsign == *s.NextDataAuthority {
		s.Active = s.Inactive
	} else {
		s.Active = nil
	}
	s.Inactive = nil
	s.NextDataAuthority = nil
}

// remove clears the slot holding the connection.
func (s *Session) remove(connection *Connection) {
	if connection == s.Active {
		s.Active = s.Inactive
		s.Inactive = nil
	} else if connection == s.Inactive {
		s.Inactive = nil
	}
}

// SenderAuthority classifies a station for operational traffic.
type SenderAuthority int

const (
	// AuthorityNone means the station holds no role in the session.
	AuthorityNone SenderAuthority = iota
	// AuthorityCDA means the station is the connected active peer.
	AuthorityCDA
	// AuthorityNDA means the station is the designated next data
	// authority with an established connection.
	AuthorityNDA
	// AuthorityPendingNDA means the station is named next data
	// authority but not yet authorised for operational traffic.
	AuthorityPendingNDA
)

// Authority classifies a station for application message routing.
func (s *Session) Authority(station models.Callsign) SenderAuthority {
	if s.Active != nil && s.Active.Station.Callsign == station && s.Active.Phase == models.PhaseConnected {
		return AuthorityCDA
	}
	if s.isNDA(station) {
		if s.Inactive != nil && s.Inactive.Station.Callsign == station && s.Inactive.Phase == models.PhaseConnected {
			return AuthorityNDA
		}
		return AuthorityPendingNDA
	}
	return AuthorityNone
}

// Involved lists the callsigns of every station holding a connection.
func (s *Session) Involved() []models.Callsign {
	var stations []models.Callsign
	if s.Active != nil {
		stations = append(stations, s.Active.Station.Callsign)
	}
	if s.Inactive != nil {
		stations = append(stations, s.Inactive.Station.Callsign)
	}
	return stations
}

// ToAircraftView projects the session for the aircraft.
func (s *Session) ToAircraftView() models.SessionView {
	view := models.SessionView{
		Aircraft:          s.Aircraft.Callsign,
		AircraftAddress:   s.Aircraft.Address,
		NextDataAuthority: s.NextDataAuthority,
	}
	if s.Active != nil && s.Active.Phase != models.PhaseTerminated {
		view.ActiveConnection = s.Active.Info()
	}
	if s.Inactive != nil && s.Inactive.Phase != models.PhaseTerminated {
		view.InactiveConnection = s.Inactive.Info()
	}
	return view
}

// ToStationView projects the session for one ground station: the peer of
// each connection the station takes part in is the aircraft.
func (s *Session) ToStationView(station models.Callsign) models.SessionView {
	view := models.SessionView{
		Aircraft:          s.Aircraft.Callsign,
		AircraftAddress:   s.Aircraft.Address,
		NextDataAuthority: s.NextDataAuthority,
	}
	if s.Active != nil && s.Active.Station.Callsign == station && s.Active.Phase != models.PhaseTerminated {
		view.ActiveConnection = &models.ConnectionInfo{
			Peer:  s.Aircraft.Callsign,
			Phase: s.Active.Phase,
		}
	}
	if s.Inactive != nil && s.Inactive.Station.Callsign == station && s.Inactive.Phase != models.PhaseTerminated {
		view.InactiveConnection = &models.ConnectionInfo{
			Peer:  s.Aircraft.Callsign,
			Phase: s.Inactive.Phase,
		}
	}
	return view
}

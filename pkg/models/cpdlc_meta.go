// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package models

import (
	"encoding/json"
	"fmt"
)

// CpdlcMeta is a protocol-level CPDLC message used for session management:
// the logon / connection / contact / transfer lifecycle between an
// aircraft and successive ATC ground stations. Meta messages are not part
// of a MIN/MRN dialogue.
type CpdlcMeta interface {
	// metaTag returns the wire variant name.
	metaTag() string
	// Summary renders a short human-readable form for logs and UIs.
	Summary() string
}

// LogonRequest is sent by an aircraft to request logon with a station.
type LogonRequest struct {
	Station               Callsign        `json:"station"`
	FlightPlanOrigin      ICAOAirportCode `json:"flight_plan_origin"`
	FlightPlanDestination ICAOAirportCode `json:"flight_plan_destination"`
}

func (LogonRequest) metaTag() string { return "LogonRequest" }

func (m LogonRequest) Summary() string {
	return fmt.Sprintf("LOGON REQUEST TO %s - FP ORIGIN %s DEST %s",
		m.Station, m.FlightPlanOrigin, m.FlightPlanDestination)
}

// LogonResponse is the station's answer to a LogonRequest.
type LogonResponse struct {
	Accepted bool `json:"accepted"`
}

func (LogonResponse) metaTag() string { return "LogonResponse" }

func (m LogonResponse) Summary() string {
	if m.Accepted {
		return "LOGON ACCEPTED"
	}
	return "LOGON REJECTED"
}

// ConnectionRequest is sent by a station to open a CPDLC data connection.
type ConnectionRequest struct{}

func (ConnectionRequest) metaTag() string { return "ConnectionRequest" }

func (ConnectionRequest) Summary() string { return "CONNECTION REQUEST" }

// ConnectionResponse is the aircraft's answer to a ConnectionRequest.
type ConnectionResponse struct {
	Accepted bool `json:"accepted"`
}

func (ConnectionResponse) metaTag() string { return "ConnectionResponse" }

func (m ConnectionResponse) Summary() string {
	if m.Accepted {
		return "CONNECTION ACCEPTED"
	}
	return "CONNECTION REJECTED"
}

// ContactRequest instructs the aircraft to contact another station.
type ContactRequest struct {
	Station Callsign `json:"station"`
}

func (ContactRequest) metaTag() string { return "ContactRequest" }

func (m ContactRequest) Summary() string {
	return fmt.Sprintf("CONTACT %s", m.Station)
}

// ContactResponse is the aircraft's answer to a ContactRequest.
type ContactResponse struct {
	Accepted bool `json:"accepted"`
}

func (ContactResponse) metaTag() string { return "ContactResponse" }

func (m ContactResponse) Summary() string {
	if m.Accepted {
		return "CONTACT ACCEPTED"
	}
	return "CONTACT REJECTED"
}

// ContactComplete confirms that a contact handover is finished.
type ContactComplete struct{}

func (ContactComplete) metaTag() string { return "ContactComplete" }

func (ContactComplete) Summary() string { return "CONTACT COMPLETE" }

// LogonForward is a ground-to-ground forwarding of logon credentials to
// the station that will take the flight over.
type LogonForward struct {
	Flight                Callsign        `json:"flight"`
	FlightPlanOrigin      ICAOAirportCode `json:"flight_plan_origin"`
	FlightPlanDestination ICAOAirportCode `json:"flight_plan_destination"`
	NewStation            Callsign        `json:"new_station"`
}

func (LogonForward) metaTag() string { return "LogonForward" }

func (m LogonForward) Summary() string {
	return fmt.Sprintf("LOGON FORWARD FLIGHT %s ORIGIN %s DEST %s NEW STATION %s",
		m.Flight, m.FlightPlanOrigin, m.FlightPlanDestination, m.NewStation)
}

// NextDataAuthority designates the station that may take the connection
// over. The operative handover mechanism is the UM160 application element;
// this meta form exists for ground-side tooling.
type NextDataAuthority struct {
	NDA AcarsEndpoint `json:"nda"`
}

func (NextDataAuthority) metaTag() string { return "NextDataAuthority" }

func (m NextDataAuthority) Summary() string {
	return fmt.Sprintf("NEXT DATA AUTHORITY %s %s", m.NDA.Callsign, m.NDA.Address)
}

// EndService terminates the active connection; the inactive connection, if
// it matches the designated NDA, is promoted.
type EndService struct{}

func (EndService) metaTag() string { return "EndService" }

func (EndService) Summary() string { return "END SERVICE" }

// SessionUpdate is the server → client session snapshot sent after every
// session-mutating event. Clients replace their local state with it and
// never recompute protocol truth.
type SessionUpdate struct {
	Session SessionView `json:"session"`
}

func (SessionUpdate) metaTag() string { return "SessionUpdate" }

func (m SessionUpdate) Summary() string {
	active := "NONE"
	if m.Session.ActiveConnection != nil {
		active = fmt.Sprintf("%s (%s)", m.Session.ActiveConnection.Peer, m.Session.ActiveConnection.Phase)
	}
	inactive := "NONE"
	if m.Session.InactiveConnection != nil {
		inactive = fmt.Sprintf("%s (%s)", m.Session.InactiveConnection.Peer, m.Session.InactiveConnection.Phase)
	}
	return fmt.Sprintf("SESSION UPDATE ACTIVE %s INACTIVE %s", active, inactive)
}

// marshalCpdlcMeta encodes a meta message in its externally tagged form.
// Unit variants omit the data field.
func marshalCpdlcMeta(meta CpdlcMeta) (json.RawMessage, error) {
	switch meta.(type) {
	case ConnectionRequest, ContactComplete, EndService:
		return json.Marshal(taggedUnion{Type: meta.metaTag()})
	default:
		data, err := json.Marshal(meta)
		if err != nil {
			return nil, err
		}
		return json.Marshal(taggedUnion{Type: meta.metaTag(), Data: data})
	}
}

// unmarshalCpdlcMeta decodes the externally tagged meta form back into its
// concrete type.
func unmarshalCpdlcMeta(data json.RawMessage) (CpdlcMeta, error) {
	var tag taggedUnion
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, malformedJSON(err)
	}

	decode := func(v CpdlcMeta) (CpdlcMeta, error) {
		if len(tag.Data) == 0 {
			return v, nil
		}
		if err := json.Unmarshal(tag.Data, v); err != nil {
			return nil, invalidField(tag.Type, err)
		}
		return v, nil
	}

	switch tag.Type {
	case "LogonRequest":
		meta, err := decode(&LogonRequest{})
		return deref(meta), err
	case "LogonResponse":
		meta, err := decode(&LogonResponse{})
		return deref(meta), err
	case "ConnectionRequest":
		return ConnectionRequest{}, nil
	case "ConnectionResponse":
		meta, err := decode(&ConnectionResponse{})
		return deref(meta), err
	case "ContactRequest":
		meta, err := decode(&ContactRequest{})
		return deref(meta), err
	case "ContactResponse":
		meta, err := decode(&ContactResponse{})
		return deref(meta), err
	case "ContactComplete":
		return ContactComplete{}, nil
	case "LogonForward":
		meta, err := decode(&LogonForward{})
		return deref(meta), err
	case "NextDataAuthority":
		meta, err := decode(&NextDataAuthority{})
		return deref(meta), err
	case "EndService":
		return EndService{}, nil
	case "SessionUpdate":
		meta, err := decode(&SessionUpdate{})
		return deref(meta), err
	default:
		return nil, unknownVariant("CpdlcMeta", data)
	}
}

// deref turns the pointer the decoder filled back into the value form the
// CpdlcMeta implementations use.
func deref(meta CpdlcMeta) CpdlcMeta {
	switch m := meta.(type) {
	case *LogonRequest:
		return *m
	case *LogonResponse:
		return *m
	case *ConnectionResponse:
		return *m
	case *ContactRequest:
		return *m
	case *ContactResponse:
		return *m
	case *LogonForward:
		return *m
	case *NextDataAuthority:
		return *m
	case *SessionUpdate:
		return *m
	default:
		return meta
	}
}

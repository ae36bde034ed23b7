// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package models

import (
	"encoding/json"
)

// Callsign is the operational identity of a participant, e.g. "AFR123" for
// an aircraft or "LFPG" for an ATC unit. Callsigns may overlap across
// networks; the pair (NetworkID, NetworkAddress) disambiguates.
type Callsign string

func (c Callsign) String() string {
	return string(c)
}

// AcarsAddress is the 7-character ACARS datalink address of an endpoint.
type AcarsAddress string

func (a AcarsAddress) String() string {
	return string(a)
}

// AcarsEndpoint identifies one party in an ACARS exchange.
type AcarsEndpoint struct {
	Callsign Callsign     `json:"callsign"`
	Address  AcarsAddress `json:"address"`
}

// NewAcarsEndpoint builds an endpoint from raw strings.
func NewAcarsEndpoint(callsign, address string) AcarsEndpoint {
	return AcarsEndpoint{Callsign: Callsign(callsign), Address: AcarsAddress(address)}
}

// AcarsRouting is attached to every AcarsEnvelope and identifies the
// aircraft the exchange concerns, regardless of which side is sending.
type AcarsRouting struct {
	Aircraft AcarsEndpoint `json:"aircraft"`
}

// AcarsEnvelope is the middle envelope layer: ACARS routing plus an
// ACARS-level message, today always CPDLC.
type AcarsEnvelope struct {
	Routing AcarsRouting `json:"routing"`
	Message AcarsMessage `json:"message"`
}

// AcarsMessage is the ACARS message sum. CPDLC is the only variant so far;
// ADS-C and AOC would be added here.
type AcarsMessage struct {
	CPDLC *CpdlcEnvelope
}

// MarshalJSON emits {"type": "CPDLC", "data": {...}}.
func (m AcarsMessage) MarshalJSON() ([]byte, error) {
	if m.CPDLC == nil {
		return nil, unknownVariant("AcarsMessage", nil)
	}
	return marshalTagged("CPDLC", m.CPDLC)
}

// UnmarshalJSON parses the externally tagged ACARS message.
func (m *AcarsMessage) UnmarshalJSON(data []byte) error {
	var tag taggedUnion
	if err := json.Unmarshal(data, &tag); err != nil {
		return malformedJSON(err)
	}
	switch tag.Type {
	case "CPDLC":
		var cpdlc CpdlcEnvelope
		if err := json.Unmarshal(tag.Data, &cpdlc); err != nil {
			return err
		}
		m.CPDLC = &cpdlc
		return nil
	default:
		return unknownVariant("AcarsMessage", data)
	}
}

// taggedUnion is the serde-compatible {"type": ..., "data": ...} shape
// every sum type in this package shares.
type taggedUnion struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// marshalTagged wraps a payload in the external-tag shape. A nil payload
// emits the bare {"type": ...} form used by unit variants.
func marshalTagged(typ string, v interface{}) ([]byte, error) {
	tag := taggedUnion{Type: typ}
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		tag.Data = data
	}
	return json.Marshal(tag)
}

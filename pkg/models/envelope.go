// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the outermost message wrapper on the OpenLink network. All
// communication between servers, ground stations and aircraft gateways is
// contained in this structure.
type Envelope struct {
	// ID uniquely identifies this envelope (UUID v4).
	ID uuid.UUID `json:"id"`
	// Timestamp is the UTC creation time.
	Timestamp time.Time `json:"timestamp"`
	// CorrelationID links this message to an earlier request, nil
	// otherwise.
	CorrelationID *string `json:"correlation_id"`
	// Routing is the network-level source → destination header.
	Routing Routing `json:"routing"`
	// Payload is the actual content.
	Payload Payload `json:"payload"`
	// Token is the bearer JWT of the sender.
	Token string `json:"token"`
}

// Payload discriminates the envelope content: an ACARS exchange or a
// system-level station meta message.
type Payload struct {
	Acars *AcarsEnvelope
	Meta  *StationStatusMeta
}

// AcarsPayload wraps an ACARS envelope into the payload sum.
func AcarsPayload(acars AcarsEnvelope) Payload {
	return Payload{Acars: &acars}
}

// StationStatusPayload wraps a station status announcement into the
// payload sum.
func StationStatusPayload(meta StationStatusMeta) Payload {
	return Payload{Meta: &meta}
}

// MarshalJSON emits {"type": "Acars", "data": ...} or
// {"type": "Meta", "data": ...}.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch {
	case p.Acars != nil:
		return marshalTagged("Acars", p.Acars)
	case p.Meta != nil:
		return marshalTagged("Meta", p.Meta)
	default:
		return nil, unknownVariant("Payload", nil)
	}
}

// UnmarshalJSON parses the externally tagged payload.
func (p *Payload) UnmarshalJSON(data []byte) error {
	var tag taggedUnion
	if err := json.Unmarshal(data, &tag); err != nil {
		return malformedJSON(err)
	}
	switch tag.Type {
	case "Acars":
		var acars AcarsEnvelope
		if err := json.Unmarshal(tag.Data, &acars); err != nil {
			return err
		}
		p.Acars = &acars
		return nil
	case "Meta":
		var meta StationStatusMeta
		if err := json.Unmarshal(tag.Data, &meta); err != nil {
			return err
		}
		p.Meta = &meta
		return nil
	default:
		return unknownVariant("Payload", data)
	}
}

// ParseEnvelope decodes raw bytes into an Envelope. Failures are WireError
// values of kind MalformedJSON, UnknownVariant or InvalidField.
func ParseEnvelope(data []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Envelope{}, classifyDecodeError(err)
	}
	return envelope, nil
}

// SerialiseEnvelope encodes an envelope to its wire bytes. ParseEnvelope
// of the result yields a semantically equal envelope.
func SerialiseEnvelope(envelope Envelope) ([]byte, error) {
	return json.Marshal(envelope)
}

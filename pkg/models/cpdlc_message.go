// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package models

import (
	"encoding/json"
	"strings"
	"time"
)

// MessageElement is one element of a CPDLC application message. A single
// message carries up to five elements; each references a catalog entry by
// id and holds the concrete argument values.
type MessageElement struct {
	ID   string     `json:"id"`
	Args []Argument `json:"args"`
}

// NewMessageElement builds an element for the given catalog id.
func NewMessageElement(id string, args ...Argument) MessageElement {
	if args == nil {
		args = []Argument{}
	}
	return MessageElement{ID: id, Args: args}
}

// Entry looks up the element's catalog entry, nil for unknown ids.
func (e MessageElement) Entry() *CatalogEntry {
	return FindCatalogEntry(e.ID)
}

// Render substitutes the element's arguments into its catalog template.
// Unknown ids render as "[UNKNOWN <id>]".
func (e MessageElement) Render() string {
	entry := e.Entry()
	if entry == nil {
		return "[UNKNOWN " + e.ID + "]"
	}
	var text strings.Builder
	for _, part := range entry.RenderParts(e.Args) {
		text.WriteString(part.Text)
	}
	return text.String()
}

// CpdlcApplicationMessage is an operational CPDLC message: one to five
// catalog elements plus the MIN/MRN dialogue identifiers.
type CpdlcApplicationMessage struct {
	// Min is the Message Identification Number, 1..63 cyclic per sender
	// per connection. Outbound clients submit 0; the server assigns the
	// definitive MIN before forwarding.
	Min uint8 `json:"min"`
	// Mrn references the MIN of the message being answered, nil when
	// this message opens a new dialogue.
	Mrn       *uint8           `json:"mrn"`
	Elements  []MessageElement `json:"elements"`
	Timestamp time.Time        `json:"timestamp"`
}

// EffectiveResponseAttr computes the response attribute of a multi-element
// message under the WU > AN > R > Y > N precedence (NE counts as N).
func (m CpdlcApplicationMessage) EffectiveResponseAttr() ResponseAttribute {
	attrs := make([]ResponseAttribute, 0, len(m.Elements))
	for _, element := range m.Elements {
		if entry := element.Entry(); entry != nil {
			attrs = append(attrs, entry.ResponseAttr)
		}
	}
	return EffectiveResponseAttr(attrs)
}

// Render joins all element texts with " / ".
func (m CpdlcApplicationMessage) Render() string {
	texts := make([]string, len(m.Elements))
	for i, element := range m.Elements {
		texts[i] = element.Render()
	}
	return strings.Join(texts, " / ")
}

// CpdlcEnvelope is the inner envelope layer: the CPDLC source and
// destination callsigns around an application or meta message.
type CpdlcEnvelope struct {
	Source      Callsign     `json:"source"`
	Destination Callsign     `json:"destination"`
	Message     CpdlcMessage `json:"message"`
}

// CpdlcMessage distinguishes operational application messages from
// session-management meta messages.
type CpdlcMessage struct {
	Application *CpdlcApplicationMessage
	Meta        CpdlcMeta
}

// ApplicationMessage wraps an application message into the sum.
func ApplicationMessage(msg CpdlcApplicationMessage) CpdlcMessage {
	return CpdlcMessage{Application: &msg}
}

// MetaMessage wraps a meta message into the sum.
func MetaMessage(meta CpdlcMeta) CpdlcMessage {
	return CpdlcMessage{Meta: meta}
}

// MarshalJSON emits {"type": "Application", "data": ...} or
// {"type": "Meta", "data": ...}.
func (m CpdlcMessage) MarshalJSON() ([]byte, error) {
	switch {
	case m.Application != nil:
		return marshalTagged("Application", m.Application)
	case m.Meta != nil:
		data, err := marshalCpdlcMeta(m.Meta)
		if err != nil {
			return nil, err
		}
		return json.Marshal(taggedUnion{Type: "Meta", Data: data})
	default:
		return nil, unknownVariant("CpdlcMessage", nil)
	}
}

// UnmarshalJSON parses the externally tagged CPDLC message.
func (m *CpdlcMessage) UnmarshalJSON(data []byte) error {
	var tag taggedUnion
	if err := json.Unmarshal(data, &tag); err != nil {
		return malformedJSON(err)
	}
	switch tag.Type {
	case "Application":
		var app CpdlcApplicationMessage
		if err := json.Unmarshal(tag.Data, &app); err != nil {
			return err
		}
		m.Application = &app
		return nil
	case "Meta":
		meta, err := unmarshalCpdlcMeta(tag.Data)
		if err != nil {
			return err
		}
		m.Meta = meta
		return nil
	default:
		return unknownVariant("CpdlcMessage", data)
	}
}

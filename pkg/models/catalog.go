// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package models

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Direction distinguishes uplink (ATC → aircraft, UM) from downlink
// (aircraft → ATC, DM) message elements.
type Direction string

const (
	// Uplink is ATC → aircraft (UM).
	Uplink Direction = "Uplink"
	// Downlink is aircraft → ATC (DM).
	Downlink Direction = "Downlink"
)

func (d Direction) String() string {
	if d == Uplink {
		return "UM"
	}
	return "DM"
}

// ResponseAttribute dictates which replies may close a CPDLC dialogue.
type ResponseAttribute string

const (
	// RespWU expects WILCO / UNABLE / STANDBY.
	RespWU ResponseAttribute = "WU"
	// RespAN expects AFFIRM / NEGATIVE / STANDBY.
	RespAN ResponseAttribute = "AN"
	// RespR expects ROGER / STANDBY.
	RespR ResponseAttribute = "R"
	// RespY is closed by any CPDLC message carrying the requested data.
	RespY ResponseAttribute = "Y"
	// RespN requires no response.
	RespN ResponseAttribute = "N"
	// RespNE is Not Enabled (FANS 1/A); treated as N for precedence.
	RespNE ResponseAttribute = "NE"
)

// priority orders attributes for multi-element precedence:
// WU > AN > R > Y > N, with NE counting as N.
func (r ResponseAttribute) priority() int {
	switch r {
	case RespWU:
		return 5
	case RespAN:
		return 4
	case RespR:
		return 3
	case RespY:
		return 2
	default:
		return 1
	}
}

// EffectiveResponseAttr picks the highest-precedence attribute of a
// multi-element message. An empty slice yields N.
func EffectiveResponseAttr(attrs []ResponseAttribute) ResponseAttribute {
	effective := RespN
	best := 0
	for _, attr := range attrs {
		if attr == RespNE {
			attr = RespN
		}
		if p := attr.priority(); p > best {
			best = p
			effective = attr
		}
	}
	return effective
}

// ResponseIntent is one short-response option offered to an operator:
// the semantic intent plus the element ids realising it in each direction.
type ResponseIntent struct {
	Intent     string `json:"intent"`
	Label      string `json:"label"`
	UplinkID   string `json:"uplink_id"`
	DownlinkID string `json:"downlink_id"`
}

// The canonical short-response intents.
var (
	IntentWilco    = ResponseIntent{Intent: "wilco", Label: "WILCO", DownlinkID: "DM0"}
	IntentUnable   = ResponseIntent{Intent: "unable", Label: "UNABLE", UplinkID: "UM0", DownlinkID: "DM1"}
	IntentStandby  = ResponseIntent{Intent: "standby", Label: "STANDBY", UplinkID: "UM1", DownlinkID: "DM2"}
	IntentRoger    = ResponseIntent{Intent: "roger", Label: "ROGER", UplinkID: "UM3", DownlinkID: "DM3"}
	IntentAffirm   = ResponseIntent{Intent: "affirm", Label: "AFFIRM", UplinkID: "UM4", DownlinkID: "DM4"}
	IntentNegative = ResponseIntent{Intent: "negative", Label: "NEGATIVE", UplinkID: "UM5", DownlinkID: "DM5"}
)

// ResponseAttrIntents returns the canonical ordered intent list for a
// response attribute. Y, N and NE offer no short responses.
func ResponseAttrIntents(attr ResponseAttribute) []ResponseIntent {
	switch attr {
	case RespWU:
		return []ResponseIntent{IntentWilco, IntentUnable, IntentStandby}
	case RespAN:
		return []ResponseIntent{IntentAffirm, IntentNegative, IntentStandby}
	case RespR:
		return []ResponseIntent{IntentRoger, IntentStandby}
	default:
		return nil
	}
}

// TextPart is one segment of rendered message text. Parameter parts carry
// substituted argument values so UIs can highlight them.
type TextPart struct {
	Text    string `json:"text"`
	IsParam bool   `json:"is_param"`
}

// CatalogEntry is the static description of one CPDLC message element from
// the ICAO reference: its template, argument spec, response behaviour and
// system support flags.
type CatalogEntry struct {
	ID           string
	Direction    Direction
	Template     string
	Args         []ArgType
	ResponseAttr ResponseAttribute
	FANS         bool
	ATNB1        bool
}

// Closing response element ids and the standby set that suspends a
// dialogue without closing it.
var (
	closingElementIDs = map[string]bool{
		"DM0": true, "DM1": true, "DM3": true, "DM4": true, "DM5": true,
		"UM0": true, "UM3": true, "UM4": true, "UM5": true,
	}
	standbyElementIDs = map[string]bool{
		"DM2": true, "UM1": true, "UM2": true,
	}
)

// Closes reports whether this element closes an open dialogue.
func (e *CatalogEntry) Closes() bool {
	return closingElementIDs[e.ID]
}

// Standby reports whether this element suspends a dialogue (STANDBY /
// REQUEST DEFERRED).
func (e *CatalogEntry) Standby() bool {
	return standbyElementIDs[e.ID]
}

// ShortResponseIntents returns the precomputed intent list for this
// entry's response attribute.
func (e *CatalogEntry) ShortResponseIntents() []ResponseIntent {
	return ResponseAttrIntents(e.ResponseAttr)
}

// RenderParts substitutes args into the template. Each "[placeholder]"
// consumes the next argument and becomes a parameter part; a placeholder
// without a matching argument stays, upper-cased. Extra args are ignored.
func (e *CatalogEntry) RenderParts(args []Argument) []TextPart {
	var parts []TextPart
	template := e.Template
	next := 0

	for {
		start := strings.IndexByte(template, '[')
		if start < 0 {
			break
		}
		end := strings.IndexByte(template[start:], ']')
		if end < 0 {
			break
		}
		end += start

		if start > 0 {
			parts = append(parts, TextPart{Text: template[:start]})
		}
		placeholder := template[start : end+1]
		if next < len(args) {
			parts = append(parts, TextPart{Text: args[next].String(), IsParam: true})
			next++
		} else {
			parts = append(parts, TextPart{Text: strings.ToUpper(placeholder)})
		}
		template = template[end+1:]
	}
	if template != "" {
		parts = append(parts, TextPart{Text: template})
	}
	return parts
}

// FindCatalogEntry looks an entry up by id ("UM20", "DM0"), nil when the
// id is not part of the catalog.
func FindCatalogEntry(id string) *CatalogEntry {
	return catalogIndex[id]
}

// CatalogEntries returns the full catalog in registry order.
func CatalogEntries() []CatalogEntry {
	return messageCatalog
}

// ValidateElement checks an element against its catalog entry and the
// expected sending direction.
func ValidateElement(element MessageElement, direction Direction) error {
	entry := FindCatalogEntry(element.ID)
	if entry == nil {
		return &ElementError{ID: element.ID, Reason: UnknownID}
	}
	if entry.Direction != direction {
		return &ElementError{
			ID:     element.ID,
			Reason: WrongDirection,
			Detail: fmt.Sprintf("expected %s, got %s", direction, entry.Direction),
		}
	}
	if len(element.Args) != len(entry.Args) {
		return &ElementError{
			ID:     element.ID,
			Reason: ArgCountMismatch,
			Detail: fmt.Sprintf("want %d args, got %d", len(entry.Args), len(element.Args)),
		}
	}
	for i, arg := range element.Args {
		if arg.Type != entry.Args[i] {
			return &ElementError{
				ID:     element.ID,
				Reason: ArgTypeMismatch,
				Detail: fmt.Sprintf("arg %d: want %s, got %s", i, entry.Args[i], arg.Type),
			}
		}
	}
	return nil
}

// ValidateElements validates every element of a message, aggregating all
// failures.
func ValidateElements(elements []MessageElement, direction Direction) error {
	var result *multierror.Error
	for _, element := range elements {
		if err := ValidateElement(element, direction); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// RenderElements renders all elements to text parts, joining multi-element
// messages with " / " separator parts.
func RenderElements(elements []MessageElement) []TextPart {
	var parts []TextPart
	for i, element := range elements {
		if i > 0 {
			parts = append(parts, TextPart{Text: " / "})
		}
		entry := element.Entry()
		if entry == nil {
			parts = append(parts, TextPart{Text: "[UNKNOWN " + element.ID + "]"})
			continue
		}
		parts = append(parts, entry.RenderParts(element.Args)...)
	}
	return parts
}

var catalogIndex = make(map[string]*CatalogEntry, len(messageCatalog))

func init() {
	for i := range messageCatalog {
		catalogIndex[messageCatalog[i].ID] = &messageCatalog[i]
	}
}

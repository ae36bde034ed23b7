// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package runtime

import (
	"github.com/pluce/openlink/pkg/models"
)

// Logical acknowledgement element ids per sender side.
const (
	// LogicalAckDownlinkID is sent by aircraft.
	LogicalAckDownlinkID = "DM100"
	// LogicalAckUplinkID is sent by stations.
	LogicalAckUplinkID = "UM227"
)

// IsLogicalAckElementID reports whether id is a logical acknowledgement.
func IsLogicalAckElementID(id string) bool {
	return id == LogicalAckDownlinkID || id == LogicalAckUplinkID
}

// MessageContainsLogicalAck reports whether any element is a logical
// acknowledgement.
func MessageContainsLogicalAck(elements []models.MessageElement) bool {
	for _, element := range elements {
		if IsLogicalAckElementID(element.ID) {
			return true
		}
	}
	return false
}

// ShouldAutoSendLogicalAck reports whether a client should answer an
// incoming application message with an automatic logical acknowledgement.
// The incoming message must carry a server-assigned MIN (min > 0) and must
// not itself be a logical acknowledgement, which would loop.
func ShouldAutoSendLogicalAck(elements []models.MessageElement, min uint8) bool {
	return min > 0 && !MessageContainsLogicalAck(elements)
}

// ClosesDialogueResponseElements reports whether the elements close the
// referenced dialogue: at least one closing response (WILCO, UNABLE,
// ROGER, AFFIRM, NEGATIVE in either direction) and no standby element.
// Standby suspends a dialogue without closing it.
func ClosesDialogueResponseElements(elements []models.MessageElement) bool {
	closes := false
	for _, element := range elements {
		entry := models.FindCatalogEntry(element.ID)
		if entry == nil {
			continue
		}
		if entry.Standby() {
			return false
		}
		if entry.Closes() {
			closes = true
		}
	}
	return closes
}

// ResponseAttrToIntents maps one response attribute to its canonical
// ordered short-response intent list.
func ResponseAttrToIntents(attr models.ResponseAttribute) []models.ResponseIntent {
	return models.ResponseAttrIntents(attr)
}

// AttrResolver resolves an element id to its response attribute. SDKs
// whose catalog is not the static registry (fixture-driven tests, remote
// catalogs) plug in their own resolver.
type AttrResolver func(id string) (models.ResponseAttribute, bool)

// ChooseShortResponseIntentsWithResolver selects the short-response
// intents for a possibly multi-element message using the given resolver.
// The effective attribute follows WU > AN > R > Y > N precedence; when no
// element resolves at all the fallback is the W/U intent list.
func ChooseShortResponseIntentsWithResolver(elements []models.MessageElement, resolve AttrResolver) []models.ResponseIntent {
	var attrs []models.ResponseAttribute
	for _, element := range elements {
		if attr, ok := resolve(element.ID); ok {
			attrs = append(attrs, attr)
		}
	}

	if len(attrs) == 0 {
		return ResponseAttrToIntents(models.RespWU)
	}
	return ResponseAttrToIntents(models.EffectiveResponseAttr(attrs))
}

// ChooseShortResponseIntents selects short-response intents against the
// static catalog.
func ChooseShortResponseIntents(elements []models.MessageElement) []models.ResponseIntent {
	return ChooseShortResponseIntentsWithResolver(elements, func(id string) (models.ResponseAttribute, bool) {
		if entry := models.FindCatalogEntry(id); entry != nil {
			return entry.ResponseAttr, true
		}
		return "", false
	})
}

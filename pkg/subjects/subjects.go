// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package subjects is the single authority for every NATS subject and KV
// bucket name used on the OpenLink network. Clients, the server, and
// tooling must build names through this package so the convention lives in
// exactly one place and versioning stays explicit.
//
// Subject layout:
//
//	openlink.v1.{network}.outbox.{address}   ← clients PUBLISH here
//	openlink.v1.{network}.inbox.{address}    ← clients SUBSCRIBE here
//	openlink.v1.{network}.outbox.>           ← server wildcard
//	openlink.v1.{network}.inbox.>            ← server publish scope
package subjects

import (
	"fmt"
	"strings"

	"github.com/pluce/openlink/pkg/models"
)

// version is the current subject naming version.
const version = "v1"

// Outbox is the subject a client publishes to when sending a message. The
// server subscribes to OutboxWildcard to receive them all.
func Outbox(network models.NetworkID, address models.NetworkAddress) string {
	return fmt.Sprintf("openlink.%s.%s.outbox.%s", version, network, address)
}

// Inbox is the subject a client subscribes to in order to receive
// messages routed to it.
func Inbox(network models.NetworkID, address models.NetworkAddress) string {
	return fmt.Sprintf("openlink.%s.%s.inbox.%s", version, network, address)
}

// OutboxWildcard matches every outbox message on a network.
func OutboxWildcard(network models.NetworkID) string {
	return fmt.Sprintf("openlink.%s.%s.outbox.>", version, network)
}

// InboxWildcard matches every inbox message on a network. Used by the
// server's publish permission and by monitoring tooling.
func InboxWildcard(network models.NetworkID) string {
	return fmt.Sprintf("openlink.%s.%s.inbox.>", version, network)
}

// KVCpdlcSessions is the JetStream KV bucket holding per-aircraft CPDLC
// session state.
func KVCpdlcSessions(network models.NetworkID) string {
	return fmt.Sprintf("openlink-%s-%s-cpdlc-sessions", version, network)
}

// KVStationRegistry is the JetStream KV bucket holding the station
// registry.
func KVStationRegistry(network models.NetworkID) string {
	return fmt.Sprintf("openlink-%s-%s-station-registry", version, network)
}

// KVStationCallsignIndex is the reverse-index bucket mapping callsigns to
// station ids for O(1) resolution.
func KVStationCallsignIndex(network models.NetworkID) string {
	return fmt.Sprintf("openlink-%s-%s-station-callsign-index", version, network)
}

// ParseOutboxSender extracts the sender address from an outbox subject.
// Given "openlink.v1.vatsim.outbox.LFPG" it returns "LFPG"; the second
// return value is false when the subject does not match.
func ParseOutboxSender(subject string) (string, bool) {
	return parseAddress(subject, "outbox")
}

// ParseInboxRecipient extracts the recipient address from an inbox
// subject.
func ParseInboxRecipient(subject string) (string, bool) {
	return parseAddress(subject, "inbox")
}

func parseAddress(subject, direction string) (string, bool) {
	parts := strings.SplitN(subject, ".", 5)
	if len(parts) != 5 || parts[0] != "openlink" || parts[3] != direction {
		return "", false
	}
	return parts[4], true
}

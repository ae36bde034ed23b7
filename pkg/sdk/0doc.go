// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sdk is the typed client surface over the OpenLink transport.
// It authenticates against the gateway, connects to the broker, publishes
// to the client's own outbox, subscribes to the client's own inbox, and
// offers builders plus the automatic inbound behaviours (logical
// acknowledgements, UM117 contact handover, presence heartbeat) so product
// UIs never handle protocol rules themselves.
package sdk

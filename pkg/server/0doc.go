// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package server implements the OpenLink session engine: one logical
// instance per network that subscribes the outbox wildcard, validates
// envelopes, drives the per-aircraft CPDLC session state machine, assigns
// MIN numbers, forwards routed messages to destination inboxes, broadcasts
// authoritative session snapshots, and sweeps stale station presence.
//
// All durable state lives in broker-backed KV buckets; the engine itself
// is stateless and horizontally replaceable per network.
package server

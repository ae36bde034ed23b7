// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package models holds the canonical OpenLink data types: the nested
// envelope hierarchy, network and ACARS addressing, the CPDLC application
// and meta messages, the session view broadcast by the server, and the
// static CPDLC message catalog.
//
// The message hierarchy nests three envelope layers:
//
//	Envelope
//	├── Payload: Acars(AcarsEnvelope)
//	│   └── AcarsMessage: CPDLC(CpdlcEnvelope)
//	│       ├── CpdlcMessage: Application(CpdlcApplicationMessage)
//	│       └── CpdlcMessage: Meta(CpdlcMeta)
//	└── Payload: Meta(StationStatusMeta)
//
// Sum types serialise with an external tag, {"type": "X", "data": ...},
// so the wire format is shared with every other OpenLink SDK.
package models

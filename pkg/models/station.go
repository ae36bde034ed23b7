// SPDX-FileCopyrightText: 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package models

import (
	"encoding/json"
)

// StationID identifies an authenticated participant within a network. It
// carries the network address side of the (NetworkID, NetworkAddress)
// pair; the network itself is implied by the envelope routing.
type StationID string

func (s StationID) String() string {
	return string(s)
}

// StationStatus is the availability of a station.
type StationStatus string

const (
	// StationOnline means the station accepts connections.
	StationOnline StationStatus = "Online"
	// StationOffline means the station has left the network.
	StationOffline StationStatus = "Offline"
)

// StationStatusMeta is the system-level presence announcement a station
// publishes: its id, status and ACARS endpoint. On the wire it is the
// serde tuple variant {"StationStatus": [id, status, endpoint]}.
type StationStatusMeta struct {
	ID       StationID
	Status   StationStatus
	Endpoint AcarsEndpoint
}

// MarshalJSON emits the tuple variant form.
func (m StationStatusMeta) MarshalJSON() ([]byte, error) {
	tuple := [3]interface{}{m.ID, m.Status, m.Endpoint}
	return json.Marshal(map[string][3]interface{}{"StationStatus": tuple})
}

// UnmarshalJSON parses the tuple variant form.
func (m *StationStatusMeta) UnmarshalJSON(data []byte) error {
	var raw map[string][3]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return malformedJSON(err)
	}
	tuple, ok := raw["StationStatus"]
	if !ok {
		return unknownVariant("StationStatusMeta", data)
	}
	if err := json.Unmarshal(tuple[0], &m.ID); err != nil {
		return invalidField("station id", err)
	}
	if err := json.Unmarshal(tuple[1], &m.Status); err != nil {
		return invalidField("station status", err)
	}
	if err := json.Unmarshal(tuple[2], &m.Endpoint); err != nil {
		return invalidField("station endpoint", err)
	}
	return nil
}

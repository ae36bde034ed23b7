// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package models

import (
	"encoding/json"
	"fmt"
)

// NetworkID names a logical OpenLink network, e.g. "demonetwork" or
// "vatsim". Stations are registered per network; a NetworkID is stable
// across a deployment.
type NetworkID string

func (n NetworkID) String() string {
	return string(n)
}

// NetworkAddress identifies a station within a network. It is the routing
// key on the broker and is derived from the authenticated principal (CID),
// never from a callsign.
type NetworkAddress string

func (a NetworkAddress) String() string {
	return string(a)
}

// RoutingEndpoint is one end of a network-level routing path: either the
// network's server or a concrete station address on a network.
type RoutingEndpoint struct {
	// Network is always set.
	Network NetworkID
	// Address is empty for a server endpoint.
	Address NetworkAddress
	// server discriminates the two variants.
	server bool
}

// ServerEndpoint targets the network itself; the server decides how to
// route further.
func ServerEndpoint(network NetworkID) RoutingEndpoint {
	return RoutingEndpoint{Network: network, server: true}
}

// AddressEndpoint targets a specific station on a network.
func AddressEndpoint(network NetworkID, address NetworkAddress) RoutingEndpoint {
	return RoutingEndpoint{Network: network, Address: address}
}

// IsServer reports whether this endpoint targets the network server.
func (e RoutingEndpoint) IsServer() bool {
	return e.server
}

func (e RoutingEndpoint) String() string {
	if e.server {
		return fmt.Sprintf("server(%s)", e.Network)
	}
	return fmt.Sprintf("%s@%s", e.Address, e.Network)
}

// MarshalJSON emits {"Server": "net"} or {"Address": ["net", "addr"]}.
func (e RoutingEndpoint) MarshalJSON() ([]byte, error) {
	if e.server {
		return json.Marshal(map[string]NetworkID{"Server": e.Network})
	}
	return json.Marshal(map[string][2]string{
		"Address": {string(e.Network), string(e.Address)},
	})
}

// UnmarshalJSON parses the externally tagged endpoint form.
func (e *RoutingEndpoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return malformedJSON(err)
	}

	if server, ok := raw["Server"]; ok {
		var network NetworkID
		if err := json.Unmarshal(server, &network); err != nil {
			return invalidField("Server", err)
		}
		*e = ServerEndpoint(network)
		return nil
	}
	if address, ok := raw["Address"]; ok {
		var pair [2]string
		if err := json.Unmarshal(address, &pair); err != nil {
			return invalidField("Address", err)
		}
		*e = AddressEndpoint(NetworkID(pair[0]), NetworkAddress(pair[1]))
		return nil
	}
	return unknownVariant("RoutingEndpoint", data)
}

// Routing is the source → destination header attached to every Envelope.
type Routing struct {
	Source      RoutingEndpoint `json:"source"`
	Destination RoutingEndpoint `json:"destination"`
}

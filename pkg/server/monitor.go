// SPDX-FileCopyrightText: 2026 Matthias Axel Kröll
//
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"encoding/json"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/pluce/openlink/pkg/models"
)

// Monitor is the read-only observation surface of the engine: a station
// registry listing over plain HTTP and a live WebSocket tap of every
// forwarded envelope. It never mutates engine state.
type Monitor struct {
	router   *mux.Router
	registry *StationRegistry
	upgrader websocket.Upgrader

	mutex   sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewMonitor wires the monitor routes onto a fresh router.
func NewMonitor(registry *StationRegistry) *Monitor {
	m := &Monitor{
		router:   mux.NewRouter(),
		registry: registry,
		clients:  make(map[*websocket.Conn]bool),
	}

	m.router.HandleFunc("/stations", m.handleStations).Methods(http.MethodGet)
	m.router.HandleFunc("/live", m.handleLive).Methods(http.MethodGet)

	return m
}

// ServeHTTP makes the monitor a http.Handler.
func (m *Monitor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.router.ServeHTTP(w, r)
}

// handleStations lists the station registry.
func (m *Monitor) handleStations(w http.ResponseWriter, _ *http.Request) {
	entries, err := m.registry.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		log.WithError(err).Warn("Failed to write station listing")
	}
}

// handleLive upgrades to a WebSocket and streams forwarded envelopes
// until the peer disconnects.
func (m *Monitor) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("Upgrading monitor request to WebSocket errored")
		return
	}

	m.mutex.Lock()
	m.clients[conn] = true
	m.mutex.Unlock()

	log.WithField("peer", conn.RemoteAddr()).Info("Monitor client connected")

	// Drain control frames; a read error means the peer left.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				m.drop(conn)
				return
			}
		}
	}()
}

// Observe feeds one forwarded envelope to every connected client.
func (m *Monitor) Observe(envelope models.Envelope) {
	raw, err := models.SerialiseEnvelope(envelope)
	if err != nil {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	for conn := range m.clients {
		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			delete(m.clients, conn)
			_ = conn.Close()
		}
	}
}

// drop removes a client after its read loop ended.
func (m *Monitor) drop(conn *websocket.Conn) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.clients[conn] {
		delete(m.clients, conn)
		_ = conn.Close()
		log.WithField("peer", conn.RemoteAddr()).Info("Monitor client disconnected")
	}
}

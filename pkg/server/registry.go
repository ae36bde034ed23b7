// SPDX-FileCopyrightText: 2026 Markus Sommer
//
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/hashicorp/go-multierror"

	"github.com/pluce/openlink/pkg/models"
)

// StationEntry is one station's registry record: identity, presence, and
// the addresses needed to route to it.
type StationEntry struct {
	StationID      models.StationID      `json:"station_id"`
	Status         models.StationStatus  `json:"status"`
	LastUpdated    time.Time             `json:"last_updated"`
	NetworkAddress models.NetworkAddress `json:"network_address"`
	Endpoint       models.AcarsEndpoint  `json:"acars_endpoint"`
}

// callsignIndexEntry is the reverse-index record callsign → station id.
type callsignIndexEntry struct {
	StationID models.StationID `json:"station_id"`
}

// StationRegistry maps stations to their presence and routing data. It is
// owned by the engine and mutated on inbound StationStatus announcements
// and by the presence sweeper. A reverse-index bucket keeps callsign
// resolution O(1).
type StationRegistry struct {
	entries KV
	index   KV
}

// NewStationRegistry wraps the two KV buckets.
func NewStationRegistry(entries, index KV) *StationRegistry {
	return &StationRegistry{entries: entries, index: index}
}

// Get loads a station's entry by id, nil when unknown.
func (r *StationRegistry) Get(id models.StationID) (*StationEntry, error) {
	raw, _, err := r.entries.Get(string(id))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var entry StationEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("corrupt registry record for %s: %w", id, err)
	}
	return &entry, nil
}

// LookupCallsign resolves a callsign to its station entry through the
// reverse index, nil when no online station carries the callsign.
func (r *StationRegistry) LookupCallsign(callsign models.Callsign) (*StationEntry, error) {
	raw, _, err := r.index.Get(indexKey(callsign))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var index callsignIndexEntry
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, fmt.Errorf("corrupt callsign index for %s: %w", callsign, err)
	}
	return r.Get(index.StationID)
}

// UpdateStatus inserts or refreshes a station's registry record and keeps
// the callsign index consistent: indexed while online, dropped when
// offline or when the callsign changed.
func (r *StationRegistry) UpdateStatus(id models.StationID, status models.StationStatus, endpoint models.AcarsEndpoint, address models.NetworkAddress) error {
	if existing, err := r.Get(id); err != nil {
		return err
	} else if existing != nil && existing.Endpoint.Callsign != endpoint.Callsign {
		if err := r.index.Delete(indexKey(existing.Endpoint.Callsign)); err != nil {
			log.WithError(err).WithField("callsign", existing.Endpoint.Callsign).
				Warn("Failed to drop stale callsign index")
		}
	}

	entry := StationEntry{
		StationID:      id,
		Status:         status,
		LastUpdated:    time.Now().UTC(),
		NetworkAddress: address,
		Endpoint:       endpoint,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := r.entries.Put(string(id), raw); err != nil {
		return err
	}

	if status == models.StationOnline {
		index, err := json.Marshal(callsignIndexEntry{StationID: id})
		if err != nil {
			return err
		}
		_, err = r.index.Put(indexKey(endpoint.Callsign), index)
		return err
	}
	return r.index.Delete(indexKey(endpoint.Callsign))
}

// List loads every registry entry.
func (r *StationRegistry) List() ([]StationEntry, error) {
	keys, err := r.entries.Keys()
	if err != nil {
		return nil, err
	}

	entries := make([]StationEntry, 0, len(keys))
	for _, key := range keys {
		entry, err := r.Get(models.StationID(key))
		if err != nil {
			return nil, err
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

// ExpireStaleOnline marks every online station whose last heartbeat is
// older than the lease as offline and returns the expired entries.
// Partial failures do not stop the sweep; they are aggregated.
func (r *StationRegistry) ExpireStaleOnline(lease time.Duration) ([]StationEntry, error) {
	entries, err := r.List()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var expired []StationEntry
	var sweepErr *multierror.Error

	for _, entry := range entries {
		if entry.Status != models.StationOnline {
			continue
		}
		if now.Sub(entry.LastUpdated) <= lease {
			continue
		}

		err := r.UpdateStatus(entry.StationID, models.StationOffline, entry.Endpoint, entry.NetworkAddress)
		if err != nil {
			sweepErr = multierror.Append(sweepErr, fmt.Errorf("expiring %s: %w", entry.StationID, err))
			continue
		}
		expired = append(expired, entry)
	}

	return expired, sweepErr.ErrorOrNil()
}

// indexKey normalises callsigns for the reverse index.
func indexKey(callsign models.Callsign) string {
	return strings.ToUpper(string(callsign))
}

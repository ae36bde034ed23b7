// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pluce/openlink/pkg/models"
)

// ErrKeyNotFound is returned by KV implementations for absent keys.
var ErrKeyNotFound = errors.New("key not found")

// ErrWrongRevision is returned when a compare-and-swap update lost a race.
var ErrWrongRevision = errors.New("wrong key revision")

// KV is the durable key/value surface the engine needs: plain reads and
// writes plus revision-guarded updates for the session read-modify-write
// cycle. The production implementation is a broker-backed bucket; tests
// use the in-memory one.
type KV interface {
	// Get returns the value and revision of a key, ErrKeyNotFound when
	// absent.
	Get(key string) ([]byte, uint64, error)
	// Create writes a key that must not exist yet.
	Create(key string, value []byte) (uint64, error)
	// Update writes a key iff the stored revision still matches,
	// ErrWrongRevision otherwise.
	Update(key string, value []byte, revision uint64) (uint64, error)
	// Put writes a key unconditionally.
	Put(key string, value []byte) (uint64, error)
	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error
	// Keys lists all present keys.
	Keys() ([]string, error)
}

// casRetries bounds the optimistic-concurrency retry loop.
const casRetries = 5

// SessionStore persists per-aircraft CPDLC sessions, keyed by aircraft
// callsign. All mutations are linearised through compare-and-swap on the
// underlying bucket, which serialises handlers per aircraft.
type SessionStore struct {
	kv KV
}

// NewSessionStore wraps a KV bucket.
func NewSessionStore(kv KV) *SessionStore {
	return &SessionStore{kv: kv}
}

// Get loads the session for an aircraft, nil when none exists.
func (st *SessionStore) Get(aircraft models.Callsign) (*Session, error) {
	raw, _, err := st.kv.Get(string(aircraft))
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("corrupt session record for %s: %w", aircraft, err)
	}
	return &session, nil
}

// Update atomically read-modify-writes the session of an aircraft. The
// callback receives the current session or nil and returns the new state;
// returning nil deletes the record. A lost race is retried; after
// casRetries attempts in total the update gives up.
func (st *SessionStore) Update(aircraft models.Callsign, mutate func(*Session) (*Session, error)) (*Session, error) {
	key := string(aircraft)

	for attempt := 0; attempt < casRetries; attempt++ {
		raw, revision, err := st.kv.Get(key)

		var current *Session
		switch {
		case errors.Is(err, ErrKeyNotFound):
			revision = 0
		case err != nil:
			return nil, err
		default:
			current = new(Session)
			if err := json.Unmarshal(raw, current); err != nil {
				return nil, fmt.Errorf("corrupt session record for %s: %w", aircraft, err)
			}
		}

		updated, err := mutate(current)
		if err != nil {
			return nil, err
		}

		if updated == nil {
			if err := st.kv.Delete(key); err != nil {
				return nil, err
			}
			return nil, nil
		}

		value, err := json.Marshal(updated)
		if err != nil {
			return nil, err
		}

		if revision == 0 {
			_, err = st.kv.Create(key, value)
		} else {
			_, err = st.kv.Update(key, value, revision)
		}
		if errors.Is(err, ErrWrongRevision) {
			continue
		} else if err != nil {
			return nil, err
		}
		return updated, nil
	}

	return nil, fmt.Errorf("session update for %s lost %d races, giving up", aircraft, casRetries)
}

// List loads every stored session.
func (st *SessionStore) List() ([]*Session, error) {
	keys, err := st.kv.Keys()
	if err != nil {
		return nil, err
	}

	sessions := make([]*Session, 0, len(keys))
	for _, key := range keys {
		session, err := st.Get(models.Callsign(key))
		if err != nil {
			return nil, err
		}
		if session != nil {
			sessions = append(sessions, session)
		}
	}
	return sessions, nil
}

// MemoryKV is an in-memory KV used by tests and single-process setups.
type MemoryKV struct {
	mutex     sync.Mutex
	values    map[string][]byte
	revisions map[string]uint64
	counter   uint64
}

// NewMemoryKV creates an empty in-memory bucket.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		values:    make(map[string][]byte),
		revisions: make(map[string]uint64),
	}
}

// Get implements KV.
func (m *MemoryKV) Get(key string) ([]byte, uint64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	value, ok := m.values[key]
	if !ok {
		return nil, 0, ErrKeyNotFound
	}
	copied := make([]byte, len(value))
	copy(copied, value)
	return copied, m.revisions[key], nil
}

// Create implements KV.
func (m *MemoryKV) Create(key string, value []byte) (uint64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.values[key]; ok {
		return 0, ErrWrongRevision
	}
	return m.write(key, value), nil
}

// Update implements KV.
func (m *MemoryKV) Update(key string, value []byte, revision uint64) (uint64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	current, ok := m.revisions[key]
	if !ok || current != revision {
		return 0, ErrWrongRevision
	}
	return m.write(key, value), nil
}

// Put implements KV.
func (m *MemoryKV) Put(key string, value []byte) (uint64, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.write(key, value), nil
}

// Delete implements KV.
func (m *MemoryKV) Delete(key string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	delete(m.values, key)
	delete(m.revisions, key)
	return nil
}

// Keys implements KV.
func (m *MemoryKV) Keys() ([]string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	keys := make([]string, 0, len(m.values))
	for key := range m.values {
		keys = append(keys, key)
	}
	return keys, nil
}

func (m *MemoryKV) write(key string, value []byte) uint64 {
	copied := make([]byte, len(value))
	copy(copied, value)
	m.counter++
	m.values[key] = copied
	m.revisions[key] = m.counter
	return m.counter
}

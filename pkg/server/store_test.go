// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pluce/openlink/pkg/models"
)

func TestMemoryKVBasics(t *testing.T) {
	kv := NewMemoryKV()

	if _, _, err := kv.Get("missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}

	rev, err := kv.Create("a", []byte("one"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := kv.Create("a", []byte("two")); !errors.Is(err, ErrWrongRevision) {
		t.Fatalf("duplicate create should fail, got %v", err)
	}

	value, gotRev, err := kv.Get("a")
	if err != nil || string(value) != "one" || gotRev != rev {
		t.Fatalf("Get = %s rev %d err %v", value, gotRev, err)
	}

	if _, err := kv.Update("a", []byte("two"), rev+99); !errors.Is(err, ErrWrongRevision) {
		t.Fatalf("stale update should fail, got %v", err)
	}
	if _, err := kv.Update("a", []byte("two"), rev); err != nil {
		t.Fatal(err)
	}

	value, _, _ = kv.Get("a")
	if string(value) != "two" {
		t.Fatalf("value = %s", value)
	}

	if err := kv.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if err := kv.Delete("a"); err != nil {
		t.Fatalf("deleting absent key should be a no-op, got %v", err)
	}
}

func TestSessionStoreCreateAndUpdate(t *testing.T) {
	store := NewSessionStore(NewMemoryKV())
	aircraft := endpoint("AFR123", "AY213")

	created, err := store.Update("AFR123", func(session *Session) (*Session, error) {
		if session != nil {
			t.Fatal("first update should see no session")
		}
		return NewSession(aircraft), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if created == nil || created.Aircraft.Callsign != "AFR123" {
		t.Fatalf("created = %+v", created)
	}

	updated, err := store.Update("AFR123", func(session *Session) (*Session, error) {
		if session == nil {
			t.Fatal("second update should see the session")
		}
		nda := models.Callsign("EGLL")
		session.NextDataAuthority = &nda
		return session, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.NextDataAuthority == nil || *updated.NextDataAuthority != "EGLL" {
		t.Fatalf("nda = %v", updated.NextDataAuthority)
	}

	loaded, err := store.Get("AFR123")
	if err != nil {
		t.Fatal(err)
	}
	if loaded == nil || loaded.NextDataAuthority == nil || *loaded.NextDataAuthority != "EGLL" {
		t.Fatalf("loaded = %+v", loaded)
	}
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewSessionStore(NewMemoryKV())

	if _, err := store.Update("AFR123", func(*Session) (*Session, error) {
		return NewSession(endpoint("AFR123", "AY213")), nil
	}); err != nil {
		t.Fatal(err)
	}

	deleted, err := store.Update("AFR123", func(*Session) (*Session, error) {
		return nil, nil
	})
	if err != nil || deleted != nil {
		t.Fatalf("delete = %v, %v", deleted, err)
	}

	loaded, err := store.Get("AFR123")
	if err != nil || loaded != nil {
		t.Fatalf("after delete: %v, %v", loaded, err)
	}
}

func TestSessionStoreMutationErrorPropagates(t *testing.T) {
	store := NewSessionStore(NewMemoryKV())

	boom := fmt.Errorf("guard violated")
	if _, err := store.Update("AFR123", func(*Session) (*Session, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected the mutation error, got %v", err)
	}
}

// racingKV makes the first update attempts lose their CAS race.
type racingKV struct {
	*MemoryKV
	failures int
}

func (r *racingKV) Update(key string, value []byte, revision uint64) (uint64, error) {
	if r.failures > 0 {
		r.failures--
		return 0, ErrWrongRevision
	}
	return r.MemoryKV.Update(key, value, revision)
}

func TestSessionStoreRetriesLostRaces(t *testing.T) {
	kv := &racingKV{MemoryKV: NewMemoryKV(), failures: 2}
	store := NewSessionStore(kv)

	if _, err := store.Update("AFR123", func(*Session) (*Session, error) {
		return NewSession(endpoint("AFR123", "AY213")), nil
	}); err != nil {
		t.Fatal(err)
	}

	attempts := 0
	_, err := store.Update("AFR123", func(session *Session) (*Session, error) {
		attempts++
		return session, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts (2 lost races), got %d", attempts)
	}
}

func TestSessionStoreGivesUpAfterBoundedRetries(t *testing.T) {
	kv := &racingKV{MemoryKV: NewMemoryKV(), failures: 100}
	store := NewSessionStore(kv)

	if _, err := store.Update("AFR123", func(*Session) (*Session, error) {
		return NewSession(endpoint("AFR123", "AY213")), nil
	}); err != nil {
		t.Fatal(err)
	}

	_, err := store.Update("AFR123", func(session *Session) (*Session, error) {
		return session, nil
	})
	if err == nil {
		t.Fatal("exhausted retries should surface an error")
	}
}

func TestSessionStoreList(t *testing.T) {
	store := NewSessionStore(NewMemoryKV())

	for _, callsign := range []string{"AFR123", "BAW456"} {
		callsign := callsign
		if _, err := store.Update(models.Callsign(callsign), func(*Session) (*Session, error) {
			return NewSession(endpoint(callsign, "ADDR")), nil
		}); err != nil {
			t.Fatal(err)
		}
	}

	sessions, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("listed %d sessions", len(sessions))
	}
}

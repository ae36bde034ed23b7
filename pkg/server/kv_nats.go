// SPDX-FileCopyrightText: 2026 Alvar Penning
//
// SPDX-License-Identifier: GPL-3.0-or-later

package server

import (
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/nats-io/nats.go"
)

// NatsKV adapts a JetStream key/value bucket to the KV interface. The
// bucket's revision numbers back the compare-and-swap session updates.
type NatsKV struct {
	bucket nats.KeyValue
}

// OpenNatsKV creates or binds the named bucket. With clean set the bucket
// is dropped first, which test environments use for a fresh start.
func OpenNatsKV(js nats.JetStreamContext, bucket string, clean bool) (*NatsKV, error) {
	if clean {
		if err := js.DeleteKeyValue(bucket); err != nil {
			log.WithFields(log.Fields{
				"bucket": bucket,
				"error":  err,
			}).Debug("No bucket to delete")
		} else {
			log.WithField("bucket", bucket).Info("Force-reset KV bucket")
		}
	}

	kv, err := js.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:  bucket,
		History: 1,
	})
	if err != nil {
		// The bucket may already exist with a different configuration.
		kv, err = js.KeyValue(bucket)
		if err != nil {
			return nil, err
		}
	}

	return &NatsKV{bucket: kv}, nil
}

// Get implements KV.
func (n *NatsKV) Get(key string) ([]byte, uint64, error) {
	entry, err := n.bucket.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, 0, ErrKeyNotFound
	} else if err != nil {
		return nil, 0, err
	}
	return entry.Value(), entry.Revision(), nil
}

// Create implements KV.
func (n *NatsKV) Create(key string, value []byte) (uint64, error) {
	revision, err := n.bucket.Create(key, value)
	if errors.Is(err, nats.ErrKeyExists) {
		return 0, ErrWrongRevision
	}
	return revision, err
}

// Update implements KV.
func (n *NatsKV) Update(key string, value []byte, revision uint64) (uint64, error) {
	next, err := n.bucket.Update(key, value, revision)
	if err != nil {
		var apiErr *nats.APIError
		if errors.As(err, &apiErr) {
			return 0, ErrWrongRevision
		}
		return 0, err
	}
	return next, nil
}

// Put implements KV.
func (n *NatsKV) Put(key string, value []byte) (uint64, error) {
	return n.bucket.Put(key, value)
}

// Delete implements KV.
func (n *NatsKV) Delete(key string) error {
	err := n.bucket.Delete(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Keys implements KV.
func (n *NatsKV) Keys() ([]string, error) {
	keys, err := n.bucket.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return nil, nil
	}
	return keys, err
}

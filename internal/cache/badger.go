// Insightboard - Insights Dashboard Data Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/insightboard

package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/insightboard/internal/logging"
	"github.com/tomtom215/insightboard/internal/metrics"
)

// OpenBadgerDB opens badger at path, or in memory when path is empty.
func OpenBadgerDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	opts.ValueLogFileSize = 16 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return db, nil
}

// envelopeHeader is the 8-byte big-endian expiry in unix nanoseconds that
// precedes every stored value. Badger's own TTL has second granularity, so
// it only reclaims space; visibility is decided by the envelope.
const envelopeHeader = 8

// Badger is a Cacher on an embedded badger database. Several namespaces may
// share one *badger.DB.
type Badger struct {
	db     *badger.DB
	prefix []byte
	name   string
	now    func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
	clears atomic.Int64
}

// NewBadger creates a badger-backed cache in namespace.
func NewBadger(db *badger.DB, namespace string) *Badger {
	return &Badger{
		db:     db,
		prefix: []byte("cache:" + namespace + ":"),
		name:   namespace,
		now:    time.Now,
	}
}

func (c *Badger) key(k string) []byte {
	out := make([]byte, 0, len(c.prefix)+len(k))
	out = append(out, c.prefix...)
	return append(out, k...)
}

// Get returns the value for key when present and unexpired.
func (c *Badger) Get(ctx context.Context, key string) ([]byte, bool) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) < envelopeHeader {
				return errors.New("short cache envelope")
			}
			expires := int64(binary.BigEndian.Uint64(val[:envelopeHeader]))
			if c.now().UnixNano() >= expires {
				return badger.ErrKeyNotFound
			}
			value = append([]byte(nil), val[envelopeHeader:]...)
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Str("cache", c.name).Msg("Badger cache get failed")
		}
		c.misses.Add(1)
		metrics.RecordCacheLookup(c.name, false)
		return nil, false
	}
	c.hits.Add(1)
	metrics.RecordCacheLookup(c.name, true)
	return value, true
}

// Set stores value until now+ttl.
func (c *Badger) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	expires := c.now().Add(ttl)

	buf := make([]byte, envelopeHeader+len(value))
	binary.BigEndian.PutUint64(buf[:envelopeHeader], uint64(expires.UnixNano()))
	copy(buf[envelopeHeader:], value)

	// Round the storage TTL up to whole seconds so badger never drops an
	// entry before the envelope expiry.
	storeTTL := ttl.Truncate(time.Second) + time.Second

	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(c.key(key), buf).WithTTL(storeTTL))
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("cache", c.name).Msg("Badger cache set failed")
	}
}

// Delete removes key.
func (c *Badger) Delete(ctx context.Context, key string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(c.key(key))
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("cache", c.name).Msg("Badger cache delete failed")
	}
}

// Clear drops every key in this namespace.
func (c *Badger) Clear(_ context.Context) error {
	if err := c.db.DropPrefix(c.prefix); err != nil {
		return fmt.Errorf("badger drop prefix %s: %w", c.prefix, err)
	}
	c.clears.Add(1)
	return nil
}

// Stats returns hit/miss counters. Evictions counts Clear calls.
func (c *Badger) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.clears.Load(),
	}
}

// Package utils provides download and caching helpers for dataset retrieval.
package utils

import (
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// DiskCache is a persistent key/value cache for fetched datasets.
type DiskCache struct {
	db    *badger.DB
	cache sync.Map
}

type cacheEntry struct {
	val       []byte
	expiresAt time.Time
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func OpenDiskCache(path string) (*DiskCache, error) {
	opts := badger.DefaultOptions(path)
	// Decrease logging verbosity
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &DiskCache{db: db}, nil
}

func (c *DiskCache) Close() error {
	return c.db.Close()
}

// Put stores value under key with no expiry.
func (c *DiskCache) Put(key string, value []byte) error {
	return c.PutWithTTL(key, value, 0)
}

// PutWithTTL stores value under key. A zero ttl never expires.
func (c *DiskCache) PutWithTTL(key string, value []byte, ttl time.Duration) error {
	entry := badger.NewEntry([]byte(key), value)
	var expiresAt time.Time
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
		expiresAt = time.Now().Add(ttl)
	}
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
	if err != nil {
		return err
	}
	c.cache.Store(key, cacheEntry{val: append([]byte(nil), value...), expiresAt: expiresAt})
	return nil
}

// Get returns the value stored under key, or nil if there is none.
func (c *DiskCache) Get(key string) ([]byte, error) {
	if v, ok := c.cache.Load(key); ok {
		e := v.(cacheEntry)
		if !e.expired(time.Now()) {
			return e.val, nil
		}
		c.cache.Delete(key)
	}

	var val []byte
	var expiresAt time.Time
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		if exp := item.ExpiresAt(); exp > 0 {
			expiresAt = time.Unix(int64(exp), 0)
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.cache.Store(key, cacheEntry{val: val, expiresAt: expiresAt})
	return val, nil
}

func (c *DiskCache) Delete(key string) error {
	c.cache.Delete(key)
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (c *DiskCache) ForEach(fn func(k []byte, v []byte) error) error {
	return c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			k := item.Key()
			err := item.Value(func(v []byte) error {
				return fn(k, v)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

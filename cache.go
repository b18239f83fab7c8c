// Persisted credential cache.
//
// Every operation takes the cross-process lock at LockPath(store), brings
// the in-memory view up to date with the persisted document, works on it
// and, for writes, saves it back before the lock is released. Other
// processes following the same protocol therefore always observe complete
// read-modify-write cycles.
//
// Reloads are skipped when the persisted file's modification time matches
// the last sync and is old enough that a same-tick write by another process
// would already be visible. Otherwise the document is read and its xxh3
// digest compared with the last one seen, so touching the file without
// changing it costs a read but not a decode.
package credcache

import (
	"context"
	"errors"
	"maps"
	"os"
	"slices"
	"sync"
	"time"
)

// modTimeSlack covers filesystems whose mtime resolution is coarse enough
// for two saves to share a timestamp.
const modTimeSlack = 2 * time.Second

// Cache is a lock-guarded credential store. It is safe for concurrent use;
// goroutines in one process are serialised before contending for the
// cross-process lock.
type Cache struct {
	mu      sync.Mutex
	store   Persistence
	lock    *Lock
	cfg     Config
	entries map[string]Entry
	synced  time.Time // store modification time at last load or save
	sum     uint64    // digest of the last document loaded or saved
	loaded  bool
}

// OpenCache returns a Cache over store. No I/O happens until the first
// operation.
func OpenCache(store Persistence, cfg Config) *Cache {
	cfg = cfg.withDefaults()
	return &Cache{
		store: store,
		lock:  New(LockPath(store), cfg),
		cfg:   cfg,
	}
}

// Get returns the entry for key. Missing and expired entries both report
// ErrNotFound.
func (c *Cache) Get(ctx context.Context, key string) (Entry, error) {
	var e Entry
	err := c.view(ctx, func(entries map[string]Entry) error {
		found, ok := entries[key]
		if !ok || found.Expired(c.cfg.Now()) {
			return ErrNotFound
		}
		e = found.clone()
		return nil
	})
	return e, err
}

// Set stores a copy of e under key.
func (c *Cache) Set(ctx context.Context, key string, e Entry) error {
	if key == "" {
		return ErrEmptyKey
	}
	e = e.clone()
	return c.Modify(ctx, func(entries map[string]Entry) error {
		entries[key] = e
		return nil
	})
}

// Delete removes key, returning ErrNotFound if it is absent.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.Modify(ctx, func(entries map[string]Entry) error {
		if _, ok := entries[key]; !ok {
			return ErrNotFound
		}
		delete(entries, key)
		return nil
	})
}

// Keys returns the keys of all unexpired entries, sorted.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := c.view(ctx, func(entries map[string]Entry) error {
		now := c.cfg.Now()
		for k, e := range entries {
			if !e.Expired(now) {
				keys = append(keys, k)
			}
		}
		slices.Sort(keys)
		return nil
	})
	return keys, err
}

// Purge deletes expired entries and reports how many were removed.
func (c *Cache) Purge(ctx context.Context) (int, error) {
	n := 0
	err := c.Modify(ctx, func(entries map[string]Entry) error {
		now := c.cfg.Now()
		maps.DeleteFunc(entries, func(_ string, e Entry) bool {
			if e.Expired(now) {
				n++
				return true
			}
			return false
		})
		return nil
	})
	return n, err
}

// Modify runs fn on a working copy of the entries while holding the lock
// and saves the result. If fn returns an error nothing is saved, the
// in-memory view is left untouched and the error is returned. Attrs maps in
// the copy are private to fn.
func (c *Cache) Modify(ctx context.Context, fn func(entries map[string]Entry) error) error {
	return c.locked(ctx, func() error {
		work := cloneEntries(c.entries)
		if err := fn(work); err != nil {
			return err
		}
		return c.save(work)
	})
}

// view runs fn on the current entries without saving. fn must not modify
// the map.
func (c *Cache) view(ctx context.Context, fn func(entries map[string]Entry) error) error {
	return c.locked(ctx, func() error {
		return fn(c.entries)
	})
}

// locked serialises in-process callers, takes the cross-process lock and
// refreshes the in-memory view before running fn.
func (c *Cache) locked(ctx context.Context, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lock.Do(ctx, func(*os.File) error {
		if err := c.reload(); err != nil {
			return err
		}
		return fn()
	})
}

func (c *Cache) reload() error {
	mod, err := c.store.Modified()
	if errors.Is(err, ErrPersistenceNotFound) {
		c.entries, c.sum, c.synced, c.loaded = map[string]Entry{}, 0, time.Time{}, true
		return nil
	}
	if err != nil {
		return err
	}
	if c.loaded && mod.Equal(c.synced) && time.Since(mod) > modTimeSlack {
		return nil
	}

	data, err := c.store.Load()
	if errors.Is(err, ErrPersistenceNotFound) {
		c.entries, c.sum, c.synced, c.loaded = map[string]Entry{}, 0, time.Time{}, true
		return nil
	}
	if err != nil {
		return err
	}

	sum := digest(data)
	if c.loaded && sum == c.sum {
		c.synced = mod
		return nil
	}
	entries, err := decodeDocument(data)
	if err != nil {
		return err
	}
	c.entries, c.sum, c.synced, c.loaded = entries, sum, mod, true
	c.cfg.Logger.Debug("cache reloaded", "path", c.store.Location(), "entries", len(entries))
	return nil
}

func (c *Cache) save(entries map[string]Entry) error {
	data, err := encodeDocument(entries)
	if err != nil {
		return err
	}
	if err := c.store.Save(data); err != nil {
		return err
	}
	c.entries, c.sum = entries, digest(data)
	if mod, err := c.store.Modified(); err == nil {
		c.synced = mod
	} else {
		c.synced = time.Time{}
	}
	return nil
}

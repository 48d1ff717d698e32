package marketdata

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// cacheEntry is the value stored per key, tagged with the time it was
// written so staleness can be computed against a per-call TTL.
type cacheEntry struct {
	Price     Quote
	StoredAt  time.Time
}

// Cache is a two-tier TTL cache: a fast in-memory map, promoted on miss from
// an optional msgpack file on disk so a process restart does not immediately
// re-hit every upstream adapter. Modeled on data/cache.py's DataCache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	fileDir string // empty disables the file-backed tier
	log     zerolog.Logger
}

// NewCache builds a Cache. fileDir may be empty to keep the cache
// memory-only (e.g. in tests).
func NewCache(fileDir string, log zerolog.Logger) *Cache {
	if fileDir != "" {
		_ = os.MkdirAll(fileDir, 0o755)
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		fileDir: fileDir,
		log:     log.With().Str("component", "cache").Logger(),
	}
}

// key mirrors _get_cache_key: an md5 hash of adapter+symbol+date so keys
// are fixed-length and filesystem-safe for the file-backed tier.
func cacheKey(adapter, symbol, date string) string {
	sum := md5.Sum([]byte(adapter + ":" + symbol + ":" + date))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached quote for (adapter, symbol) if present and younger
// than ttl. A miss in memory falls through to the file-backed tier before
// reporting a cache miss.
func (c *Cache) Get(adapter, symbol string, ttl time.Duration) (Quote, bool) {
	k := cacheKey(adapter, symbol, "current")

	c.mu.RLock()
	entry, ok := c.entries[k]
	c.mu.RUnlock()

	if ok {
		if time.Since(entry.StoredAt) <= ttl {
			return entry.Price, true
		}
		return Quote{}, false
	}

	if c.fileDir == "" {
		return Quote{}, false
	}

	entry, ok = c.readFile(k)
	if !ok || time.Since(entry.StoredAt) > ttl {
		return Quote{}, false
	}

	c.mu.Lock()
	c.entries[k] = entry
	c.mu.Unlock()
	return entry.Price, true
}

// Set stores q under (adapter, symbol), promoting it to the file-backed
// tier when one is configured.
func (c *Cache) Set(adapter, symbol string, q Quote) {
	k := cacheKey(adapter, symbol, "current")
	entry := cacheEntry{Price: q, StoredAt: time.Now()}

	c.mu.Lock()
	c.entries[k] = entry
	c.mu.Unlock()

	if c.fileDir != "" {
		c.writeFile(k, entry)
	}
}

// Clear drops every in-memory entry. File-backed entries age out on their
// own via TTL and are left alone; a full wipe is not worth the I/O.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Stats reports the number of entries currently resident in memory.
func (c *Cache) Stats() (entryCount int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) filePath(key string) string {
	return filepath.Join(c.fileDir, key+".mpk")
}

func (c *Cache) readFile(key string) (cacheEntry, bool) {
	data, err := os.ReadFile(c.filePath(key))
	if err != nil {
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("corrupt cache file, ignoring")
		return cacheEntry{}, false
	}
	return entry, true
}

func (c *Cache) writeFile(key string, entry cacheEntry) {
	data, err := msgpack.Marshal(entry)
	if err != nil {
		c.log.Warn().Err(err).Msg("failed to marshal cache entry")
		return
	}
	if err := os.WriteFile(c.filePath(key), data, 0o644); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("failed to write cache file")
	}
}

// PruneExpired removes on-disk cache files older than ttl, run periodically
// by the maintenance scheduler so the file-backed tier does not grow
// unbounded. Mirrors the teacher's clientdata cleanup job, generalized to
// an arbitrary TTL rather than a fixed retention window.
func (c *Cache) PruneExpired(ttl time.Duration) (removed int, err error) {
	if c.fileDir == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(c.fileDir)
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}
	cutoff := time.Now().Add(-ttl)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(c.fileDir, e.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

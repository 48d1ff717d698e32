package marketdata

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetThenGetWithinTTL(t *testing.T) {
	c := NewCache("", zerolog.Nop())
	q := Quote{Symbol: "BTC", Price: 65000, Adapter: "binance", Timestamp: time.Now()}

	c.Set("binance", "BTC", q)
	got, ok := c.Get("binance", "BTC", time.Minute)
	require.True(t, ok)
	assert.Equal(t, q.Price, got.Price)
}

func TestCache_GetPastTTLIsMiss(t *testing.T) {
	c := NewCache("", zerolog.Nop())
	c.Set("binance", "BTC", Quote{Price: 65000})

	_, ok := c.Get("binance", "BTC", -time.Second)
	assert.False(t, ok)
}

func TestCache_GetUnknownKeyIsMiss(t *testing.T) {
	c := NewCache("", zerolog.Nop())
	_, ok := c.Get("binance", "ETH", time.Minute)
	assert.False(t, ok)
}

func TestCache_Clear(t *testing.T) {
	c := NewCache("", zerolog.Nop())
	c.Set("binance", "BTC", Quote{Price: 65000})
	assert.Equal(t, 1, c.Stats())
	c.Clear()
	assert.Equal(t, 0, c.Stats())
	_, ok := c.Get("binance", "BTC", time.Minute)
	assert.False(t, ok)
}

func TestCache_FileBackedTierSurvivesFreshInstance(t *testing.T) {
	dir := t.TempDir()
	c1 := NewCache(dir, zerolog.Nop())
	c1.Set("coingecko", "ETH", Quote{Symbol: "ETH", Price: 3500})

	c2 := NewCache(dir, zerolog.Nop())
	got, ok := c2.Get("coingecko", "ETH", time.Minute)
	require.True(t, ok, "a fresh Cache instance should promote from the file-backed tier")
	assert.Equal(t, 3500.0, got.Price)
}

func TestCache_PruneExpiredRemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(dir, zerolog.Nop())
	c.Set("binance", "BTC", Quote{Price: 1})

	removed, err := c.PruneExpired(0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := filepath.Glob(filepath.Join(dir, "*.mpk"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCache_PruneExpiredNoopWhenMemoryOnly(t *testing.T) {
	c := NewCache("", zerolog.Nop())
	removed, err := c.PruneExpired(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

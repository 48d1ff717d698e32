package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_CurrentPrice_NoAdapterSupportsSymbolIsValidationError(t *testing.T) {
	router := newTestRouter(&fakeAdapter{name: "binance", symbols: map[string]bool{"BTC": true}})
	_, err := router.CurrentPrice(context.Background(), "AAPL")
	assert.Error(t, err)
}

func TestRouter_CurrentPrice_FallsThroughToSecondAdapterOnFailure(t *testing.T) {
	first := &fakeAdapter{name: "flaky", err: assertErr{}}
	second := &fakeAdapter{name: "reliable", price: 42}
	router := newTestRouter(first, second)

	q, err := router.CurrentPrice(context.Background(), "BTC")
	require.NoError(t, err)
	assert.Equal(t, 42.0, q.Price)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestRouter_CurrentPrice_AllAdaptersFailIsUpstreamUnavailable(t *testing.T) {
	router := newTestRouter(&fakeAdapter{name: "a", err: assertErr{}}, &fakeAdapter{name: "b", err: assertErr{}})
	_, err := router.CurrentPrice(context.Background(), "BTC")
	assert.Error(t, err)
}

func TestRouter_CurrentPrice_CachesSuccessfulFetch(t *testing.T) {
	adapter := &fakeAdapter{name: "binance", price: 100}
	router := newTestRouter(adapter)

	_, err := router.CurrentPrice(context.Background(), "BTC")
	require.NoError(t, err)
	_, err = router.CurrentPrice(context.Background(), "BTC")
	require.NoError(t, err)

	assert.Equal(t, 1, adapter.calls, "second call within TTL should be served from cache, not the adapter")
}

func TestRouter_HistoricalPrices_ServesFromStoreWhenCoverageSufficient(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 4) // 5 days

	var preloaded []PricePoint
	for i := 0; i < 5; i++ {
		preloaded = append(preloaded, PricePoint{Symbol: "BTC", Date: start.AddDate(0, 0, i), Close: 1, Adapter: "binance"})
	}
	require.NoError(t, store.UpsertPrices(preloaded))

	adapter := &fakeAdapter{name: "binance"}
	router := NewRouterWithStore(store, adapter)

	points, err := router.HistoricalPrices(context.Background(), "BTC", start, end)
	require.NoError(t, err)
	assert.Len(t, points, 5)
	assert.Equal(t, 0, adapter.calls, "full store coverage should avoid calling the adapter")
}

func TestRouter_HistoricalPrices_FetchesAndPersistsWhenCoverageInsufficient(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 9)

	adapter := &fakeAdapter{name: "binance", history: []PricePoint{
		{Symbol: "BTC", Date: start, Close: 1, Adapter: "binance"},
		{Symbol: "BTC", Date: start.AddDate(0, 0, 1), Close: 2, Adapter: "binance"},
	}}
	router := NewRouterWithStore(store, adapter)

	points, err := router.HistoricalPrices(context.Background(), "BTC", start, end)
	require.NoError(t, err)
	assert.Len(t, points, 2)
	assert.Equal(t, 1, adapter.calls)

	stored, err := store.PriceRange("BTC", start, end)
	require.NoError(t, err)
	assert.Len(t, stored, 2, "fetched bars should be persisted back to the store")
}

func TestRouter_HistoricalPrices_NoAdapterSupportIsValidationError(t *testing.T) {
	router := newTestRouter(&fakeAdapter{name: "binance", symbols: map[string]bool{"BTC": true}})
	_, err := router.HistoricalPrices(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	assert.Error(t, err)
}

// NewRouterWithStore is a test-only convenience building a Router wired to
// store, mirroring the construction path NewRouter takes in production.
func NewRouterWithStore(store *Store, adapters ...Adapter) *Router {
	return NewRouter(NewCache("", zerolog.Nop()), store, adapters, zerolog.Nop())
}

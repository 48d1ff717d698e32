package marketdata

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/nuniesmith/fks-portfolio-go/internal/apperr"
)

// quoteTTL is how long a cached current-price quote is considered fresh
// before the Router refetches from an adapter.
const quoteTTL = 300 * time.Second

// coverageThreshold is the minimum fraction of a requested date range that
// must already be present in the Store before the Router serves the
// request from storage instead of refetching from an adapter. Mirrors
// DataManager.fetch_historical_prices' 80% heuristic.
const coverageThreshold = 0.8

// Router mediates every price request through the cache, then the
// durable store, then the registered adapters in preference order,
// writing results back to both tiers as they're fetched.
type Router struct {
	cache      *Cache
	store      *Store
	adapters   []Adapter
	limiters   *adapterLimiters
	log        zerolog.Logger
}

// NewRouter builds a Router over cache and store, with adapters tried in
// the given order for symbols they support.
func NewRouter(cache *Cache, store *Store, adapters []Adapter, log zerolog.Logger) *Router {
	limiters := newAdapterLimiters()
	for _, a := range adapters {
		// Conservative shared default; concrete per-adapter budgets are
		// registered explicitly where an adapter's documented limit is
		// known to be tighter (see RegisterRateLimit).
		limiters.register(a.Name(), 2, 5)
	}
	return &Router{
		cache:    cache,
		store:    store,
		adapters: adapters,
		limiters: limiters,
		log:      log.With().Str("component", "router").Logger(),
	}
}

// RegisterRateLimit overrides the token bucket for a specific adapter,
// e.g. to match CoinGecko's free-tier documented budget.
func (r *Router) RegisterRateLimit(adapter string, requestsPerSecond float64, burst int) {
	r.limiters.register(adapter, requestsPerSecond, burst)
}

// cryptoAdapterTieBreak is the well-known preference order applied to
// crypto symbols when the caller (or the asset's own configuration)
// expresses no explicit adapter preference: exchange quotes first, then
// aggregator quotes.
var cryptoAdapterTieBreak = []string{"binance", "coingecko", "coinmarketcap"}

// selectAdapters returns the registered adapters that support symbol,
// ordered by preference: adapters named in prefer come first (in prefer's
// order), then - for a known crypto symbol with no explicit preference -
// the binance/coingecko/coinmarketcap tie-break, then any remaining
// eligible adapters in registration order.
func (r *Router) selectAdapters(symbol string, prefer []string) []Adapter {
	var eligible []Adapter
	for _, a := range r.adapters {
		if a.SupportsSymbol(symbol) {
			eligible = append(eligible, a)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	order := prefer
	if len(order) == 0 && IsCrypto(symbol) {
		order = cryptoAdapterTieBreak
	}
	if len(order) == 0 {
		return eligible
	}
	return orderByName(eligible, order)
}

// orderByName reorders candidates by their position in order, appending any
// candidate not named in order at the end in its original relative order.
func orderByName(candidates []Adapter, order []string) []Adapter {
	rank := make(map[string]int, len(order))
	for i, name := range order {
		rank[name] = i
	}
	out := make([]Adapter, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		ri, oki := rank[out[i].Name()]
		rj, okj := rank[out[j].Name()]
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		return ri < rj
	})
	return out
}

// CurrentPrice returns the latest price for symbol, trying the cache, then
// each eligible adapter in order, caching on success. It never consults
// the store directly since intraday freshness matters more than a stale
// daily bar.
func (r *Router) CurrentPrice(ctx context.Context, symbol string) (Quote, error) {
	return r.currentPrice(ctx, symbol, nil)
}

// CurrentPriceWithPreference behaves like CurrentPrice but tries adapters
// named in prefer (an asset's configured adapter preference) ahead of the
// platform's default ordering.
func (r *Router) CurrentPriceWithPreference(ctx context.Context, symbol string, prefer []string) (Quote, error) {
	return r.currentPrice(ctx, symbol, prefer)
}

func (r *Router) currentPrice(ctx context.Context, symbol string, prefer []string) (Quote, error) {
	candidates := r.selectAdapters(symbol, prefer)
	if len(candidates) == 0 {
		return Quote{}, apperr.Validation("no adapter supports symbol %s", symbol)
	}

	for _, a := range candidates {
		if q, ok := r.cache.Get(a.Name(), symbol, quoteTTL); ok {
			return q, nil
		}
	}

	var lastErr error
	for _, a := range candidates {
		if err := r.limiters.wait(ctx, a.Name()); err != nil {
			lastErr = err
			continue
		}
		q, err := a.CurrentPrice(ctx, symbol)
		if err != nil {
			r.log.Warn().Err(err).Str("adapter", a.Name()).Str("symbol", symbol).Msg("adapter quote failed, trying next")
			lastErr = err
			continue
		}
		r.cache.Set(a.Name(), symbol, q)
		return q, nil
	}

	return Quote{}, apperr.UpstreamUnavailable("all adapters failed for "+symbol, lastErr)
}

// HistoricalPrices returns daily bars for symbol in [start, end]. When the
// store already covers at least coverageThreshold of the range it is
// served directly from storage; otherwise the first eligible adapter that
// succeeds is used, and its bars are persisted to the store for next time.
func (r *Router) HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]PricePoint, error) {
	return r.historicalPrices(ctx, symbol, start, end, nil)
}

// HistoricalPricesWithPreference behaves like HistoricalPrices but tries
// adapters named in prefer ahead of the platform's default ordering.
func (r *Router) HistoricalPricesWithPreference(ctx context.Context, symbol string, start, end time.Time, prefer []string) ([]PricePoint, error) {
	return r.historicalPrices(ctx, symbol, start, end, prefer)
}

func (r *Router) historicalPrices(ctx context.Context, symbol string, start, end time.Time, prefer []string) ([]PricePoint, error) {
	candidates := r.selectAdapters(symbol, prefer)
	if len(candidates) == 0 {
		return nil, apperr.Validation("no adapter supports symbol %s", symbol)
	}

	if r.store != nil {
		ratio, err := r.store.CoverageRatio(symbol, start, end)
		if err == nil && ratio >= coverageThreshold {
			points, err := r.store.PriceRange(symbol, start, end)
			if err == nil && len(points) > 0 {
				return points, nil
			}
		}
	}

	var lastErr error
	for _, a := range candidates {
		if err := r.limiters.wait(ctx, a.Name()); err != nil {
			lastErr = err
			continue
		}
		points, err := a.HistoricalPrices(ctx, symbol, start, end)
		if err != nil {
			r.log.Warn().Err(err).Str("adapter", a.Name()).Str("symbol", symbol).Msg("adapter history failed, trying next")
			lastErr = err
			continue
		}
		if len(points) == 0 {
			lastErr = apperr.DataInsufficient("adapter %s returned no bars for %s", a.Name(), symbol)
			continue
		}
		if r.store != nil {
			if err := r.store.UpsertPrices(points); err != nil {
				// Persistence is best-effort: a Router that can't write
				// to the store still has to answer the caller.
				r.log.Warn().Err(err).Msg("failed to persist fetched bars")
			}
		}
		return points, nil
	}

	return nil, apperr.UpstreamUnavailable("all adapters failed for "+symbol, lastErr)
}

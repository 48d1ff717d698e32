package marketdata

import (
	"context"
	"time"
)

// Adapter is implemented by every market data provider integration
// (exchange or data vendor). Adapters never panic on a failed upstream
// call; they return an error (transport and decode failures wrapped as
// apperr.UpstreamUnavailable) so the router can fall through to the next
// adapter in preference order.
type Adapter interface {
	// Name identifies the adapter for cache keys, storage provenance, and
	// logging (e.g. "binance", "coingecko").
	Name() string

	// CurrentPrice fetches the latest traded/quoted price for symbol.
	CurrentPrice(ctx context.Context, symbol string) (Quote, error)

	// HistoricalPrices fetches daily OHLCV bars for symbol within
	// [start, end], inclusive, sorted ascending by date.
	HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]PricePoint, error)

	// SupportsSymbol reports whether this adapter is expected to serve
	// symbol at all, used to short-circuit adapter selection.
	SupportsSymbol(symbol string) bool
}

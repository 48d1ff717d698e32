package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/nuniesmith/fks-portfolio-go/internal/apperr"
	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata"
)

// CoinMarketCap sources current crypto quotes from CoinMarketCap's Pro API.
// It does not offer a free historical endpoint, so HistoricalPrices always
// fails with UpstreamUnavailable and the router falls through to an
// adapter that can serve history.
type CoinMarketCap struct {
	baseURL string
	apiKey  string
}

// NewCoinMarketCap builds a CoinMarketCap adapter. apiKey is required; the
// adapter is simply not registered when no key is configured.
func NewCoinMarketCap(apiKey string) *CoinMarketCap {
	return &CoinMarketCap{baseURL: "https://pro-api.coinmarketcap.com", apiKey: apiKey}
}

func (c *CoinMarketCap) Name() string { return "coinmarketcap" }

func (c *CoinMarketCap) SupportsSymbol(symbol string) bool {
	return marketdata.IsCrypto(symbol)
}

func (c *CoinMarketCap) CurrentPrice(ctx context.Context, symbol string) (marketdata.Quote, error) {
	var resp struct {
		Data map[string]struct {
			Quote struct {
				USD struct {
					Price float64 `json:"price"`
				} `json:"USD"`
			} `json:"quote"`
		} `json:"data"`
	}

	url := fmt.Sprintf("%s/v1/cryptocurrency/quotes/latest?symbol=%s", c.baseURL, symbol)
	headers := map[string]string{"X-CMC_PRO_API_KEY": c.apiKey}
	if err := getJSON(ctx, url, headers, &resp); err != nil {
		return marketdata.Quote{}, err
	}

	entry, ok := resp.Data[symbol]
	if !ok {
		return marketdata.Quote{}, fmt.Errorf("coinmarketcap: no quote for %s", symbol)
	}
	return marketdata.Quote{
		Symbol: symbol, Price: entry.Quote.USD.Price, Adapter: c.Name(), Timestamp: time.Now(),
	}, nil
}

func (c *CoinMarketCap) HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PricePoint, error) {
	return nil, apperr.UpstreamUnavailable("coinmarketcap: historical OHLCV requires an enterprise plan", nil)
}

package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata"
)

// coingeckoIDs maps the platform's ticker symbols to CoinGecko's coin IDs,
// which rarely match the ticker (e.g. "MATIC" -> "matic-network").
var coingeckoIDs = map[string]string{
	"BTC": "bitcoin", "ETH": "ethereum", "SOL": "solana", "BNB": "binancecoin",
	"ADA": "cardano", "AVAX": "avalanche-2", "MATIC": "matic-network",
	"DOT": "polkadot", "LINK": "chainlink", "UNI": "uniswap",
	"XRP": "ripple", "DOGE": "dogecoin",
}

// CoinGecko sources crypto prices from CoinGecko's public API. apiKey may be
// empty, in which case requests go through the free, unauthenticated tier.
type CoinGecko struct {
	baseURL string
	apiKey  string
}

// NewCoinGecko builds a CoinGecko adapter. An empty apiKey runs against the
// free tier's rate limits.
func NewCoinGecko(apiKey string) *CoinGecko {
	return &CoinGecko{baseURL: "https://api.coingecko.com/api/v3", apiKey: apiKey}
}

func (c *CoinGecko) Name() string { return "coingecko" }

func (c *CoinGecko) SupportsSymbol(symbol string) bool {
	_, ok := coingeckoIDs[symbol]
	return ok
}

func (c *CoinGecko) headers() map[string]string {
	if c.apiKey == "" {
		return nil
	}
	return map[string]string{"x-cg-demo-api-key": c.apiKey}
}

func (c *CoinGecko) CurrentPrice(ctx context.Context, symbol string) (marketdata.Quote, error) {
	id, ok := coingeckoIDs[symbol]
	if !ok {
		return marketdata.Quote{}, fmt.Errorf("coingecko: unsupported symbol %s", symbol)
	}

	var resp map[string]map[string]float64
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, id)
	if err := getJSON(ctx, url, c.headers(), &resp); err != nil {
		return marketdata.Quote{}, err
	}

	price, ok := resp[id]["usd"]
	if !ok {
		return marketdata.Quote{}, fmt.Errorf("coingecko: no usd price for %s", symbol)
	}
	return marketdata.Quote{Symbol: symbol, Price: price, Adapter: c.Name(), Timestamp: time.Now()}, nil
}

func (c *CoinGecko) HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PricePoint, error) {
	id, ok := coingeckoIDs[symbol]
	if !ok {
		return nil, fmt.Errorf("coingecko: unsupported symbol %s", symbol)
	}

	var resp struct {
		Prices [][2]float64 `json:"prices"`
	}
	url := fmt.Sprintf("%s/coins/%s/market_chart/range?vs_currency=usd&from=%d&to=%d",
		c.baseURL, id, start.Unix(), end.Unix())
	if err := getJSON(ctx, url, c.headers(), &resp); err != nil {
		return nil, err
	}

	// CoinGecko's range endpoint returns one point roughly per hour for
	// short ranges; collapse to one OHLC bar per UTC day (open is the day's
	// first observation, high/low its extremes, close its last), since the
	// platform's store is daily-granularity.
	byDay := make(map[string]marketdata.PricePoint)
	var order []string
	for _, p := range resp.Prices {
		ts := time.UnixMilli(int64(p[0])).UTC()
		day := ts.Format("2006-01-02")
		price := p[1]
		if _, seen := byDay[day]; !seen {
			order = append(order, day)
		}
		pt := byDay[day]
		if pt.Open == 0 {
			pt.Open, pt.High, pt.Low = price, price, price
		}
		if price > pt.High {
			pt.High = price
		}
		if price < pt.Low || pt.Low == 0 {
			pt.Low = price
		}
		pt.Close = price
		pt.Symbol = symbol
		pt.Adapter = c.Name()
		pt.Date = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		byDay[day] = pt
	}

	points := make([]marketdata.PricePoint, 0, len(order))
	for _, day := range order {
		points = append(points, byDay[day])
	}
	return points, nil
}

// marshalSymbols is a small helper adapters with batch quote endpoints can
// reuse to build comma-separated ID lists.
func marshalSymbols(symbols []string) string {
	return strings.Join(symbols, ",")
}

package adapters

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata"
)

// AlphaVantage sources equity and ETF prices from Alpha Vantage's free
// TIME_SERIES_DAILY and GLOBAL_QUOTE endpoints.
type AlphaVantage struct {
	baseURL string
	apiKey  string
}

// NewAlphaVantage builds an AlphaVantage adapter. apiKey is required by the
// upstream API; the adapter is simply not registered when no key is set.
func NewAlphaVantage(apiKey string) *AlphaVantage {
	return &AlphaVantage{baseURL: "https://www.alphavantage.co", apiKey: apiKey}
}

func (a *AlphaVantage) Name() string { return "alphavantage" }

func (a *AlphaVantage) SupportsSymbol(symbol string) bool {
	return !marketdata.IsCrypto(symbol)
}

func (a *AlphaVantage) CurrentPrice(ctx context.Context, symbol string) (marketdata.Quote, error) {
	var resp struct {
		GlobalQuote struct {
			Price string `json:"05. price"`
		} `json:"Global Quote"`
	}
	url := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s", a.baseURL, symbol, a.apiKey)
	if err := getJSON(ctx, url, nil, &resp); err != nil {
		return marketdata.Quote{}, err
	}

	price, err := strconv.ParseFloat(resp.GlobalQuote.Price, 64)
	if err != nil {
		return marketdata.Quote{}, fmt.Errorf("alphavantage: parse price for %s: %w", symbol, err)
	}
	return marketdata.Quote{Symbol: symbol, Price: price, Adapter: a.Name(), Timestamp: time.Now()}, nil
}

func (a *AlphaVantage) HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PricePoint, error) {
	type bar struct {
		Open   string `json:"1. open"`
		High   string `json:"2. high"`
		Low    string `json:"3. low"`
		Close  string `json:"4. close"`
		Volume string `json:"5. volume"`
	}
	var resp struct {
		Series map[string]bar `json:"Time Series (Daily)"`
	}

	outputSize := "compact" // last 100 bars
	if end.Sub(start).Hours()/24 > 90 {
		outputSize = "full"
	}
	url := fmt.Sprintf("%s/query?function=TIME_SERIES_DAILY&symbol=%s&outputsize=%s&apikey=%s",
		a.baseURL, symbol, outputSize, a.apiKey)
	if err := getJSON(ctx, url, nil, &resp); err != nil {
		return nil, err
	}

	var points []marketdata.PricePoint
	for dateStr, b := range resp.Series {
		d, err := time.Parse("2006-01-02", dateStr)
		if err != nil || d.Before(start) || d.After(end) {
			continue
		}
		open, _ := strconv.ParseFloat(b.Open, 64)
		high, _ := strconv.ParseFloat(b.High, 64)
		low, _ := strconv.ParseFloat(b.Low, 64)
		closeP, _ := strconv.ParseFloat(b.Close, 64)
		volume, _ := strconv.ParseFloat(b.Volume, 64)
		points = append(points, marketdata.PricePoint{
			Symbol: symbol, Date: d, Open: open, High: high, Low: low, Close: closeP,
			Volume: volume, Adapter: a.Name(),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata"
)

// Polygon sources equity/ETF prices from Polygon.io's aggregates API.
type Polygon struct {
	baseURL string
	apiKey  string
}

// NewPolygon builds a Polygon adapter. apiKey is required; the adapter is
// simply not registered when no key is configured.
func NewPolygon(apiKey string) *Polygon {
	return &Polygon{baseURL: "https://api.polygon.io", apiKey: apiKey}
}

func (p *Polygon) Name() string { return "polygon" }

func (p *Polygon) SupportsSymbol(symbol string) bool {
	return !marketdata.IsCrypto(symbol)
}

func (p *Polygon) CurrentPrice(ctx context.Context, symbol string) (marketdata.Quote, error) {
	var resp struct {
		Results []struct {
			ClosePrice float64 `json:"c"`
		} `json:"results"`
	}
	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?adjusted=true&apiKey=%s", p.baseURL, symbol, p.apiKey)
	if err := getJSON(ctx, url, nil, &resp); err != nil {
		return marketdata.Quote{}, err
	}
	if len(resp.Results) == 0 {
		return marketdata.Quote{}, fmt.Errorf("polygon: no previous close for %s", symbol)
	}
	return marketdata.Quote{
		Symbol: symbol, Price: resp.Results[0].ClosePrice, Adapter: p.Name(), Timestamp: time.Now(),
	}, nil
}

func (p *Polygon) HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PricePoint, error) {
	var resp struct {
		Results []struct {
			Open   float64 `json:"o"`
			High   float64 `json:"h"`
			Low    float64 `json:"l"`
			Close  float64 `json:"c"`
			Volume float64 `json:"v"`
			TimeMs int64   `json:"t"`
		} `json:"results"`
	}

	url := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&limit=50000&apiKey=%s",
		p.baseURL, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"), p.apiKey)
	if err := getJSON(ctx, url, nil, &resp); err != nil {
		return nil, err
	}

	points := make([]marketdata.PricePoint, 0, len(resp.Results))
	for _, r := range resp.Results {
		points = append(points, marketdata.PricePoint{
			Symbol: symbol, Date: time.UnixMilli(r.TimeMs).UTC(),
			Open: r.Open, High: r.High, Low: r.Low, Close: r.Close, Volume: r.Volume,
			Adapter: p.Name(),
		})
	}
	return points, nil
}

package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata"
)

// YahooFinance sources equity/ETF/index prices from Yahoo Finance's
// unauthenticated chart endpoint. No API key is required or supported.
type YahooFinance struct {
	baseURL string
}

// NewYahooFinance builds a YahooFinance adapter against the public chart API.
func NewYahooFinance() *YahooFinance {
	return &YahooFinance{baseURL: "https://query1.finance.yahoo.com"}
}

func (y *YahooFinance) Name() string { return "yahoofinance" }

func (y *YahooFinance) SupportsSymbol(symbol string) bool {
	return !marketdata.IsCrypto(symbol)
}

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

func (y *YahooFinance) fetchChart(ctx context.Context, symbol string, period1, period2 int64) (yahooChartResponse, error) {
	var resp yahooChartResponse
	url := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		y.baseURL, symbol, period1, period2)
	headers := map[string]string{"User-Agent": "Mozilla/5.0"}
	if err := getJSON(ctx, url, headers, &resp); err != nil {
		return resp, err
	}
	if len(resp.Chart.Result) == 0 {
		return resp, fmt.Errorf("yahoofinance: no chart data for %s", symbol)
	}
	return resp, nil
}

func (y *YahooFinance) CurrentPrice(ctx context.Context, symbol string) (marketdata.Quote, error) {
	now := time.Now()
	resp, err := y.fetchChart(ctx, symbol, now.AddDate(0, 0, -5).Unix(), now.Unix())
	if err != nil {
		return marketdata.Quote{}, err
	}

	result := resp.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	if len(closes) == 0 {
		return marketdata.Quote{}, fmt.Errorf("yahoofinance: empty close series for %s", symbol)
	}
	return marketdata.Quote{
		Symbol: symbol, Price: closes[len(closes)-1], Adapter: y.Name(), Timestamp: time.Now(),
	}, nil
}

func (y *YahooFinance) HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PricePoint, error) {
	resp, err := y.fetchChart(ctx, symbol, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}

	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoofinance: no quote series for %s", symbol)
	}
	q := result.Indicators.Quote[0]

	points := make([]marketdata.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) {
			break
		}
		points = append(points, marketdata.PricePoint{
			Symbol:  symbol,
			Date:    time.Unix(ts, 0).UTC(),
			Open:    valueAt(q.Open, i),
			High:    valueAt(q.High, i),
			Low:     valueAt(q.Low, i),
			Close:   valueAt(q.Close, i),
			Volume:  valueAt(q.Volume, i),
			Adapter: y.Name(),
		})
	}
	return points, nil
}

func valueAt(s []float64, i int) float64 {
	if i < 0 || i >= len(s) {
		return 0
	}
	return s[i]
}

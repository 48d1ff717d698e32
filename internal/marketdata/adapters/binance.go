package adapters

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata"
)

// Binance sources both spot quotes and daily klines from Binance's public
// REST API. No API key is required for either endpoint used here.
type Binance struct {
	baseURL string
}

// NewBinance builds a Binance adapter against the production API.
func NewBinance() *Binance {
	return &Binance{baseURL: "https://api.binance.com"}
}

func (b *Binance) Name() string { return "binance" }

func (b *Binance) SupportsSymbol(symbol string) bool {
	return marketdata.IsCrypto(symbol)
}

func (b *Binance) pair(symbol string) string {
	return symbol + "USDT"
}

func (b *Binance) CurrentPrice(ctx context.Context, symbol string) (marketdata.Quote, error) {
	var resp struct {
		Price string `json:"price"`
	}
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", b.baseURL, b.pair(symbol))
	if err := getJSON(ctx, url, nil, &resp); err != nil {
		return marketdata.Quote{}, err
	}
	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return marketdata.Quote{}, fmt.Errorf("parse binance price %q: %w", resp.Price, err)
	}
	return marketdata.Quote{Symbol: symbol, Price: price, Adapter: b.Name(), Timestamp: time.Now()}, nil
}

// klineRow is Binance's fixed-order array response for each kline bar.
type klineRow [12]interface{}

func (b *Binance) HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PricePoint, error) {
	var rows []klineRow
	url := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=1d&startTime=%d&endTime=%d&limit=1000",
		b.baseURL, b.pair(symbol), start.UnixMilli(), end.UnixMilli())
	if err := getJSON(ctx, url, nil, &rows); err != nil {
		return nil, err
	}

	points := make([]marketdata.PricePoint, 0, len(rows))
	for _, r := range rows {
		openTimeMs, ok := r[0].(float64)
		if !ok {
			continue
		}
		open, _ := strconv.ParseFloat(r[1].(string), 64)
		high, _ := strconv.ParseFloat(r[2].(string), 64)
		low, _ := strconv.ParseFloat(r[3].(string), 64)
		closeP, _ := strconv.ParseFloat(r[4].(string), 64)
		volume, _ := strconv.ParseFloat(r[5].(string), 64)

		points = append(points, marketdata.PricePoint{
			Symbol:  symbol,
			Date:    time.UnixMilli(int64(openTimeMs)).UTC(),
			Open:    open,
			High:    high,
			Low:     low,
			Close:   closeP,
			Volume:  volume,
			Adapter: b.Name(),
		})
	}
	return points, nil
}

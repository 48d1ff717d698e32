// Package marketdata implements the market data plane: adapters, the
// rate-limited cache/store-backed router, BTC-denomination conversion, and
// the background collector that keeps the time-series store warm.
package marketdata

import "time"

// PricePoint is a single daily OHLCV observation for a symbol, as sourced
// from one adapter.
type PricePoint struct {
	Symbol  string    `json:"symbol"`
	Date    time.Time `json:"date"` // normalized to UTC midnight, tz-naive semantics
	Open    float64   `json:"open"`
	High    float64   `json:"high"`
	Low     float64   `json:"low"`
	Close   float64   `json:"close"`
	Volume  float64   `json:"volume"`
	Adapter string    `json:"adapter"`
}

// Quote is a single current-price observation.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Adapter   string    `json:"adapter"`
	Timestamp time.Time `json:"timestamp"`
}

// cryptoSymbols lists symbols routed preferentially to crypto adapters.
// Mirrors the fixed asset universe used by the original portfolio manager.
var cryptoSymbols = map[string]bool{
	"BTC": true, "ETH": true, "SOL": true, "BNB": true, "ADA": true,
	"AVAX": true, "MATIC": true, "DOT": true, "LINK": true, "UNI": true,
	"XRP": true, "DOGE": true,
}

// IsCrypto reports whether symbol is in the known crypto universe.
func IsCrypto(symbol string) bool {
	return cryptoSymbols[symbol]
}

// normalizeDate strips time-of-day and location to give every date a
// consistent, tz-naive UTC-midnight representation, matching the original
// implementation's tz_localize(None) normalization before alignment.
func normalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

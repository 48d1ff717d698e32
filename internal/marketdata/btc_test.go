package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter is a minimal Adapter implementation for router/converter tests.
type fakeAdapter struct {
	name    string
	symbols map[string]bool
	price   float64
	prices  map[string]float64
	err     error
	history []PricePoint
	calls   int
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) CurrentPrice(ctx context.Context, symbol string) (Quote, error) {
	f.calls++
	if f.err != nil {
		return Quote{}, f.err
	}
	price := f.price
	if f.prices != nil {
		if p, ok := f.prices[symbol]; ok {
			price = p
		}
	}
	return Quote{Symbol: symbol, Price: price, Adapter: f.name, Timestamp: time.Now()}, nil
}

func (f *fakeAdapter) HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]PricePoint, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

func (f *fakeAdapter) SupportsSymbol(symbol string) bool {
	if f.symbols == nil {
		return true
	}
	return f.symbols[symbol]
}

func newTestRouter(adapters ...Adapter) *Router {
	return NewRouter(NewCache("", zerolog.Nop()), nil, adapters, zerolog.Nop())
}

func TestBTCConverter_ToBTC_NonBTCAsset(t *testing.T) {
	router := newTestRouter(&fakeAdapter{name: "binance", prices: map[string]float64{"BTC": 50000, "AAPL": 200}})
	conv := NewBTCConverter(router)

	// 100 shares of AAPL at $200 = $20000, at BTC=$50000 -> 0.4 BTC.
	btc, err := conv.ToBTC(context.Background(), "AAPL", 100)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, btc, 1e-9)
}

func TestBTCConverter_ToBTC_BTCPassesThroughUnchanged(t *testing.T) {
	router := newTestRouter(&fakeAdapter{name: "binance", price: 50000})
	conv := NewBTCConverter(router)

	btc, err := conv.ToBTC(context.Background(), "BTC", 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, btc)
}

func TestBTCConverter_RoundTripToBTCFromBTC(t *testing.T) {
	router := newTestRouter(&fakeAdapter{name: "binance", prices: map[string]float64{"BTC": 62345.67, "ETH": 3000}})
	conv := NewBTCConverter(router)

	const qty = 5.0
	btc, err := conv.ToBTC(context.Background(), "ETH", qty)
	require.NoError(t, err)

	back, err := conv.FromBTC(context.Background(), btc, "ETH")
	require.NoError(t, err)
	assert.InDelta(t, qty, back, 1e-6)
}

func TestBTCConverter_FromBTC_BTCPassesThroughUnchanged(t *testing.T) {
	router := newTestRouter(&fakeAdapter{name: "binance", price: 50000})
	conv := NewBTCConverter(router)

	back, err := conv.FromBTC(context.Background(), 0.5, "BTC")
	require.NoError(t, err)
	assert.Equal(t, 0.5, back)
}

func TestBTCConverter_ConvertPortfolio_SumsToTotal(t *testing.T) {
	router := newTestRouter(&fakeAdapter{name: "binance", prices: map[string]float64{"BTC": 50000, "AAPL": 200, "ETH": 3000}})
	conv := NewBTCConverter(router)

	holdings := []Holding{
		{Symbol: "AAPL", Quantity: 50},
		{Symbol: "BTC", Quantity: 1},
		{Symbol: "ETH", Quantity: 2},
	}
	byAsset, total, err := conv.ConvertPortfolio(context.Background(), holdings)
	require.NoError(t, err)

	var sum float64
	for _, v := range byAsset {
		sum += v
	}
	assert.InDelta(t, total, sum, 1e-9)
}

func TestBTCConverter_BTCAllocation_DividesBTCHoldingByTotal(t *testing.T) {
	router := newTestRouter(&fakeAdapter{name: "binance", prices: map[string]float64{"BTC": 50000, "AAPL": 200}})
	conv := NewBTCConverter(router)

	holdings := []Holding{
		{Symbol: "BTC", Quantity: 1},   // 1 BTC
		{Symbol: "AAPL", Quantity: 250}, // $50000 -> 1 BTC
	}
	alloc, err := conv.BTCAllocation(context.Background(), holdings)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, alloc, 1e-9)
}

func TestBTCConverter_BTCAllocation_ZeroTotalIsZeroNotNaN(t *testing.T) {
	router := newTestRouter(&fakeAdapter{name: "binance", prices: map[string]float64{"BTC": 50000}})
	conv := NewBTCConverter(router)

	alloc, err := conv.BTCAllocation(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, alloc)
}

func TestBTCConverter_AssetReturnsInBTC_AlignsAndDropsFirstReturn(t *testing.T) {
	day := func(n int) time.Time { return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC) }

	assetAdapter := &fakeAdapter{name: "binance", history: []PricePoint{
		{Date: day(1), Close: 100},
		{Date: day(2), Close: 110},
		{Date: day(3), Close: 121},
	}}
	router := newTestRouter(assetAdapter)
	conv := NewBTCConverter(router)

	// BTC close is constant at 50000 across all three days, so the
	// BTC-denominated series tracks the asset's own percentage change.
	assetAdapter.history = []PricePoint{
		{Date: day(1), Close: 100},
		{Date: day(2), Close: 110},
		{Date: day(3), Close: 121},
	}
	btcHistory := []PricePoint{
		{Date: day(1), Close: 50000},
		{Date: day(2), Close: 50000},
		{Date: day(3), Close: 50000},
	}
	router = NewRouter(NewCache("", zerolog.Nop()), nil, []Adapter{&multiSymbolAdapter{
		name:    "binance",
		bySym:   map[string][]PricePoint{"ETH": assetAdapter.history, "BTC": btcHistory},
	}}, zerolog.Nop())
	conv = NewBTCConverter(router)

	returns, err := conv.AssetReturnsInBTC(context.Background(), "ETH", day(1), day(3))
	require.NoError(t, err)
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, 0.10, returns[1], 1e-9)
}

// multiSymbolAdapter returns different history per symbol, needed to test
// BTC-denominated alignment against a distinct asset series.
type multiSymbolAdapter struct {
	name  string
	bySym map[string][]PricePoint
}

func (m *multiSymbolAdapter) Name() string { return m.name }

func (m *multiSymbolAdapter) CurrentPrice(ctx context.Context, symbol string) (Quote, error) {
	return Quote{Symbol: symbol, Price: 1, Adapter: m.name, Timestamp: time.Now()}, nil
}

func (m *multiSymbolAdapter) HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]PricePoint, error) {
	return m.bySym[symbol], nil
}

func (m *multiSymbolAdapter) SupportsSymbol(symbol string) bool { return true }

func TestBTCConverter_UpstreamFailurePropagates(t *testing.T) {
	router := newTestRouter(&fakeAdapter{name: "binance", err: assertErr{}})
	conv := NewBTCConverter(router)

	_, err := conv.ToBTC(context.Background(), "ETH", 100)
	assert.Error(t, err)
}

type assertErr struct{}

func (assertErr) Error() string { return "upstream down" }

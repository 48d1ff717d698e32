package signals

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata"
)

type fakePriceSource struct {
	history map[string][]float64
	price   map[string]float64
	err     error
}

func (f *fakePriceSource) HistoricalPrices(_ context.Context, symbol string, start, end time.Time) ([]marketdata.PricePoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	closes, ok := f.history[symbol]
	if !ok {
		return nil, nil
	}
	out := make([]marketdata.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = marketdata.PricePoint{Symbol: symbol, Date: start.AddDate(0, 0, i), Close: c}
	}
	return out, nil
}

func (f *fakePriceSource) CurrentPrice(_ context.Context, symbol string) (marketdata.Quote, error) {
	if f.err != nil {
		return marketdata.Quote{}, f.err
	}
	return marketdata.Quote{Symbol: symbol, Price: f.price[symbol], Timestamp: time.Now()}, nil
}

func TestEngine_Generate_InsufficientHistoryReturnsNoSignal(t *testing.T) {
	source := &fakePriceSource{
		history: map[string][]float64{"ETH": risingCloses(10)},
		price:   map[string]float64{"ETH": 110},
	}
	e := NewEngine(source, zerolog.Nop())

	signal, err := e.Generate(context.Background(), "ETH", CategorySwing, 30)
	require.NoError(t, err)
	assert.Nil(t, signal)
}

func TestEngine_Generate_BuySignalHasTPAboveEntryAboveSL(t *testing.T) {
	// Alternating +2/-1 steps trend upward while keeping RSI in the
	// mid-60s, below the overbought cutoff a strictly rising series hits.
	closes := make([]float64, 60)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + 2
		} else {
			closes[i] = closes[i-1] - 1
		}
	}
	source := &fakePriceSource{
		history: map[string][]float64{"ETH": closes},
		price:   map[string]float64{"ETH": closes[len(closes)-1]},
	}
	e := NewEngine(source, zerolog.Nop())

	signal, err := e.Generate(context.Background(), "ETH", CategorySwing, 60)
	require.NoError(t, err)
	require.NotNil(t, signal, "a strongly trending-up series should produce a BUY signal")

	assert.Equal(t, TypeBuy, signal.Type)
	assert.Greater(t, signal.TakeProfit, signal.EntryPrice)
	assert.Greater(t, signal.EntryPrice, signal.StopLoss)
	assert.InDelta(t, signal.TakeProfitPct/signal.StopLossPct, signal.RiskRewardRatio, 1e-6)
	assert.GreaterOrEqual(t, signal.PositionSizePct, 0.0)
	assert.LessOrEqual(t, signal.PositionSizePct, defaultMaxPositionSize)
}

func TestEngine_Generate_FlatMarketHolds(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	source := &fakePriceSource{
		history: map[string][]float64{"ETH": closes},
		price:   map[string]float64{"ETH": 100},
	}
	e := NewEngine(source, zerolog.Nop())

	signal, err := e.Generate(context.Background(), "ETH", CategorySwing, 60)
	require.NoError(t, err)
	assert.Nil(t, signal, "a flat series with neutral trend and no RSI/MACD edge should yield no signal")
}

func TestEngine_GenerateForPortfolio_SortsByConfidenceDescending(t *testing.T) {
	up := risingCloses(60)
	source := &fakePriceSource{
		history: map[string][]float64{
			"ETH": up,
			"SOL": up,
		},
		price: map[string]float64{
			"ETH": up[len(up)-1],
			"SOL": up[len(up)-1],
		},
	}
	e := NewEngine(source, zerolog.Nop())

	out := e.GenerateForPortfolio(context.Background(), []string{"ETH", "SOL"}, CategorySwing, 60)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Confidence, out[i].Confidence)
	}
}

func TestTradingSignal_IsValid(t *testing.T) {
	valid := TradingSignal{Type: TypeBuy, RiskRewardRatio: 1.5, PositionSizePct: 0.015, Expiry: time.Now().Add(time.Hour)}
	assert.True(t, valid.IsValid())

	expired := TradingSignal{Type: TypeBuy, RiskRewardRatio: 1.5, PositionSizePct: 0.015, Expiry: time.Now().Add(-time.Hour)}
	assert.False(t, expired.IsValid())

	zeroRR := TradingSignal{Type: TypeBuy, RiskRewardRatio: 0, PositionSizePct: 0.015}
	assert.False(t, zeroRR.IsValid())

	oversizedPosition := TradingSignal{Type: TypeBuy, RiskRewardRatio: 1.5, PositionSizePct: 0.05}
	assert.False(t, oversizedPosition.IsValid())

	undersizedPosition := TradingSignal{Type: TypeBuy, RiskRewardRatio: 1.5, PositionSizePct: 0.001}
	assert.False(t, undersizedPosition.IsValid())
}

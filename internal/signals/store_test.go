package signals

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLotSize_StandardCase(t *testing.T) {
	signal := TradingSignal{
		EntryPrice:      100,
		StopLoss:        95,
		PositionSizePct: 0.02,
	}
	qty := LotSize(signal, 10000)
	// riskBudget = 10000*0.02 = 200; perUnitRisk = 5; qty = 40
	assert.InDelta(t, 40.0, qty, 1e-9)
}

func TestLotSize_EntryEqualsStopLossFallsBackToOnePercent(t *testing.T) {
	signal := TradingSignal{
		EntryPrice:      100,
		StopLoss:        100,
		PositionSizePct: 0.02,
	}
	qty := LotSize(signal, 10000)
	// riskBudget = 200; perUnitRisk falls back to 1% of entry = 1; qty = 200
	assert.InDelta(t, 200.0, qty, 1e-9)
}

func TestLotSize_ZeroEntryPriceIsZero(t *testing.T) {
	signal := TradingSignal{EntryPrice: 0, StopLoss: 0, PositionSizePct: 0.02}
	assert.Equal(t, 0.0, LotSize(signal, 10000))
}

func TestNextTradingDay_RollsWeekendForward(t *testing.T) {
	saturday := time.Date(2024, 1, 6, 9, 30, 0, 0, time.UTC) // a Saturday
	next := NextTradingDay(saturday)
	assert.Equal(t, time.Monday, next.Weekday())
}

func TestNextTradingDay_WeekdayUnchanged(t *testing.T) {
	wednesday := time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, wednesday, NextTradingDay(wednesday))
}

func TestPlanEntry_CryptoEntersImmediately(t *testing.T) {
	saturday := time.Date(2024, 1, 6, 9, 30, 0, 0, time.UTC)
	signal := TradingSignal{Symbol: "BTC", EntryPrice: 60000, StopLoss: 59000, PositionSizePct: 0.02, Timestamp: saturday}

	plan := PlanEntry(signal, 10000, true)
	assert.Equal(t, saturday, plan.EntryDate)
}

func TestPlanEntry_NonCryptoRollsToNextWeekday(t *testing.T) {
	saturday := time.Date(2024, 1, 6, 9, 30, 0, 0, time.UTC)
	signal := TradingSignal{Symbol: "AAPL", EntryPrice: 180, StopLoss: 175, PositionSizePct: 0.02, Timestamp: saturday}

	plan := PlanEntry(signal, 10000, false)
	assert.Equal(t, time.Monday, plan.EntryDate.Weekday())
}

func TestStore_SaveAndLoadAllRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil, "", zerolog.Nop())
	require.NoError(t, err)

	signal := TradingSignal{
		Symbol:     "ETH",
		Type:       TypeBuy,
		Category:   CategorySwing,
		EntryPrice: 3000,
		Timestamp:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(context.Background(), signal))

	loaded, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, signal.Symbol, loaded[0].Symbol)
	assert.Equal(t, signal.EntryPrice, loaded[0].EntryPrice)
}

func TestStore_Save_AccumulatesMultipleSignalsInSameDayFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil, "", zerolog.Nop())
	require.NoError(t, err)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(context.Background(), TradingSignal{Symbol: "ETH", Category: CategorySwing, Timestamp: date}))
	require.NoError(t, store.Save(context.Background(), TradingSignal{Symbol: "SOL", Category: CategorySwing, Timestamp: date}))

	data, err := os.ReadFile(filepath.Join(dir, "signals_swing_20240301.json"))
	require.NoError(t, err)

	var sigs []TradingSignal
	require.NoError(t, json.Unmarshal(data, &sigs))
	assert.Len(t, sigs, 2)
}

func TestStore_LoadFromFiles_FiltersByCategoryAndSymbol(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil, "", zerolog.Nop())
	require.NoError(t, err)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(context.Background(), TradingSignal{Symbol: "ETH", Category: CategorySwing, Timestamp: date}))
	require.NoError(t, store.Save(context.Background(), TradingSignal{Symbol: "SOL", Category: CategorySwing, Timestamp: date}))
	require.NoError(t, store.Save(context.Background(), TradingSignal{Symbol: "AAPL", Category: CategoryLongTerm, Timestamp: date}))

	result, err := store.LoadFromFiles("20240301", CategorySwing, "ETH")
	require.NoError(t, err)
	require.Contains(t, result.Signals, "swing")
	require.Len(t, result.Signals["swing"], 1)
	assert.Equal(t, "ETH", result.Signals["swing"][0].Symbol)
}

func TestStore_LoadFromFiles_DefaultsToScalpSwingLongTerm(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil, "", zerolog.Nop())
	require.NoError(t, err)

	result, err := store.LoadFromFiles("20240301", "", "")
	require.NoError(t, err)
	assert.Contains(t, result.Signals, "scalp")
	assert.Contains(t, result.Signals, "swing")
	assert.Contains(t, result.Signals, "long_term")
	assert.NotContains(t, result.Signals, "intraday")
}

func TestStore_SaveSummaryAndPerformance_ReadableByLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil, "", zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, store.SaveSummary(context.Background(), "20240301", map[string]int{"total": 3}))
	require.NoError(t, store.SavePerformance(context.Background(), "20240301", map[string]float64{"win_rate": 0.6}))

	result, err := store.LoadFromFiles("20240301", "", "")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Summary)
	assert.NotEmpty(t, result.Performance)
}

func TestStore_LoadAllSkipsUnparseableFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, nil, "", zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("{not json"), 0o644))

	signal := TradingSignal{Symbol: "SOL", Timestamp: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Save(context.Background(), signal))

	loaded, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "SOL", loaded[0].Symbol)
}

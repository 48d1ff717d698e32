package allocation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculate_AllocationDriftScenario(t *testing.T) {
	tracker := NewTracker(time.Hour)
	holdings := []Holding{
		{Symbol: "AAPL", Class: ClassStocks, Value: 60000},
		{Symbol: "BTC", Class: ClassCrypto, Value: 15000},
		{Symbol: "USD", Class: ClassCash, Value: 25000},
	}

	report := tracker.Calculate(holdings)

	assert.Equal(t, 100000.0, report.PortfolioValue)
	assert.True(t, report.NeedsRebalancing)

	byClass := make(map[Class]ClassAllocation, len(report.Classes))
	for _, c := range report.Classes {
		byClass[c.Class] = c
	}

	assert.InDelta(t, 10.0, byClass[ClassStocks].DiffPct, 1e-9)
	assert.InDelta(t, 5.0, byClass[ClassCrypto].DiffPct, 1e-9)
	assert.InDelta(t, 20.0, byClass[ClassCash].DiffPct, 1e-9)
	assert.InDelta(t, -15.0, byClass[ClassETFs].DiffPct, 1e-9)
	// All six default classes contribute: 10+5+20 over, 15+15+5 under.
	assert.InDelta(t, 70.0, report.TotalDrift, 1e-6)
}

func TestCalculate_SumOfClassValuesEqualsPortfolioValue(t *testing.T) {
	tracker := NewTracker(time.Hour)
	holdings := []Holding{
		{Symbol: "AAPL", Class: ClassStocks, Value: 40000},
		{Symbol: "SPY", Class: ClassETFs, Value: 20000},
		{Symbol: "GLD", Class: ClassCommodities, Value: 10000},
		{Symbol: "BTC", Class: ClassCrypto, Value: 15000},
		{Symbol: "ES", Class: ClassFutures, Value: 5000},
		{Symbol: "USD", Class: ClassCash, Value: 10000},
	}

	report := tracker.Calculate(holdings)

	var sum float64
	for _, c := range report.Classes {
		sum += c.CurrentValue
	}
	assert.InDelta(t, report.PortfolioValue, sum, 1e-6)
}

func TestCalculate_EmptyPortfolioHasZeroPercentages(t *testing.T) {
	tracker := NewTracker(time.Hour)
	report := tracker.Calculate(nil)
	assert.Equal(t, 0.0, report.PortfolioValue)
	for _, c := range report.Classes {
		assert.Equal(t, 0.0, c.CurrentPct)
	}
}

func TestRebalancingActions_OverweightSellsUnderweightBuys(t *testing.T) {
	tracker := NewTracker(time.Hour)
	holdings := []Holding{
		{Symbol: "AAPL", Class: ClassStocks, Value: 60000},
		{Symbol: "BTC", Class: ClassCrypto, Value: 15000},
		{Symbol: "USD", Class: ClassCash, Value: 25000},
	}
	report := tracker.Calculate(holdings)
	actions := tracker.RebalancingActions(report)

	bySide := map[Class]string{}
	for _, a := range actions {
		bySide[a.Class] = a.Side
	}
	assert.Equal(t, "sell", bySide[ClassStocks])
	assert.Equal(t, "sell", bySide[ClassCrypto])
	assert.Equal(t, "buy", bySide[ClassETFs])
}

func TestShouldAlert_RespectsCooldown(t *testing.T) {
	tracker := NewTracker(time.Hour)

	assert.True(t, tracker.ShouldAlert(ClassCrypto, 12.0))
	assert.False(t, tracker.ShouldAlert(ClassCrypto, 12.0), "second call within cooldown should not re-alert")
}

func TestShouldAlert_WithinToleranceNeverAlerts(t *testing.T) {
	tracker := NewTracker(time.Hour)
	assert.False(t, tracker.ShouldAlert(ClassStocks, 2.0))
}

package signals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func risingCloses(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func TestCalculate_EmptyInputDefaultsToNeutral(t *testing.T) {
	ind := Calculate(nil)
	assert.Equal(t, TrendNeutral, ind.Trend)
	assert.Nil(t, ind.RSI)
}

func TestCalculate_ShortSeriesOmitsSMA(t *testing.T) {
	ind := Calculate(risingCloses(10))
	assert.Nil(t, ind.SMA20)
	assert.Nil(t, ind.SMA50)
	assert.Equal(t, TrendNeutral, ind.Trend)
}

func TestCalculate_RisingSeriesTrendsUp(t *testing.T) {
	ind := Calculate(risingCloses(60))
	require.NotNil(t, ind.SMA20)
	require.NotNil(t, ind.SMA50)
	assert.Equal(t, TrendUp, ind.Trend)
	assert.Greater(t, *ind.SMA20, *ind.SMA50)
}

func TestCalculate_PricePositionAtWindowHigh(t *testing.T) {
	closes := risingCloses(30)
	ind := Calculate(closes)
	assert.InDelta(t, 1.0, ind.PricePosition, 1e-9)
}

func TestCalculate_FlatSeriesPricePositionIsMidpoint(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 100
	}
	ind := Calculate(closes)
	assert.Equal(t, 0.5, ind.PricePosition)
}

func TestCalculate_MACDIsEMA12MinusEMA26(t *testing.T) {
	ind := Calculate(risingCloses(60))
	require.NotNil(t, ind.EMA12)
	require.NotNil(t, ind.EMA26)
	require.NotNil(t, ind.MACD)
	assert.InDelta(t, *ind.EMA12-*ind.EMA26, *ind.MACD, 1e-9)
}

func TestCalculate_VolatilityIsAnnualized(t *testing.T) {
	ind := Calculate(risingCloses(30))
	require.NotNil(t, ind.Volatility)
	assert.Greater(t, *ind.Volatility, 0.0)
}

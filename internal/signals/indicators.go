package signals

import (
	"math"

	"github.com/markcheno/go-talib"
)

// Trend classifies the short/long moving-average relationship.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendNeutral Trend = "neutral"
)

// Indicators is the full technical snapshot computed for one symbol ahead
// of signal-type/strength/confidence determination. Field presence
// (non-nil pointers) mirrors the original's Optional[float] semantics:
// an indicator that can't be computed from the available history is left
// absent rather than zeroed, so downstream logic can distinguish "no
// signal" from "computed to zero".
type Indicators struct {
	RSI           *float64 `json:"rsi,omitempty"`
	SMA20         *float64 `json:"sma20,omitempty"`
	SMA50         *float64 `json:"sma50,omitempty"`
	EMA12         *float64 `json:"ema12,omitempty"`
	EMA26         *float64 `json:"ema26,omitempty"`
	MACD          *float64 `json:"macd,omitempty"`
	PricePosition float64  `json:"price_position"`
	Volatility    *float64 `json:"volatility,omitempty"`
	Trend         Trend    `json:"trend"`
}

const rsiPeriod = 14

// Calculate computes the full indicator snapshot from a closing-price
// series ordered oldest to newest. Mirrors SignalEngine._calculate_indicators.
func Calculate(closes []float64) Indicators {
	var ind Indicators
	if len(closes) == 0 {
		ind.Trend = TrendNeutral
		return ind
	}

	ind.RSI = rsi(closes, rsiPeriod)

	if len(closes) >= 20 {
		v := sliceMean(closes[len(closes)-20:])
		ind.SMA20 = &v
	}
	if len(closes) >= 50 {
		v := sliceMean(closes[len(closes)-50:])
		ind.SMA50 = &v
	}
	ind.EMA12 = ema(closes, 12)
	ind.EMA26 = ema(closes, 26)

	if ind.EMA12 != nil && ind.EMA26 != nil {
		v := *ind.EMA12 - *ind.EMA26
		ind.MACD = &v
	}

	current := closes[len(closes)-1]
	high, low := maxOf(closes), minOf(closes)
	if high > low {
		ind.PricePosition = (current - low) / (high - low)
	} else {
		ind.PricePosition = 0.5
	}

	returns := pctChange(closes)
	if len(returns) > 0 {
		v := stdDev(returns) * math.Sqrt(252)
		ind.Volatility = &v
	}

	switch {
	case ind.SMA20 != nil && ind.SMA50 != nil:
		switch {
		case *ind.SMA20 > *ind.SMA50:
			ind.Trend = TrendUp
		case *ind.SMA20 < *ind.SMA50:
			ind.Trend = TrendDown
		default:
			ind.Trend = TrendNeutral
		}
	default:
		ind.Trend = TrendNeutral
	}

	return ind
}

// rsi computes the Relative Strength Index using talib, falling back to
// nil when there isn't enough history for a full period or when the series
// never moves (no gains or losses, so RSI is undefined).
func rsi(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}
	if maxOf(closes) == minOf(closes) {
		return nil
	}
	out := talib.Rsi(closes, period)
	v := out[len(out)-1]
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// ema computes the Exponential Moving Average using talib's standard
// recursive definition, which seeds the recurrence with the simple average
// of the first period closes.
func ema(closes []float64, period int) *float64 {
	if len(closes) < period {
		return nil
	}
	out := talib.Ema(closes, period)
	v := out[len(out)-1]
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func sliceMean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func pctChange(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out[i-1] = (closes[i] - closes[i-1]) / closes[i-1]
	}
	return out
}

func stdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := sliceMean(xs)
	var sumSq float64
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

func maxOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs {
		if x < m {
			m = x
		}
	}
	return m
}

package signals

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/nuniesmith/fks-portfolio-go/internal/apperr"
	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata"
)

const (
	minHistoryObservations = 20
	defaultMinRiskReward   = 1.5
	defaultMaxPositionSize = 0.02
)

// PriceSource is the subset of marketdata.Router a SignalEngine needs.
type PriceSource interface {
	HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PricePoint, error)
	CurrentPrice(ctx context.Context, symbol string) (marketdata.Quote, error)
}

// Engine generates trading signals from technical indicators. Grounded on
// signals/signal_engine.py's SignalEngine, formula-for-formula.
type Engine struct {
	source           PriceSource
	minRiskReward    float64
	maxPositionSize  float64
	log              zerolog.Logger
}

// NewEngine builds an Engine over source with the platform's default
// minimum risk/reward ratio and max position size.
func NewEngine(source PriceSource, log zerolog.Logger) *Engine {
	return &Engine{
		source:          source,
		minRiskReward:   defaultMinRiskReward,
		maxPositionSize: defaultMaxPositionSize,
		log:             log.With().Str("component", "signal_engine").Logger(),
	}
}

// Generate produces a signal for symbol in category, or nil if no
// actionable signal exists (HOLD, insufficient data, or risk/reward below
// the platform minimum) - mirroring generate_signal's Optional[TradingSignal]
// contract rather than surfacing "no signal" as an error.
func (e *Engine) Generate(ctx context.Context, symbol string, category Category, lookbackDays int) (*TradingSignal, error) {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}

	end := time.Now()
	start := end.AddDate(0, 0, -lookbackDays)

	points, err := e.source.HistoricalPrices(ctx, symbol, start, end)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("fetch history for "+symbol, err)
	}
	if len(points) < minHistoryObservations {
		e.log.Debug().Str("symbol", symbol).Int("bars", len(points)).Msg("insufficient history, no signal")
		return nil, nil
	}

	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}

	quote, err := e.source.CurrentPrice(ctx, symbol)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("fetch current price for "+symbol, err)
	}

	ind := Calculate(closes)
	signalType := determineType(ind)
	if signalType == TypeHold {
		return nil, nil
	}

	entry := quote.Price
	tpPct, slPct := calculateTPSL(category, ind)

	var takeProfit, stopLoss float64
	if signalType == TypeBuy {
		takeProfit = entry * (1 + tpPct/100)
		stopLoss = entry * (1 - slPct/100)
	} else {
		takeProfit = entry * (1 - tpPct/100)
		stopLoss = entry * (1 + slPct/100)
	}

	riskReward := 0.0
	if slPct > 0 {
		riskReward = tpPct / slPct
	}
	if riskReward < e.minRiskReward {
		e.log.Debug().Str("symbol", symbol).Float64("risk_reward", riskReward).Msg("below minimum risk/reward, no signal")
		return nil, nil
	}

	positionSize := math.Min(e.maxPositionSize, slPct/100)
	strength := determineStrength(ind, riskReward)
	confidence := calculateConfidence(ind, riskReward)

	cfg := ConfigFor(category)
	now := time.Now()

	signal := &TradingSignal{
		Symbol:          symbol,
		Type:            signalType,
		Category:        category,
		EntryPrice:      entry,
		TakeProfit:      takeProfit,
		StopLoss:        stopLoss,
		TakeProfitPct:   tpPct,
		StopLossPct:     slPct,
		RiskRewardRatio: riskReward,
		PositionSizePct: positionSize,
		Timestamp:       now,
		Expiry:          now.Add(cfg.TimeHorizonMax),
		Strength:        strength,
		Confidence:      confidence,
		Indicators:      ind,
	}
	return signal, nil
}

// GenerateForPortfolio generates signals for every symbol, keeping only
// valid ones and sorting by descending confidence - mirroring
// generate_signals_for_portfolio.
func (e *Engine) GenerateForPortfolio(ctx context.Context, symbols []string, category Category, lookbackDays int) []*TradingSignal {
	var out []*TradingSignal
	for _, sym := range symbols {
		signal, err := e.Generate(ctx, sym, category, lookbackDays)
		if err != nil {
			e.log.Warn().Err(err).Str("symbol", sym).Msg("signal generation failed")
			continue
		}
		if signal != nil && signal.IsValid() {
			out = append(out, signal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// determineType mirrors _determine_signal_type's RSI-first, then MACD,
// then trend-only cascade.
func determineType(ind Indicators) Type {
	if ind.RSI != nil {
		switch {
		case *ind.RSI < 30:
			return TypeBuy
		case *ind.RSI > 70:
			return TypeSell
		}
	}

	if ind.MACD != nil {
		switch {
		case *ind.MACD > 0 && ind.Trend == TrendUp:
			return TypeBuy
		case *ind.MACD < 0 && ind.Trend == TrendDown:
			return TypeSell
		}
	}

	switch ind.Trend {
	case TrendUp:
		return TypeBuy
	case TrendDown:
		return TypeSell
	}
	return TypeHold
}

// calculateTPSL mirrors _calculate_tp_sl's volatility-scaled interpolation
// within the category's configured percentage range.
func calculateTPSL(category Category, ind Indicators) (tpPct, slPct float64) {
	cfg := ConfigFor(category)

	if ind.Volatility == nil {
		return (cfg.TakeProfitPctMin + cfg.TakeProfitPctMax) / 2,
			(cfg.StopLossPctMin + cfg.StopLossPctMax) / 2
	}

	volatilityFactor := math.Min(*ind.Volatility/0.3, 2.0)
	tpPct = cfg.TakeProfitPctMin + (cfg.TakeProfitPctMax-cfg.TakeProfitPctMin)*volatilityFactor*0.5
	slPct = cfg.StopLossPctMin + (cfg.StopLossPctMax-cfg.StopLossPctMin)*volatilityFactor*0.5
	return tpPct, slPct
}

// determineStrength mirrors _determine_strength's confirmation-count
// thresholds.
func determineStrength(ind Indicators, riskReward float64) Strength {
	confirmations := 0

	if ind.RSI != nil && (*ind.RSI < 30 || *ind.RSI > 70) {
		confirmations++
	}
	if ind.MACD != nil && *ind.MACD != 0 {
		confirmations++
	}
	if ind.Trend != TrendNeutral {
		confirmations++
	}
	if riskReward >= 2.0 {
		confirmations++
	}

	switch {
	case confirmations >= 3:
		return StrengthVeryStrong
	case confirmations >= 2:
		return StrengthStrong
	case confirmations >= 1:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// calculateConfidence mirrors _calculate_confidence's additive scoring,
// capped at 1.0.
func calculateConfidence(ind Indicators, riskReward float64) float64 {
	confidence := 0.5

	if ind.RSI != nil {
		switch {
		case *ind.RSI < 20 || *ind.RSI > 80:
			confidence += 0.2
		case *ind.RSI < 30 || *ind.RSI > 70:
			confidence += 0.1
		}
	}

	switch {
	case riskReward >= 3.0:
		confidence += 0.2
	case riskReward >= 2.0:
		confidence += 0.1
	}

	if ind.Trend != TrendNeutral {
		confidence += 0.1
	}

	return math.Min(confidence, 1.0)
}

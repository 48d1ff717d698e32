// Package signals implements the technical-indicator-driven signal engine:
// indicator calculation, signal-type/strength/confidence scoring, and the
// file-backed signal store.
package signals

import "time"

// Category classifies a signal by its intended holding horizon, which
// drives its take-profit/stop-loss percentage ranges and expiry. Grounded
// on trade_categories.py's TradeCategory/TradeCategoryClassifier.
type Category string

const (
	CategoryScalp    Category = "scalp"
	CategoryIntraday Category = "intraday"
	CategorySwing    Category = "swing"
	CategoryLongTerm Category = "long_term"
)

// CategoryConfig bounds a category's take-profit/stop-loss percentages and
// how long a signal in that category remains valid.
type CategoryConfig struct {
	TakeProfitPctMin float64
	TakeProfitPctMax float64
	StopLossPctMin   float64
	StopLossPctMax   float64
	TimeHorizonMax   time.Duration
}

// categoryConfigs mirrors TradeCategoryClassifier.CATEGORIES exactly: each
// category's take_profit_pct/stop_loss_pct range, expressed as percentages.
var categoryConfigs = map[Category]CategoryConfig{
	CategoryScalp: {
		TakeProfitPctMin: 0.1, TakeProfitPctMax: 0.5,
		StopLossPctMin: 0.05, StopLossPctMax: 0.2,
		TimeHorizonMax: 4 * time.Hour,
	},
	CategoryIntraday: {
		TakeProfitPctMin: 0.5, TakeProfitPctMax: 2.0,
		StopLossPctMin: 0.2, StopLossPctMax: 1.0,
		TimeHorizonMax: 24 * time.Hour,
	},
	CategorySwing: {
		TakeProfitPctMin: 2.0, TakeProfitPctMax: 10.0,
		StopLossPctMin: 1.0, StopLossPctMax: 5.0,
		TimeHorizonMax: 10 * 24 * time.Hour,
	},
	CategoryLongTerm: {
		TakeProfitPctMin: 10.0, TakeProfitPctMax: 50.0,
		StopLossPctMin: 5.0, StopLossPctMax: 15.0,
		TimeHorizonMax: 90 * 24 * time.Hour,
	},
}

// ConfigFor returns category's configuration, defaulting to swing
// parameters for an unrecognized category rather than a zero-valued
// (and therefore always-rejected) config.
func ConfigFor(category Category) CategoryConfig {
	if cfg, ok := categoryConfigs[category]; ok {
		return cfg
	}
	return categoryConfigs[CategorySwing]
}

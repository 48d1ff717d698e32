// Package backtest compares batches of generated signals against each
// other, quantifying whether one signal source is an improvement over
// another. Grounded on backtesting/ai_comparison.py's AIComparisonBacktest.
package backtest

import (
	"fmt"

	"github.com/nuniesmith/fks-portfolio-go/internal/signals"
)

// Metrics summarizes one batch of signals: how many fired, and their
// average confidence, risk/reward, and position size, plus a count of
// strong and very-strong signals. Grounded on _calculate_metrics.
type Metrics struct {
	SignalCount        int     `json:"signal_count"`
	AvgConfidence      float64 `json:"avg_confidence"`
	AvgRiskReward      float64 `json:"avg_risk_reward"`
	AvgPositionSize    float64 `json:"avg_position_size"`
	StrongSignals      int     `json:"strong_signals"`
	VeryStrongSignals  int     `json:"very_strong_signals"`
	SignalType         string  `json:"signal_type"`
}

// calculateMetrics mirrors _calculate_metrics exactly, including its
// all-zero shape for an empty batch.
func calculateMetrics(sigs []signals.TradingSignal, signalType string) Metrics {
	if len(sigs) == 0 {
		return Metrics{SignalType: signalType}
	}

	var confidence, riskReward, positionSize float64
	var strong, veryStrong int
	for _, s := range sigs {
		confidence += s.Confidence
		riskReward += s.RiskRewardRatio
		positionSize += s.PositionSizePct
		switch s.Strength {
		case signals.StrengthStrong:
			strong++
		case signals.StrengthVeryStrong:
			veryStrong++
		}
	}
	n := float64(len(sigs))
	return Metrics{
		SignalCount:       len(sigs),
		AvgConfidence:     confidence / n,
		AvgRiskReward:     riskReward / n,
		AvgPositionSize:   positionSize / n,
		StrongSignals:     strong,
		VeryStrongSignals: veryStrong,
		SignalType:        signalType,
	}
}

// Delta is a before/after comparison of a single metric.
type Delta struct {
	Delta         float64 `json:"delta"`
	PercentChange float64 `json:"percent_change"`
}

// SignalQualityDelta compares the count of strong/very-strong signals
// between two batches.
type SignalQualityDelta struct {
	StrongSignalsDelta     int `json:"strong_signals_delta"`
	VeryStrongSignalsDelta int `json:"very_strong_signals_delta"`
}

// Improvements holds the deltas computed between a baseline and an
// enhanced batch, each populated only when its baseline denominator is
// non-zero, mirroring _calculate_improvements' guarded assembly.
type Improvements struct {
	Confidence     *Delta              `json:"confidence,omitempty"`
	RiskReward     *Delta              `json:"risk_reward,omitempty"`
	SignalQuality  *SignalQualityDelta `json:"signal_quality,omitempty"`
}

func calculateImprovements(baseline, enhanced Metrics) Improvements {
	var imp Improvements
	if baseline.AvgConfidence > 0 {
		delta := enhanced.AvgConfidence - baseline.AvgConfidence
		imp.Confidence = &Delta{Delta: delta, PercentChange: delta / baseline.AvgConfidence * 100}
	}
	if baseline.AvgRiskReward > 0 {
		delta := enhanced.AvgRiskReward - baseline.AvgRiskReward
		imp.RiskReward = &Delta{Delta: delta, PercentChange: delta / baseline.AvgRiskReward * 100}
	}
	if baseline.SignalCount > 0 {
		imp.SignalQuality = &SignalQualityDelta{
			StrongSignalsDelta:     enhanced.StrongSignals - baseline.StrongSignals,
			VeryStrongSignalsDelta: enhanced.VeryStrongSignals - baseline.VeryStrongSignals,
		}
	}
	return imp
}

// Comparison is the full baseline-vs-enhanced comparison result.
type Comparison struct {
	Baseline     Metrics      `json:"baseline"`
	Enhanced     Metrics      `json:"enhanced"`
	Improvements Improvements `json:"improvements"`
	Summary      string       `json:"summary"`
	EnhancedEnabled bool      `json:"enhanced_enabled"`
}

// Compare computes metrics for both batches, the deltas between them, and
// a one-line human-readable summary, mirroring
// compare_baseline_vs_ai/_generate_summary. enhancedEnabled records whether
// enhanced is a genuinely distinct source (an external enrichment call was
// made) or just a copy of baseline returned because no enrichment source
// was configured.
func Compare(baseline, enhanced []signals.TradingSignal, enhancedEnabled bool) Comparison {
	baseMetrics := calculateMetrics(baseline, "baseline")
	enhMetrics := calculateMetrics(enhanced, "ai_enhanced")
	improvements := calculateImprovements(baseMetrics, enhMetrics)

	return Comparison{
		Baseline:        baseMetrics,
		Enhanced:        enhMetrics,
		Improvements:    improvements,
		Summary:         summarize(baseMetrics, enhMetrics, improvements),
		EnhancedEnabled: enhancedEnabled,
	}
}

func summarize(baseline, enhanced Metrics, improvements Improvements) string {
	out := fmt.Sprintf("Baseline: %d signals, AI: %d signals", baseline.SignalCount, enhanced.SignalCount)
	if improvements.Confidence != nil {
		out += fmt.Sprintf(". Confidence: %+.1f%% (%.2f -> %.2f)",
			improvements.Confidence.PercentChange, baseline.AvgConfidence, enhanced.AvgConfidence)
	}
	if improvements.RiskReward != nil {
		out += fmt.Sprintf(". Risk/Reward: %+.1f%% (%.2f -> %.2f)",
			improvements.RiskReward.PercentChange, baseline.AvgRiskReward, enhanced.AvgRiskReward)
	}
	return out
}

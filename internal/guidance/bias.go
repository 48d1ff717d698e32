// Package guidance implements behavioral bias detection and decision
// support scoring layered on top of generated trading signals.
package guidance

import "github.com/nuniesmith/fks-portfolio-go/internal/signals"

// BiasType names a specific behavioral bias pattern. Grounded on
// risk/bias_detection.py's BiasType enum.
type BiasType string

const (
	BiasRecentLossAversion BiasType = "recent_loss_aversion"
	BiasOverconfidence     BiasType = "overconfidence"
	BiasAnchoring          BiasType = "anchoring"
	BiasNone               BiasType = "none"
)

// Severity grades how strongly a detected bias should influence the final
// recommendation.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// BiasFlag is one detected bias instance with enough context to explain
// itself in a rationale.
type BiasFlag struct {
	Type     BiasType `json:"type"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
}

// Detection thresholds, grounded on BiasDetector's class constants.
const (
	recentLossThresholdMedium = 0.02
	recentLossThresholdHigh   = 0.05
	overconfidenceWinStreak   = 5
	overconfidenceHighStreak  = 8
	maxPositionSize           = 0.20
	overconfidencePositionMultiplier = 1.5
)

// TradingContext carries the recent-performance state a BiasDetector needs
// that a single signal can't provide on its own.
type TradingContext struct {
	RecentLossPct          float64 `json:"recent_loss_pct"`          // most recent realized loss, as a positive fraction
	ConsecutiveWinCount    int     `json:"consecutive_win_count"`
	RecommendedPositionPct float64 `json:"recommended_position_pct"` // the platform's own sizing recommendation, for the relative oversizing check
}

// BiasDetector flags behavioral patterns that should make a trader
// distrust a signal even when its technical setup is sound. Grounded on
// risk/bias_detection.py's BiasDetector.
type BiasDetector struct{}

// NewBiasDetector builds a BiasDetector.
func NewBiasDetector() *BiasDetector { return &BiasDetector{} }

// CheckRecentLossAversion flags when a recent loss might be driving an
// emotionally-reactive trade.
func (d *BiasDetector) CheckRecentLossAversion(ctx TradingContext) *BiasFlag {
	if ctx.RecentLossPct <= recentLossThresholdMedium {
		return nil
	}
	severity := SeverityMedium
	if ctx.RecentLossPct > recentLossThresholdHigh {
		severity = SeverityHigh
	}
	return &BiasFlag{Type: BiasRecentLossAversion, Severity: severity, Detail: "recent loss may be driving this trade"}
}

// CheckOverconfidence flags a win streak long enough to risk overconfident
// sizing.
func (d *BiasDetector) CheckOverconfidence(ctx TradingContext) *BiasFlag {
	if ctx.ConsecutiveWinCount < overconfidenceWinStreak {
		return nil
	}
	severity := SeverityMedium
	if ctx.ConsecutiveWinCount >= overconfidenceHighStreak {
		severity = SeverityHigh
	}
	return &BiasFlag{Type: BiasOverconfidence, Severity: severity, Detail: "win streak may be inflating confidence"}
}

// CheckPositionSizing flags a signal whose position size either breaches
// the platform's absolute cap or significantly exceeds the recommended
// size, grounded on check_position_sizing's two-check structure.
func (d *BiasDetector) CheckPositionSizing(sig signals.TradingSignal, ctx TradingContext) *BiasFlag {
	if sig.PositionSizePct > maxPositionSize {
		return &BiasFlag{Type: BiasAnchoring, Severity: SeverityHigh, Detail: "position size exceeds the 20% absolute cap"}
	}
	if ctx.RecommendedPositionPct > 0 && sig.PositionSizePct > ctx.RecommendedPositionPct*overconfidencePositionMultiplier {
		return &BiasFlag{Type: BiasOverconfidence, Severity: SeverityMedium, Detail: "position size exceeds 1.5x the recommended size"}
	}
	return nil
}

// DetectAll runs every check and returns the flags that fired.
func (d *BiasDetector) DetectAll(sig signals.TradingSignal, ctx TradingContext) []BiasFlag {
	var flags []BiasFlag
	for _, f := range []*BiasFlag{
		d.CheckRecentLossAversion(ctx),
		d.CheckOverconfidence(ctx),
		d.CheckPositionSizing(sig, ctx),
	} {
		if f != nil {
			flags = append(flags, *f)
		}
	}
	return flags
}

// Recommendation is the coarse action a bias panel suggests independent of
// the signal's own technical merit.
type Recommendation string

const (
	RecommendationAvoidTrading       Recommendation = "avoid_trading"
	RecommendationReducePositionSize Recommendation = "reduce_position_size"
	RecommendationOK                 Recommendation = "ok"
)

// Recommend maps the worst flag severity present in flags to an action,
// mirroring get_bias_recommendation.
func Recommend(flags []BiasFlag) Recommendation {
	hasHigh, hasMedium := false, false
	for _, f := range flags {
		switch f.Severity {
		case SeverityHigh:
			hasHigh = true
		case SeverityMedium:
			hasMedium = true
		}
	}
	switch {
	case hasHigh:
		return RecommendationAvoidTrading
	case hasMedium:
		return RecommendationReducePositionSize
	default:
		return RecommendationOK
	}
}

package guidance

import (
	"fmt"
	"sort"

	"github.com/nuniesmith/fks-portfolio-go/internal/signals"
)

// DecisionType is the final actionable call surfaced to a user, distinct
// from (and downstream of) the signal's own Type/Strength - it folds in
// risk level and behavioral bias flags that a raw technical signal can't
// see. Grounded on guidance/decision_support.py's RecommendationType.
type DecisionType string

const (
	DecisionStrongBuy DecisionType = "strong_buy"
	DecisionBuy       DecisionType = "buy"
	DecisionHold      DecisionType = "hold"
	DecisionSell      DecisionType = "sell"
	DecisionAvoid     DecisionType = "avoid"
)

// RiskLevel buckets the composite risk score computed in assessRiskLevel.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// DecisionRecommendation is the full output of analyzing one signal:
// a call, the risk level and bias flags behind it, and a human-readable
// rationale trail.
type DecisionRecommendation struct {
	Symbol       string       `json:"symbol"`
	Decision     DecisionType `json:"decision"`
	RiskLevel    RiskLevel    `json:"risk_level"`
	Confidence   float64      `json:"confidence"`
	BiasFlags    []BiasFlag   `json:"bias_flags"`
	Rationale    []string     `json:"rationale"`
	Alternatives []string     `json:"alternatives"`
}

// Support analyzes signals into decision recommendations, weighing
// technical strength/confidence against risk level and behavioral bias.
// Grounded on guidance/decision_support.py's DecisionSupport.
type Support struct {
	detector *BiasDetector
}

// NewSupport builds a Support using detector for bias checks.
func NewSupport(detector *BiasDetector) *Support {
	return &Support{detector: detector}
}

// Analyze produces a DecisionRecommendation for sig given ctx.
func (s *Support) Analyze(sig signals.TradingSignal, ctx TradingContext) DecisionRecommendation {
	flags := s.detector.DetectAll(sig, ctx)
	riskLevel := assessRiskLevel(sig, flags)
	decision := determineDecision(sig, riskLevel, flags)
	confidence := calculateConfidence(sig, riskLevel, flags)

	rec := DecisionRecommendation{
		Symbol:       sig.Symbol,
		Decision:     decision,
		RiskLevel:    riskLevel,
		Confidence:   confidence,
		BiasFlags:    flags,
		Rationale:    generateRationale(sig, riskLevel, flags, decision),
		Alternatives: suggestAlternatives(decision, riskLevel),
	}
	return rec
}

// AnalyzePortfolio analyzes every signal and sorts recommendations by
// descending confidence, mirroring get_decision_guidance's batch + sort.
func (s *Support) AnalyzePortfolio(sigs []signals.TradingSignal, ctxFor func(string) TradingContext) []DecisionRecommendation {
	out := make([]DecisionRecommendation, 0, len(sigs))
	for _, sig := range sigs {
		out = append(out, s.Analyze(sig, ctxFor(sig.Symbol)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// assessRiskLevel mirrors _assess_risk_level's additive scoring: position
// size, risk/reward, stop-loss width, category, and signal confidence each
// contribute points, then the total is bucketed.
func assessRiskLevel(sig signals.TradingSignal, flags []BiasFlag) RiskLevel {
	score := 0

	switch {
	case sig.PositionSizePct > 0.02:
		score += 2
	case sig.PositionSizePct > 0.015:
		score += 1
	}

	switch {
	case sig.RiskRewardRatio < 1.5:
		score += 2
	case sig.RiskRewardRatio < 2.0:
		score += 1
	}

	if sig.StopLossPct > 5 {
		score++
	}

	switch sig.Category {
	case signals.CategoryScalp:
		score += 2
	case signals.CategoryIntraday:
		score++
	}

	if sig.Confidence < 0.5 {
		score++
	}

	switch {
	case score >= 5:
		return RiskHigh
	case score >= 3:
		return RiskMedium
	default:
		return RiskLow
	}
}

// determineDecision mirrors _determine_recommendation's cascading rules:
// bias flags first (two or more, or any high-severity flag), then risk
// level, then strength/confidence thresholds.
func determineDecision(sig signals.TradingSignal, risk RiskLevel, flags []BiasFlag) DecisionType {
	if len(flags) >= 2 {
		return DecisionAvoid
	}
	for _, f := range flags {
		if f.Severity == SeverityHigh {
			return DecisionAvoid
		}
	}

	if risk == RiskHigh {
		if sig.Confidence < 0.6 {
			return DecisionAvoid
		}
		return DecisionHold
	}

	switch {
	case sig.Strength == signals.StrengthVeryStrong && sig.Confidence >= 0.8:
		return DecisionStrongBuy
	case (sig.Strength == signals.StrengthStrong || sig.Strength == signals.StrengthVeryStrong) && sig.Confidence >= 0.6:
		return DecisionBuy
	case sig.Strength == signals.StrengthModerate:
		return DecisionHold
	default:
		return DecisionAvoid
	}
}

// calculateConfidence mirrors _calculate_confidence's multiplicative
// discounting by risk level and bias-flag count.
func calculateConfidence(sig signals.TradingSignal, risk RiskLevel, flags []BiasFlag) float64 {
	confidence := sig.Confidence

	switch risk {
	case RiskHigh:
		confidence *= 0.7
	case RiskMedium:
		confidence *= 0.9
	}

	confidence *= 1 - 0.1*float64(len(flags))
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}

func generateRationale(sig signals.TradingSignal, risk RiskLevel, flags []BiasFlag, decision DecisionType) []string {
	rationale := []string{
		fmt.Sprintf("%s signal with %s strength, %.0f%% confidence", sig.Type, sig.Strength, sig.Confidence*100),
		fmt.Sprintf("risk/reward ratio %.2f, %s risk", sig.RiskRewardRatio, risk),
	}
	for _, f := range flags {
		rationale = append(rationale, fmt.Sprintf("bias flag: %s (%s) - %s", f.Type, f.Severity, f.Detail))
	}
	rationale = append(rationale, fmt.Sprintf("decision: %s", decision))
	return rationale
}

func suggestAlternatives(decision DecisionType, risk RiskLevel) []string {
	switch decision {
	case DecisionAvoid:
		return []string{"wait for a cleaner setup", "consider a smaller, de-risked position instead"}
	case DecisionHold:
		return []string{"re-evaluate once risk level or confidence improves"}
	default:
		if risk == RiskMedium {
			return []string{"consider reducing position size given the elevated risk score"}
		}
		return nil
	}
}

package guidance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuniesmith/fks-portfolio-go/internal/signals"
)

func TestCheckRecentLossAversion_BelowThresholdIsNil(t *testing.T) {
	d := NewBiasDetector()
	flag := d.CheckRecentLossAversion(TradingContext{RecentLossPct: 0.01})
	assert.Nil(t, flag)
}

func TestCheckRecentLossAversion_MediumAndHighSeverity(t *testing.T) {
	d := NewBiasDetector()

	medium := d.CheckRecentLossAversion(TradingContext{RecentLossPct: 0.03})
	require.NotNil(t, medium)
	assert.Equal(t, SeverityMedium, medium.Severity)

	high := d.CheckRecentLossAversion(TradingContext{RecentLossPct: 0.06})
	require.NotNil(t, high)
	assert.Equal(t, SeverityHigh, high.Severity)
}

func TestCheckOverconfidence_WinStreakThresholds(t *testing.T) {
	d := NewBiasDetector()

	assert.Nil(t, d.CheckOverconfidence(TradingContext{ConsecutiveWinCount: 4}))

	medium := d.CheckOverconfidence(TradingContext{ConsecutiveWinCount: 5})
	require.NotNil(t, medium)
	assert.Equal(t, SeverityMedium, medium.Severity)

	high := d.CheckOverconfidence(TradingContext{ConsecutiveWinCount: 8})
	require.NotNil(t, high)
	assert.Equal(t, SeverityHigh, high.Severity)
}

func TestCheckPositionSizing_AbsoluteCapAndRelativeOverage(t *testing.T) {
	d := NewBiasDetector()

	capped := d.CheckPositionSizing(signals.TradingSignal{PositionSizePct: 0.25}, TradingContext{})
	require.NotNil(t, capped)
	assert.Equal(t, SeverityHigh, capped.Severity)
	assert.Equal(t, BiasAnchoring, capped.Type)

	overRecommended := d.CheckPositionSizing(
		signals.TradingSignal{PositionSizePct: 0.02},
		TradingContext{RecommendedPositionPct: 0.01},
	)
	require.NotNil(t, overRecommended)
	assert.Equal(t, SeverityMedium, overRecommended.Severity)
	assert.Equal(t, BiasOverconfidence, overRecommended.Type)

	withinBounds := d.CheckPositionSizing(
		signals.TradingSignal{PositionSizePct: 0.012},
		TradingContext{RecommendedPositionPct: 0.01},
	)
	assert.Nil(t, withinBounds)
}

func TestRecommend_WorstSeverityWins(t *testing.T) {
	assert.Equal(t, RecommendationOK, Recommend(nil))
	assert.Equal(t, RecommendationReducePositionSize, Recommend([]BiasFlag{{Severity: SeverityMedium}}))
	assert.Equal(t, RecommendationAvoidTrading, Recommend([]BiasFlag{{Severity: SeverityMedium}, {Severity: SeverityHigh}}))
}

func TestDetectAll_AggregatesFiredChecks(t *testing.T) {
	d := NewBiasDetector()
	sig := signals.TradingSignal{PositionSizePct: 0.25}
	ctx := TradingContext{RecentLossPct: 0.06, ConsecutiveWinCount: 8}

	flags := d.DetectAll(sig, ctx)
	assert.Len(t, flags, 3)
}

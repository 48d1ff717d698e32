package signals

import "time"

// Type is the directional call a signal makes.
type Type string

const (
	TypeBuy  Type = "buy"
	TypeSell Type = "sell"
	TypeHold Type = "hold"
)

// Strength is a coarse confirmation-count bucket, independent of the
// continuous Confidence score.
type Strength string

const (
	StrengthWeak       Strength = "weak"
	StrengthModerate   Strength = "moderate"
	StrengthStrong     Strength = "strong"
	StrengthVeryStrong Strength = "very_strong"
)

// TradingSignal is the full output of SignalEngine.Generate: a directional
// call with entry/exit levels, sizing, and the scoring that justifies it.
type TradingSignal struct {
	Symbol          string     `json:"symbol"`
	Type            Type       `json:"type"`
	Category        Category   `json:"category"`
	EntryPrice      float64    `json:"entry_price"`
	TakeProfit      float64    `json:"take_profit"`
	StopLoss        float64    `json:"stop_loss"`
	TakeProfitPct   float64    `json:"take_profit_pct"`
	StopLossPct     float64    `json:"stop_loss_pct"`
	RiskRewardRatio float64    `json:"risk_reward_ratio"`
	PositionSizePct float64    `json:"position_size_pct"`
	Timestamp       time.Time  `json:"timestamp"`
	Expiry          time.Time  `json:"expiry"`
	Strength        Strength   `json:"strength"`
	Confidence      float64    `json:"confidence"`
	Indicators      Indicators `json:"indicators"`
}

// IsValid reports whether the signal meets the platform's minimum bar for
// being surfaced to a user: not yet expired, a risk/reward ratio of at
// least 1.0, and a position size within the platform's 1%-2% sizing band.
func (s TradingSignal) IsValid() bool {
	if !s.Expiry.IsZero() && time.Now().After(s.Expiry) {
		return false
	}
	if s.RiskRewardRatio < 1.0 {
		return false
	}
	return s.PositionSizePct >= 0.01 && s.PositionSizePct <= 0.02
}

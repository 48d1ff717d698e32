package quant

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/nuniesmith/fks-portfolio-go/internal/apperr"
)

// Strategy selects which objective the MeanVarianceOptimizer solves for.
type Strategy string

const (
	StrategyMaxSharpe       Strategy = "max_sharpe"
	StrategyMinVolatility   Strategy = "min_volatility"
	StrategyEfficientRisk   Strategy = "efficient_risk"   // target volatility
	StrategyEfficientReturn Strategy = "efficient_return" // target return
)

// defaultRiskFreeRate matches the 252-trading-day annualization convention
// used throughout the risk engine.
const defaultRiskFreeRate = 0.02

// btcMinWeight and btcMaxWeight are the BTC-specific allocation bounds the
// platform enforces as a numeraire-stability constraint: BTC must remain a
// substantial, but not overwhelming, share of the optimized book.
const (
	btcMinWeight       = 0.50
	btcMaxWeight       = 0.60
	otherAssetMinWeight = 0.0
	otherAssetMaxWeight = 0.20
)

// OptimizationRequest describes a single mean-variance solve.
type OptimizationRequest struct {
	Symbols        []string // must include "BTC"
	ExpectedReturn []float64 // per-symbol annualized expected return, same order as Symbols
	Covariance     *mat.Dense // annualized covariance matrix, len(Symbols) x len(Symbols)
	Strategy       Strategy
	TargetReturn   float64 // used by StrategyEfficientReturn
	TargetRisk     float64 // used by StrategyEfficientRisk
	RiskFreeRate   float64 // defaults to defaultRiskFreeRate when zero
}

// OptimizationResult is the solved portfolio.
type OptimizationResult struct {
	Weights            map[string]float64 `json:"weights"`
	ExpectedReturn     float64            `json:"expected_return"`
	ExpectedVolatility float64            `json:"expected_volatility"`
	SharpeRatio        float64            `json:"sharpe_ratio"`
}

// MeanVarianceOptimizer solves constrained portfolio weight problems using
// a penalty-method reformulation minimized with Nelder-Mead, the same
// approach the teacher's optimization module uses to sidestep gonum's lack
// of a native constrained QP solver.
type MeanVarianceOptimizer struct{}

// NewMeanVarianceOptimizer builds a MeanVarianceOptimizer.
func NewMeanVarianceOptimizer() *MeanVarianceOptimizer {
	return &MeanVarianceOptimizer{}
}

func (o *MeanVarianceOptimizer) bounds(symbols []string) (lo, hi []float64) {
	lo = make([]float64, len(symbols))
	hi = make([]float64, len(symbols))
	for i, s := range symbols {
		if s == "BTC" {
			lo[i], hi[i] = btcMinWeight, btcMaxWeight
		} else {
			lo[i], hi[i] = otherAssetMinWeight, otherAssetMaxWeight
		}
	}
	return lo, hi
}

// Optimize solves req and returns the resulting portfolio weights and
// statistics.
func (o *MeanVarianceOptimizer) Optimize(ctx context.Context, req OptimizationRequest) (OptimizationResult, error) {
	n := len(req.Symbols)
	if n == 0 {
		return OptimizationResult{}, apperr.Validation("at least one symbol is required")
	}
	if !contains(req.Symbols, "BTC") {
		return OptimizationResult{}, apperr.Validation("optimization universe must include BTC")
	}
	if req.Covariance == nil {
		return OptimizationResult{}, apperr.DataInsufficient("covariance matrix is required")
	}
	rCov, cCov := req.Covariance.Dims()
	if rCov != n || cCov != n {
		return OptimizationResult{}, apperr.Internal("covariance matrix dimension mismatch", nil)
	}

	riskFree := req.RiskFreeRate
	if riskFree == 0 {
		riskFree = defaultRiskFreeRate
	}

	lo, hi := o.bounds(req.Symbols)
	if sumOf(lo) > 1.0 || sumOf(hi) < 1.0 {
		return OptimizationResult{}, apperr.ConstraintViolation("per-asset bounds cannot sum to a feasible portfolio")
	}

	objective := o.buildObjective(req, lo, hi, riskFree)

	// Start from an equal-weight interior point clamped to bounds, then
	// renormalized, so Nelder-Mead begins inside the feasible region.
	x0 := make([]float64, n)
	for i := range x0 {
		x0[i] = clamp(1.0/float64(n), lo[i], hi[i])
	}
	normalizeInPlace(x0)

	problem := optimize.Problem{Func: objective}
	result, err := optimize.Minimize(problem, x0, &optimize.Settings{MajorIterations: 2000}, &optimize.NelderMead{})
	if err != nil && result == nil {
		return OptimizationResult{}, apperr.Internal("optimizer failed to converge", err)
	}

	weights := normalizedClamped(result.X, lo, hi)
	expReturn := dot(weights, req.ExpectedReturn)
	vol := portfolioVolatility(weights, req.Covariance)
	sharpe := 0.0
	if vol > 0 {
		sharpe = (expReturn - riskFree) / vol
	}

	out := make(map[string]float64, n)
	for i, s := range req.Symbols {
		out[s] = weights[i]
	}

	return OptimizationResult{
		Weights:            out,
		ExpectedReturn:     expReturn,
		ExpectedVolatility: vol,
		SharpeRatio:        sharpe,
	}, nil
}

// buildObjective returns the scalar function Nelder-Mead minimizes: the
// strategy's core objective plus quadratic penalties for violating the sum-
// to-one and per-asset bound constraints. This penalty-method approach
// lets an unconstrained local optimizer solve what is, in substance, a
// constrained problem.
func (o *MeanVarianceOptimizer) buildObjective(req OptimizationRequest, lo, hi []float64, riskFree float64) func([]float64) float64 {
	const penaltyWeight = 1e4

	return func(x []float64) float64 {
		weights := make([]float64, len(x))
		copy(weights, x)

		penalty := 0.0
		sum := 0.0
		for i, w := range weights {
			sum += w
			if w < lo[i] {
				penalty += penaltyWeight * (lo[i] - w) * (lo[i] - w)
			}
			if w > hi[i] {
				penalty += penaltyWeight * (w - hi[i]) * (w - hi[i])
			}
		}
		penalty += penaltyWeight * (sum - 1.0) * (sum - 1.0)

		vol := portfolioVolatility(weights, req.Covariance)
		expReturn := dot(weights, req.ExpectedReturn)

		switch req.Strategy {
		case StrategyMinVolatility:
			return vol + penalty
		case StrategyEfficientReturn:
			penalty += penaltyWeight * math.Max(0, req.TargetReturn-expReturn) * math.Max(0, req.TargetReturn-expReturn)
			return vol + penalty
		case StrategyEfficientRisk:
			penalty += penaltyWeight * (vol - req.TargetRisk) * (vol - req.TargetRisk)
			return -expReturn + penalty
		case StrategyMaxSharpe:
			fallthrough
		default:
			if vol <= 1e-9 {
				return penalty
			}
			sharpe := (expReturn - riskFree) / vol
			return -sharpe + penalty
		}
	}
}

func portfolioVolatility(weights []float64, cov *mat.Dense) float64 {
	n := len(weights)
	w := mat.NewVecDense(n, weights)
	var cw mat.VecDense
	cw.MulVec(cov, w)
	variance := mat.Dot(w, &cw)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func sumOf(a []float64) float64 {
	var sum float64
	for _, v := range a {
		sum += v
	}
	return sum
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func normalizeInPlace(x []float64) {
	sum := sumOf(x)
	if sum <= 0 {
		return
	}
	for i := range x {
		x[i] /= sum
	}
}

// normalizedClamped clamps x to [lo, hi] per-element then renormalizes so
// the final reported weights both respect bounds and sum to one, since the
// penalty method only encourages - never guarantees - exact constraint
// satisfaction.
func normalizedClamped(x []float64, lo, hi []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = clamp(v, lo[i], hi[i])
	}
	normalizeInPlace(out)
	return out
}

func contains(list []string, target string) bool {
	for _, v := range list {
		if v == target {
			return true
		}
	}
	return false
}

// AnnualizationFactor is the trading-day count used to annualize daily
// statistics throughout the quant engines.
const AnnualizationFactor = 252

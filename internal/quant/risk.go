package quant

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/nuniesmith/fks-portfolio-go/internal/apperr"
)

// monteCarloSamples and monteCarloSeed fix the Monte Carlo CVaR simulation
// to a deterministic outcome, matching risk/cvar.py's seed=42, N=10000.
const (
	monteCarloSamples = 10000
	monteCarloSeed    = 42
)

// minFactorRegressionObservations is the floor below which a factor
// regression's coefficients aren't trusted.
const minFactorRegressionObservations = 30

// CVaRMethod selects which estimator Risk.CVaR uses.
type CVaRMethod string

const (
	CVaRHistorical CVaRMethod = "historical"
	CVaRParametric CVaRMethod = "parametric"
	CVaRMonteCarlo CVaRMethod = "monte_carlo"
)

// Risk computes CVaR, drawdown, Sharpe ratio, and factor regressions over a
// return series. Grounded on risk/cvar.py's CVaRCalculator and module-level
// drawdown/Sharpe helpers.
type Risk struct {
	confidenceLevel float64
}

// NewRisk builds a Risk engine at the given confidence level (e.g. 0.95
// for a 95% CVaR).
func NewRisk(confidenceLevel float64) *Risk {
	if confidenceLevel <= 0 || confidenceLevel >= 1 {
		confidenceLevel = 0.95
	}
	return &Risk{confidenceLevel: confidenceLevel}
}

// CVaR dispatches to the requested estimator.
func (r *Risk) CVaR(returns []float64, method CVaRMethod) (float64, error) {
	if len(returns) == 0 {
		return 0, apperr.DataInsufficient("CVaR requires at least one return observation")
	}
	switch method {
	case CVaRParametric:
		return r.parametricCVaR(returns), nil
	case CVaRMonteCarlo:
		return r.monteCarloCVaR(returns), nil
	case CVaRHistorical:
		fallthrough
	default:
		return r.historicalCVaR(returns), nil
	}
}

// VaR dispatches to the requested estimator, returning the tail percentile
// cutoff itself rather than CVaR's expected-shortfall-beyond-that-cutoff.
func (r *Risk) VaR(returns []float64, method CVaRMethod) (float64, error) {
	if len(returns) == 0 {
		return 0, apperr.DataInsufficient("VaR requires at least one return observation")
	}
	switch method {
	case CVaRParametric:
		return r.parametricVaR(returns), nil
	case CVaRMonteCarlo:
		return r.monteCarloVaR(returns), nil
	case CVaRHistorical:
		fallthrough
	default:
		return r.historicalVaR(returns), nil
	}
}

// historicalVaR returns the return value at the tail percentile directly.
func (r *Risk) historicalVaR(returns []float64) float64 {
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	alpha := 1 - r.confidenceLevel
	idx := int(alpha * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// parametricVaR assumes normally-distributed returns: mean + std * z(alpha).
func (r *Risk) parametricVaR(returns []float64) float64 {
	m, std := meanStd(returns)
	alpha := 1 - r.confidenceLevel
	return m + std*normalQuantile(alpha)
}

// monteCarloVaR draws monteCarloSamples from a normal distribution fit to
// returns, using a fixed seed for reproducibility, then applies the
// historical VaR estimator to the simulated sample.
func (r *Risk) monteCarloVaR(returns []float64) float64 {
	m, std := meanStd(returns)
	rng := rand.New(rand.NewSource(monteCarloSeed))

	samples := make([]float64, monteCarloSamples)
	for i := range samples {
		samples[i] = m + std*rng.NormFloat64()
	}
	return r.historicalVaR(samples)
}

// historicalCVaR computes the VaR at the tail percentile, then averages the
// returns at or below it (the tail mean). The tail always includes the VaR
// observation itself, so a single observation yields a CVaR equal to VaR.
func (r *Risk) historicalCVaR(returns []float64) float64 {
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	alpha := 1 - r.confidenceLevel
	idx := int(alpha * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	varValue := sorted[idx]

	tail := sorted[:idx+1]
	if len(tail) == 0 {
		return varValue
	}
	return mean(tail)
}

// parametricCVaR assumes normally-distributed returns and uses the
// closed-form Gaussian tail expectation: mean - std * phi(z) / alpha.
func (r *Risk) parametricCVaR(returns []float64) float64 {
	m, std := meanStd(returns)
	alpha := 1 - r.confidenceLevel
	z := normalQuantile(alpha)
	phiZ := normalPDF(z)
	return m - std*(phiZ/alpha)
}

// monteCarloCVaR draws monteCarloSamples from a normal distribution fit to
// returns, using a fixed seed for reproducibility, then applies the
// historical estimator to the simulated sample.
func (r *Risk) monteCarloCVaR(returns []float64) float64 {
	m, std := meanStd(returns)
	rng := rand.New(rand.NewSource(monteCarloSeed))

	samples := make([]float64, monteCarloSamples)
	for i := range samples {
		samples[i] = m + std*rng.NormFloat64()
	}
	return r.historicalCVaR(samples)
}

// MaxDrawdown returns the largest peak-to-trough decline in a cumulative
// wealth series built from returns, expressed as a negative fraction.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	cum := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, ret := range returns {
		cum *= 1 + ret
		if cum > peak {
			peak = cum
		}
		dd := (cum - peak) / peak
		if dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// SharpeRatio annualizes daily excess returns over riskFreeRate using a
// 252-trading-day convention.
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	dailyRF := riskFreeRate / AnnualizationFactor
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r - dailyRF
	}
	m, std := meanStd(excess)
	if std == 0 {
		return 0
	}
	return (m / std) * math.Sqrt(AnnualizationFactor)
}

// FactorRegressionResult is the OLS fit of an asset's returns against one
// or more factor return series.
type FactorRegressionResult struct {
	Alpha        float64
	Betas        []float64
	RSquared     float64
	Observations int
}

// FactorRegression regresses assetReturns on factorReturns (each a
// parallel slice of the same length as assetReturns, one per factor) via
// ordinary least squares with an intercept, requiring at least
// minFactorRegressionObservations observations.
func FactorRegression(assetReturns []float64, factorReturns [][]float64) (FactorRegressionResult, error) {
	n := len(assetReturns)
	if n < minFactorRegressionObservations {
		return FactorRegressionResult{}, apperr.DataInsufficient(
			"factor regression requires at least %d observations, got %d", minFactorRegressionObservations, n)
	}
	for _, f := range factorReturns {
		if len(f) != n {
			return FactorRegressionResult{}, apperr.Internal("factor series length mismatch", nil)
		}
	}

	k := len(factorReturns)
	// Design matrix with an intercept column of ones.
	design := mat.NewDense(n, k+1, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1.0)
		for j := 0; j < k; j++ {
			design.Set(i, j+1, factorReturns[j][i])
		}
	}
	y := mat.NewVecDense(n, assetReturns)

	var qr mat.QR
	qr.Factorize(design)

	var coeffs mat.VecDense
	if err := qr.SolveVecTo(&coeffs, false, y); err != nil {
		return FactorRegressionResult{}, apperr.Internal("factor regression solve failed", err)
	}

	betas := make([]float64, k)
	for j := 0; j < k; j++ {
		betas[j] = coeffs.AtVec(j + 1)
	}

	var fitted mat.VecDense
	fitted.MulVec(design, &coeffs)

	residSS, totalSS := 0.0, 0.0
	yMean := mean(assetReturns)
	for i := 0; i < n; i++ {
		resid := assetReturns[i] - fitted.AtVec(i)
		residSS += resid * resid
		totalSS += (assetReturns[i] - yMean) * (assetReturns[i] - yMean)
	}
	rSquared := 0.0
	if totalSS > 0 {
		rSquared = 1 - residSS/totalSS
	}

	return FactorRegressionResult{
		Alpha:        coeffs.AtVec(0),
		Betas:        betas,
		RSquared:     rSquared,
		Observations: n,
	}, nil
}

func mean(xs []float64) float64 {
	return stat.Mean(xs, nil)
}

func meanStd(xs []float64) (float64, float64) {
	m, std := stat.MeanStdDev(xs, nil)
	return m, std
}

// normalPDF is the standard normal probability density function.
func normalPDF(z float64) float64 {
	return math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
}

// normalQuantile approximates the inverse standard normal CDF (the
// Acklam algorithm), used to find the z-score for a given tail
// probability without pulling in a dedicated stats distribution package
// for a single closed-form lookup.
func normalQuantile(p float64) float64 {
	if p <= 0 {
		p = 1e-10
	}
	if p >= 1 {
		p = 1 - 1e-10
	}

	// Rational approximation for lower region.
	a := []float64{-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00}
	b := []float64{-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01}
	c := []float64{-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00}
	d := []float64{7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00}

	const pLow = 0.02425
	switch {
	case p < pLow:
		q := math.Sqrt(-2 * math.Log(p))
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	case p <= 1-pLow:
		q := p - 0.5
		r := q * q
		return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
			(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
	default:
		q := math.Sqrt(-2 * math.Log(1-p))
		return -(((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}
}

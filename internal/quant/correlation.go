// Package quant implements the platform's quantitative engines: pairwise
// correlation, mean-variance optimization, and risk analytics (CVaR,
// drawdown, Sharpe, factor regression).
package quant

import (
	"context"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/nuniesmith/fks-portfolio-go/internal/apperr"
	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata"
)

// minObservationsForCorrelation mirrors the original implementation's
// practical floor on how many aligned daily returns are needed before a
// correlation estimate is trusted.
const minObservationsForCorrelation = 20

// SeriesSource fetches the historical close-price series a Correlation
// engine needs. marketdata.Router satisfies this.
type SeriesSource interface {
	HistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]marketdata.PricePoint, error)
}

// Correlation computes pairwise and matrix correlations over aligned daily
// returns. Grounded on optimization/correlation.py's CorrelationAnalyzer.
type Correlation struct {
	source SeriesSource
}

// NewCorrelation builds a Correlation engine over source.
func NewCorrelation(source SeriesSource) *Correlation {
	return &Correlation{source: source}
}

// alignedReturns fetches daily closes for symbols over [start, end],
// intersects them onto dates present for every symbol (tz-naive, already
// guaranteed by marketdata.PricePoint.Date), and returns the simple daily
// return series per symbol, in the same symbol order as requested.
func (c *Correlation) alignedReturns(ctx context.Context, symbols []string, start, end time.Time) ([][]float64, error) {
	closesBySymbol := make(map[string]map[string]float64, len(symbols))
	var commonDates map[string]bool

	for _, sym := range symbols {
		points, err := c.source.HistoricalPrices(ctx, sym, start, end)
		if err != nil {
			return nil, apperr.UpstreamUnavailable("fetch history for "+sym, err)
		}
		byDate := make(map[string]float64, len(points))
		dateSet := make(map[string]bool, len(points))
		for _, p := range points {
			key := p.Date.Format("2006-01-02")
			byDate[key] = p.Close
			dateSet[key] = true
		}
		closesBySymbol[sym] = byDate

		if commonDates == nil {
			commonDates = dateSet
		} else {
			for d := range commonDates {
				if !dateSet[d] {
					delete(commonDates, d)
				}
			}
		}
	}

	var sortedDates []string
	for d := range commonDates {
		sortedDates = append(sortedDates, d)
	}
	sort.Strings(sortedDates)

	if len(sortedDates) < minObservationsForCorrelation+1 {
		return nil, apperr.DataInsufficient(
			"only %d aligned observations across %d symbols, need at least %d",
			len(sortedDates), len(symbols), minObservationsForCorrelation+1)
	}

	out := make([][]float64, len(symbols))
	for i, sym := range symbols {
		closes := make([]float64, len(sortedDates))
		for j, d := range sortedDates {
			closes[j] = closesBySymbol[sym][d]
		}
		out[i] = pctChange(closes)
	}
	return out, nil
}

// Matrix computes the Pearson correlation matrix for symbols over
// [start, end], returned as a map-of-maps keyed by symbol for direct JSON
// serialization.
func (c *Correlation) Matrix(ctx context.Context, symbols []string, start, end time.Time) (map[string]map[string]float64, error) {
	returns, err := c.alignedReturns(ctx, symbols, start, end)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]float64, len(symbols))
	for i, si := range symbols {
		out[si] = make(map[string]float64, len(symbols))
		for j, sj := range symbols {
			if i == j {
				out[si][sj] = 1.0
				continue
			}
			out[si][sj] = stat.Correlation(returns[i], returns[j], nil)
		}
	}
	return out, nil
}

// BTCCorrelations computes each symbol's correlation against BTC, a
// convenience shape that the allocation/diversification API exposes
// directly rather than requiring callers to pick a row out of Matrix.
func (c *Correlation) BTCCorrelations(ctx context.Context, symbols []string, start, end time.Time) (map[string]float64, error) {
	all := append([]string{"BTC"}, symbols...)
	matrix, err := c.Matrix(ctx, all, start, end)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		out[s] = matrix["BTC"][s]
	}
	return out, nil
}

// LowCorrelationAssets returns the subset of symbols whose correlation
// against BTC is at or below threshold, useful for surfacing
// diversification candidates.
func (c *Correlation) LowCorrelationAssets(ctx context.Context, symbols []string, start, end time.Time, threshold float64) ([]string, error) {
	corrs, err := c.BTCCorrelations(ctx, symbols, start, end)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, s := range symbols {
		if corrs[s] <= threshold {
			out = append(out, s)
		}
	}
	return out, nil
}

// DiversificationScore averages the off-diagonal (upper-triangle) entries
// of the correlation matrix: lower is more diversified. Mirrors
// get_diversification_metrics' upper-triangle-mask average.
func (c *Correlation) DiversificationScore(ctx context.Context, symbols []string, start, end time.Time) (float64, error) {
	matrix, err := c.Matrix(ctx, symbols, start, end)
	if err != nil {
		return 0, err
	}

	var sum float64
	var count int
	for i, si := range symbols {
		for j := i + 1; j < len(symbols); j++ {
			sum += matrix[si][symbols[j]]
			count++
		}
	}
	if count == 0 {
		return 0, apperr.DataInsufficient("need at least 2 symbols to compute diversification")
	}
	return sum / float64(count), nil
}

// DiversifiedSelection greedily builds a target-size subset of candidates
// that minimizes mutual correlation: seed with the candidate least
// correlated to BTC, then repeatedly add whichever remaining candidate has
// the lowest mean correlation against everything already selected, until
// targetSize symbols are chosen (or candidates is exhausted). Grounded on
// optimization_for_diversification's seed-then-greedy-add mechanics, but
// computes the full correlation matrix once upfront rather than
// recomputing it per candidate per iteration.
func (c *Correlation) DiversifiedSelection(ctx context.Context, candidates []string, start, end time.Time, targetSize int) ([]string, error) {
	if targetSize <= 0 || targetSize > len(candidates) {
		targetSize = len(candidates)
	}

	all := append([]string{"BTC"}, candidates...)
	matrix, err := c.Matrix(ctx, all, start, end)
	if err != nil {
		return nil, err
	}

	remaining := make(map[string]bool, len(candidates))
	for _, s := range candidates {
		remaining[s] = true
	}

	seed := candidates[0]
	lowestBTCCorr := matrix["BTC"][seed]
	for _, s := range candidates[1:] {
		if matrix["BTC"][s] < lowestBTCCorr {
			lowestBTCCorr = matrix["BTC"][s]
			seed = s
		}
	}

	selected := []string{seed}
	delete(remaining, seed)

	for len(selected) < targetSize && len(remaining) > 0 {
		var best string
		var bestMean float64
		first := true
		for candidate := range remaining {
			var sum float64
			for _, s := range selected {
				sum += matrix[candidate][s]
			}
			mean := sum / float64(len(selected))
			if first || mean < bestMean {
				best, bestMean, first = candidate, mean, false
			}
		}
		selected = append(selected, best)
		delete(remaining, best)
	}

	return selected, nil
}

// pctChange returns the simple period-over-period returns of closes,
// one element shorter than its input.
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

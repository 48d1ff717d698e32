package marketdata

import (
	"context"
	"time"

	"github.com/nuniesmith/fks-portfolio-go/internal/apperr"
)

// BTCConverter expresses arbitrary asset quantities in BTC terms, the
// platform's numeraire for cross-asset comparison. Grounded on
// data/btc_converter.py's BTCConverter (get_btc_price/to_btc/from_btc/
// get_btc_allocation/get_btc_denominated_returns).
type BTCConverter struct {
	router *Router
}

// NewBTCConverter builds a converter over router, which it uses to source
// both BTC/USD and asset/USD prices (cached per Router.CurrentPrice's usual
// TTL).
func NewBTCConverter(router *Router) *BTCConverter {
	return &BTCConverter{router: router}
}

// btcPrice fetches the current BTC/USD price.
func (c *BTCConverter) btcPrice(ctx context.Context) (float64, error) {
	q, err := c.router.CurrentPrice(ctx, "BTC")
	if err != nil {
		return 0, apperr.UpstreamUnavailable("fetch BTC/USD price", err)
	}
	return q.Price, nil
}

// assetPrice fetches the current USD price of symbol.
func (c *BTCConverter) assetPrice(ctx context.Context, symbol string) (float64, error) {
	q, err := c.router.CurrentPrice(ctx, symbol)
	if err != nil {
		return 0, apperr.UpstreamUnavailable("fetch "+symbol+"/USD price", err)
	}
	return q.Price, nil
}

// ToBTC converts a quantity of assetSymbol into BTC: quantity * price(asset)
// / price(BTC). BTC itself passes through unchanged.
func (c *BTCConverter) ToBTC(ctx context.Context, assetSymbol string, quantity float64) (float64, error) {
	if assetSymbol == "BTC" {
		return quantity, nil
	}
	assetUSD, err := c.assetPrice(ctx, assetSymbol)
	if err != nil {
		return 0, err
	}
	btcUSD, err := c.btcPrice(ctx)
	if err != nil {
		return 0, err
	}
	if btcUSD <= 0 {
		return 0, apperr.Internal("non-positive BTC price", nil)
	}
	return quantity * assetUSD / btcUSD, nil
}

// FromBTC converts a BTC amount into a quantity of targetSymbol:
// btcAmount * price(BTC) / price(target). BTC itself passes through
// unchanged.
func (c *BTCConverter) FromBTC(ctx context.Context, btcAmount float64, targetSymbol string) (float64, error) {
	if targetSymbol == "BTC" {
		return btcAmount, nil
	}
	btcUSD, err := c.btcPrice(ctx)
	if err != nil {
		return 0, err
	}
	targetUSD, err := c.assetPrice(ctx, targetSymbol)
	if err != nil {
		return 0, err
	}
	if targetUSD <= 0 {
		return 0, apperr.Internal("non-positive "+targetSymbol+" price", nil)
	}
	return btcAmount * btcUSD / targetUSD, nil
}

// Holding is a single asset position, expressed as a raw quantity (not a
// pre-computed USD value) - the unit to_btc/from_btc operate on.
type Holding struct {
	Symbol   string  `json:"symbol"`
	Quantity float64 `json:"quantity"`
}

// ConvertPortfolio converts every holding's quantity to BTC and returns
// both the per-holding breakdown and the portfolio total, in BTC. Grounded
// on convert_portfolio_to_btc/calculate_portfolio_value_btc.
func (c *BTCConverter) ConvertPortfolio(ctx context.Context, holdings []Holding) (map[string]float64, float64, error) {
	out := make(map[string]float64, len(holdings))
	var total float64
	for _, h := range holdings {
		btc, err := c.ToBTC(ctx, h.Symbol, h.Quantity)
		if err != nil {
			return nil, 0, err
		}
		out[h.Symbol] = btc
		total += btc
	}
	return out, total, nil
}

// BTCAllocation reports what fraction of holdings' total BTC-denominated
// value is itself held as BTC. Grounded on get_btc_allocation; returns 0
// rather than dividing by zero when the portfolio's total BTC value is 0.
func (c *BTCConverter) BTCAllocation(ctx context.Context, holdings []Holding) (float64, error) {
	byAsset, total, err := c.ConvertPortfolio(ctx, holdings)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	return byAsset["BTC"] / total, nil
}

// AssetReturnsInBTC returns symbol's daily returns denominated in BTC
// rather than USD: align symbol's and BTC's daily closes by date, divide
// symbol_close/btc_close, then take the day-over-day percentage change
// (dropping the first, undefined return). Grounded on
// get_btc_denominated_returns.
func (c *BTCConverter) AssetReturnsInBTC(ctx context.Context, symbol string, start, end time.Time) ([]float64, error) {
	assetBars, err := c.router.HistoricalPrices(ctx, symbol, start, end)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("fetch history for "+symbol, err)
	}
	btcBars, err := c.router.HistoricalPrices(ctx, "BTC", start, end)
	if err != nil {
		return nil, apperr.UpstreamUnavailable("fetch BTC history", err)
	}

	btcByDate := make(map[time.Time]float64, len(btcBars))
	for _, b := range btcBars {
		btcByDate[normalizeDate(b.Date)] = b.Close
	}

	var btcDenominated []float64
	for _, a := range assetBars {
		btcClose, ok := btcByDate[normalizeDate(a.Date)]
		if !ok || btcClose == 0 {
			continue
		}
		btcDenominated = append(btcDenominated, a.Close/btcClose)
	}

	if len(btcDenominated) < 2 {
		return nil, apperr.DataInsufficient("need at least 2 aligned bars to compute returns for %s, got %d", symbol, len(btcDenominated))
	}

	returns := make([]float64, 0, len(btcDenominated)-1)
	for i := 1; i < len(btcDenominated); i++ {
		prev := btcDenominated[i-1]
		if prev == 0 {
			continue
		}
		returns = append(returns, (btcDenominated[i]-prev)/prev)
	}
	return returns, nil
}

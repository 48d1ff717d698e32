package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"gonum.org/v1/gonum/mat"

	"github.com/nuniesmith/fks-portfolio-go/internal/allocation"
	"github.com/nuniesmith/fks-portfolio-go/internal/apperr"
	"github.com/nuniesmith/fks-portfolio-go/internal/backtest"
	"github.com/nuniesmith/fks-portfolio-go/internal/guidance"
	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata"
	"github.com/nuniesmith/fks-portfolio-go/internal/quant"
	"github.com/nuniesmith/fks-portfolio-go/internal/signals"
)

// defaultPortfolioValueUSD is the sample account size used to size lots
// and plan entries when a caller doesn't supply its own portfolio value,
// matching SignalLotSizeCalculator's account_balance_usd default.
const defaultPortfolioValueUSD = 10000.0

type handlers struct {
	cfg Config
}

func (h *handlers) registerRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Get("/ready", h.ready)

	r.Route("/api/assets", func(r chi.Router) {
		r.Get("/prices", h.assetPrices)
		r.Get("/enabled", h.enabledAssets)
		r.Post("/collect", h.collectNow)
	})

	r.Get("/api/correlation/btc", h.correlationBTC)
	r.Get("/api/correlation/matrix", h.correlationMatrix)
	r.Get("/api/diversification/score", h.diversificationScore)
	r.Get("/api/rebalancing/plan", h.rebalancingPlan)

	r.Post("/api/optimization/optimize", h.optimize)
	r.Post("/api/risk/cvar", h.riskCVaR)

	r.Get("/api/signals/generate", h.generateSignals)
	r.Get("/api/signals/from-files", h.signalsFromFiles)

	r.Get("/api/guidance/recommendations", h.guidanceRecommendations)
	r.Get("/api/guidance/workflow", h.guidanceWorkflow)
	r.Post("/api/guidance/log", h.guidanceLog)

	r.Get("/api/ai/compare", h.aiCompare)

	r.Route("/api/v1/allocation", func(r chi.Router) {
		r.Post("/calculate", h.allocationCalculate)
	})
	r.Get("/api/portfolio/value", h.portfolioValue)
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	out := map[string]interface{}{"status": "ok"}

	if pct, err := cpu.PercentWithContext(r.Context(), 0, false); err == nil && len(pct) > 0 {
		out["cpu_percent"] = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(r.Context()); err == nil {
		out["memory_used_percent"] = vm.UsedPercent
	}
	if h.cfg.Collector != nil {
		out["collection_status"] = h.cfg.Collector.Status()
	}

	writeJSON(w, out)
}

func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.DB.QuickCheck(r.Context()); err != nil {
		writeError(w, apperr.UpstreamUnavailable("database not ready", err))
		return
	}
	writeJSON(w, map[string]string{"status": "ready"})
}

// assetPriceEntry is one symbol's current quote expressed in both USD and
// BTC terms, plus an optional 24h change when recent history is available.
type assetPriceEntry struct {
	Symbol    string   `json:"symbol"`
	PriceUSD  float64  `json:"price_usd"`
	PriceBTC  *float64 `json:"price_btc,omitempty"`
	Change24h *float64 `json:"change_24h,omitempty"`
}

// assetPrices serves current USD/BTC prices for the requested symbols
// (default: every enabled asset), mirroring routes.py's get_asset_prices.
func (h *handlers) assetPrices(w http.ResponseWriter, r *http.Request) {
	symbols := parseSymbols(r)
	if len(symbols) == 0 {
		for _, a := range h.cfg.Assets.EnabledAssets(0) {
			symbols = append(symbols, a.Symbol)
		}
	}

	btcQuote, btcErr := h.cfg.Router.CurrentPrice(r.Context(), "BTC")

	results := make([]assetPriceEntry, 0, len(symbols))
	for _, sym := range symbols {
		quote, err := h.cfg.Router.CurrentPrice(r.Context(), sym)
		if err != nil {
			h.cfg.Log.Warn().Err(err).Str("symbol", sym).Msg("skipping price for symbol")
			continue
		}
		entry := assetPriceEntry{Symbol: sym, PriceUSD: quote.Price}
		if btcErr == nil && btcQuote.Price > 0 {
			btcPrice := quote.Price / btcQuote.Price
			entry.PriceBTC = &btcPrice
		}
		if change, ok := h.change24h(r, sym); ok {
			entry.Change24h = &change
		}
		results = append(results, entry)
	}
	writeJSON(w, results)
}

// change24h best-effort computes a symbol's percentage move over its last
// two available daily bars, returning ok=false when there isn't enough
// history to compute one.
func (h *handlers) change24h(r *http.Request, symbol string) (float64, bool) {
	end := time.Now()
	points, err := h.cfg.Router.HistoricalPrices(r.Context(), symbol, end.AddDate(0, 0, -5), end)
	if err != nil || len(points) < 2 {
		return 0, false
	}
	prev := points[len(points)-2].Close
	last := points[len(points)-1].Close
	if prev == 0 {
		return 0, false
	}
	return (last - prev) / prev * 100, true
}

func (h *handlers) enabledAssets(w http.ResponseWriter, r *http.Request) {
	priority := 0
	if v := r.URL.Query().Get("priority"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			priority = p
		}
	}
	writeJSON(w, map[string]interface{}{"assets": h.cfg.Assets.EnabledAssets(priority)})
}

func (h *handlers) collectNow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Symbols []string `json:"symbols"`
	}
	_ = decodeBody(r, &body)

	statuses := h.cfg.Collector.CollectNow(body.Symbols)
	writeJSON(w, statuses)
}

func (h *handlers) correlationBTC(w http.ResponseWriter, r *http.Request) {
	symbols := parseSymbols(r)
	if len(symbols) == 0 {
		writeError(w, apperr.Validation("symbols query parameter is required"))
		return
	}
	start, end := lookbackRange(r, 90)

	corrs, err := h.cfg.Correlation.BTCCorrelations(r.Context(), symbols, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, corrs)
}

func (h *handlers) correlationMatrix(w http.ResponseWriter, r *http.Request) {
	symbols := parseSymbols(r)
	if len(symbols) < 2 {
		writeError(w, apperr.Validation("at least 2 symbols are required"))
		return
	}
	start, end := lookbackRange(r, 90)

	matrix, err := h.cfg.Correlation.Matrix(r.Context(), symbols, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]interface{}{"matrix": matrix, "symbols": symbols})
}

// diversificationScore mirrors routes.py's get_diversification_score shape
// (score/is_diversified/suggestions/symbols) using the platform's own
// correlation engine rather than a ported AssetCategorizer - see
// DESIGN.md.
func (h *handlers) diversificationScore(w http.ResponseWriter, r *http.Request) {
	symbols := parseSymbols(r)
	if len(symbols) < 2 {
		writeError(w, apperr.Validation("at least 2 symbols are required"))
		return
	}
	start, end := lookbackRange(r, 180)

	score, err := h.cfg.Correlation.DiversificationScore(r.Context(), symbols, start, end)
	if err != nil {
		writeError(w, err)
		return
	}

	const diversifiedThreshold = 0.5
	isDiversified := score < diversifiedThreshold

	var suggestions []string
	if !isDiversified {
		candidates := make([]string, 0)
		have := make(map[string]bool, len(symbols))
		for _, s := range symbols {
			have[s] = true
		}
		for _, a := range h.cfg.Assets.EnabledAssets(0) {
			if !have[a.Symbol] {
				candidates = append(candidates, a.Symbol)
			}
		}
		if len(candidates) > 0 {
			if low, err := h.cfg.Correlation.LowCorrelationAssets(r.Context(), candidates, start, end, 0.3); err == nil {
				suggestions = low
			}
		}
	}

	writeJSON(w, map[string]interface{}{
		"score":          score,
		"is_diversified": isDiversified,
		"suggestions":    suggestions,
		"symbols":        symbols,
	})
}

// rebalancingPlan mirrors routes.py's get_rebalancing_plan: allocations is
// a JSON object of symbol -> current amount, target_btc_pct defaults to
// 0.5.
func (h *handlers) rebalancingPlan(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("allocations")
	if raw == "" {
		writeError(w, apperr.Validation("allocations query parameter is required"))
		return
	}
	var allocations map[string]float64
	if err := json.Unmarshal([]byte(raw), &allocations); err != nil {
		writeError(w, apperr.Validation("invalid allocations JSON: %v", err))
		return
	}

	targetBTCPct := 0.5
	if v := r.URL.Query().Get("target_btc_pct"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			targetBTCPct = parsed
		}
	}

	plan := marketdata.RebalanceToBTCTarget(allocations, targetBTCPct)
	writeJSON(w, plan)
}

type optimizeRequest struct {
	Symbols        []string    `json:"symbols"`
	ExpectedReturn []float64   `json:"expected_return"`
	Covariance     [][]float64 `json:"covariance"`
	Strategy       string      `json:"strategy"`
	TargetReturn   float64     `json:"target_return"`
	TargetRisk     float64     `json:"target_risk"`
}

func (h *handlers) optimize(w http.ResponseWriter, r *http.Request) {
	var body optimizeRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	cov, err := denseFromRows(body.Covariance)
	if err != nil {
		writeError(w, apperr.Validation("invalid covariance matrix: %v", err))
		return
	}

	result, err := h.cfg.Optimizer.Optimize(r.Context(), quant.OptimizationRequest{
		Symbols:        body.Symbols,
		ExpectedReturn: body.ExpectedReturn,
		Covariance:     cov,
		Strategy:       quant.Strategy(body.Strategy),
		TargetReturn:   body.TargetReturn,
		TargetRisk:     body.TargetRisk,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, result)
}

type cvarRequest struct {
	Returns         []float64 `json:"returns"`
	Method          string    `json:"method"`
	ConfidenceLevel float64   `json:"confidence_level"`
}

func (h *handlers) riskCVaR(w http.ResponseWriter, r *http.Request) {
	var body cvarRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	confidence := body.ConfidenceLevel
	if confidence == 0 {
		confidence = 0.95
	}
	risk := quant.NewRisk(confidence)

	method := quant.CVaRMethod(body.Method)
	if method == "" {
		method = quant.CVaRHistorical
	}

	cvar, err := risk.CVaR(body.Returns, method)
	if err != nil {
		writeError(w, err)
		return
	}
	vAr, err := risk.VaR(body.Returns, method)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"cvar":         cvar,
		"var":          vAr,
		"max_drawdown": quant.MaxDrawdown(body.Returns),
		"sharpe_ratio": quant.SharpeRatio(body.Returns, 0.02),
		"method":       method,
	})
}

// symbolsOrEnabled returns symbols if non-empty, otherwise every enabled
// asset's symbol, matching the category handlers' "default to enabled
// assets" convention.
func (h *handlers) symbolsOrEnabled(symbols []string) []string {
	if len(symbols) > 0 {
		return symbols
	}
	out := make([]string, 0)
	for _, a := range h.cfg.Assets.EnabledAssets(0) {
		out = append(out, a.Symbol)
	}
	return out
}

func categoryOrDefault(raw string) signals.Category {
	switch signals.Category(strings.ToLower(raw)) {
	case signals.CategoryScalp:
		return signals.CategoryScalp
	case signals.CategoryIntraday:
		return signals.CategoryIntraday
	case signals.CategoryLongTerm:
		return signals.CategoryLongTerm
	default:
		return signals.CategorySwing
	}
}

// generateSignals mirrors signal_routes.py's GET /generate: a batch
// generation over symbols (default: enabled assets) in category,
// returning every valid signal.
func (h *handlers) generateSignals(w http.ResponseWriter, r *http.Request) {
	category := categoryOrDefault(r.URL.Query().Get("category"))
	symbols := h.symbolsOrEnabled(parseSymbols(r))

	sigs := h.cfg.SignalEngine.GenerateForPortfolio(r.Context(), symbols, category, 30)

	if h.cfg.SignalStore != nil && len(sigs) > 0 {
		batch := make([]signals.TradingSignal, len(sigs))
		for i, s := range sigs {
			batch[i] = *s
		}
		if err := h.cfg.SignalStore.SaveBatch(r.Context(), batch); err != nil {
			h.cfg.Log.Warn().Err(err).Msg("failed to persist generated signal batch")
		}
	}

	writeJSON(w, map[string]interface{}{
		"signals":  sigs,
		"count":    len(sigs),
		"category": category,
	})
}

// signalsFromFiles mirrors signal_routes.py's GET /from-files: reads the
// day's per-category signal files (filtered by category/symbol), enriching
// each with a lot size and entry plan when include_lot_size is set
// (default true).
func (h *handlers) signalsFromFiles(w http.ResponseWriter, r *http.Request) {
	if h.cfg.SignalStore == nil {
		writeError(w, apperr.Internal("signal store not configured", nil))
		return
	}

	date := r.URL.Query().Get("date")
	category := signals.Category(r.URL.Query().Get("category"))
	symbol := r.URL.Query().Get("symbol")
	includeLotSize := true
	if v := r.URL.Query().Get("include_lot_size"); v != "" {
		includeLotSize, _ = strconv.ParseBool(v)
	}

	result, err := h.cfg.SignalStore.LoadFromFiles(date, category, symbol)
	if err != nil {
		writeError(w, apperr.Internal("failed to load signals", err))
		return
	}

	type plannedSignal struct {
		signals.TradingSignal
		LotSize  float64   `json:"lot_size"`
		EntryDate time.Time `json:"entry_planning_date"`
	}

	enriched := make(map[string]interface{}, len(result.Signals))
	for cat, sigs := range result.Signals {
		if !includeLotSize {
			enriched[cat] = sigs
			continue
		}
		planned := make([]plannedSignal, len(sigs))
		for i, sig := range sigs {
			plan := signals.PlanEntry(sig, defaultPortfolioValueUSD, marketdata.IsCrypto(sig.Symbol))
			planned[i] = plannedSignal{TradingSignal: sig, LotSize: plan.Quantity, EntryDate: plan.EntryDate}
		}
		enriched[cat] = planned
	}

	writeJSON(w, map[string]interface{}{
		"date":             result.Date,
		"signals":          enriched,
		"summary":          result.Summary,
		"performance":      result.Performance,
		"lot_size_enabled": includeLotSize,
	})
}

// guidanceRecommendations mirrors guidance_routes.py's GET /recommendations:
// generate signals for category/symbols, then analyze each into a decision
// recommendation.
func (h *handlers) guidanceRecommendations(w http.ResponseWriter, r *http.Request) {
	category := categoryOrDefault(r.URL.Query().Get("category"))
	symbols := h.symbolsOrEnabled(parseSymbols(r))

	sigs := h.cfg.SignalEngine.GenerateForPortfolio(r.Context(), symbols, category, 30)
	flat := make([]signals.TradingSignal, len(sigs))
	for i, s := range sigs {
		flat[i] = *s
	}

	recs := h.cfg.Guidance.AnalyzePortfolio(flat, func(string) guidance.TradingContext { return guidance.TradingContext{} })
	writeJSON(w, map[string]interface{}{"recommendations": recs, "count": len(recs)})
}

// guidanceWorkflow mirrors guidance_routes.py's GET /workflow: generate a
// signal for a single symbol, 422 if none fires, then build its manual
// execution checklist.
func (h *handlers) guidanceWorkflow(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, apperr.Validation("symbol is required"))
		return
	}
	category := categoryOrDefault(r.URL.Query().Get("category"))

	signal, err := h.cfg.SignalEngine.Generate(r.Context(), symbol, category, 30)
	if err != nil {
		writeError(w, err)
		return
	}
	if signal == nil {
		writeError(w, apperr.DataInsufficient("no actionable signal for %s", symbol))
		return
	}

	rec := h.cfg.Guidance.Analyze(*signal, guidance.TradingContext{})
	steps := guidance.ExecutionWorkflow(*signal, rec)
	summary := guidance.SummarizeWorkflow(steps)

	writeJSON(w, map[string]interface{}{
		"symbol":         symbol,
		"signal":         signal,
		"recommendation": rec,
		"workflow":       steps,
		"summary":        summary,
	})
}

func (h *handlers) guidanceLog(w http.ResponseWriter, r *http.Request) {
	var rec guidance.DecisionRecommendation
	if err := decodeBody(r, &rec); err != nil {
		writeError(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		writeError(w, apperr.Internal("failed to marshal decision", err))
		return
	}
	rationale, _ := json.Marshal(rec.Rationale)

	id := uuid.NewString()
	_, err = h.cfg.DB.Exec(`
		INSERT INTO decision_logs (id, symbol, recommendation, confidence, risk_level, rationale, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, rec.Symbol, rec.Decision, rec.Confidence, rec.RiskLevel, string(rationale), string(payload))
	if err != nil {
		writeError(w, apperr.Internal("failed to persist decision log", err))
		return
	}

	writeJSON(w, map[string]string{"id": id, "status": "logged"})
}

// aiCompare mirrors ai_routes.py's GET /compare: generate a baseline
// signal batch, optionally fetch an AI-enhanced batch from the configured
// enrichment service, and return a genuine metrics comparison between the
// two rather than proxying a request through. See DESIGN.md for why the
// "enhanced" side degrades to a copy of baseline when no enrichment
// service is configured.
func (h *handlers) aiCompare(w http.ResponseWriter, r *http.Request) {
	category := categoryOrDefault(r.URL.Query().Get("category"))
	symbols := h.symbolsOrEnabled(parseSymbols(r))
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}

	baselineSigs := h.cfg.SignalEngine.GenerateForPortfolio(r.Context(), symbols, category, days)
	baseline := make([]signals.TradingSignal, len(baselineSigs))
	for i, s := range baselineSigs {
		baseline[i] = *s
	}

	enhanced, enhancedEnabled := baseline, false
	if h.cfg.Config.FKSAIBaseURL != "" {
		if fetched, err := h.fetchAIEnhancedSignals(r, category, symbols); err == nil {
			enhanced, enhancedEnabled = fetched, true
		} else {
			h.cfg.Log.Warn().Err(err).Msg("AI enrichment call failed, comparing baseline against itself")
		}
	}

	writeJSON(w, backtest.Compare(baseline, enhanced, enhancedEnabled))
}

// fetchAIEnhancedSignals calls the configured AI enrichment service's
// enhanced-signal endpoint, mirroring ai_routes.py's GET /signals/enhanced.
func (h *handlers) fetchAIEnhancedSignals(r *http.Request, category signals.Category, symbols []string) ([]signals.TradingSignal, error) {
	url := h.cfg.Config.FKSAIBaseURL + "/signals/enhanced?category=" + string(category) + "&symbols=" + strings.Join(symbols, ",")
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Signals []signals.TradingSignal `json:"signals"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body.Signals, nil
}

type allocationRequest struct {
	Holdings             []allocation.Holding `json:"holdings"`
	RebalancingThreshold float64              `json:"rebalancing_threshold"`
}

// allocationCalculate mirrors allocation_routes.py's POST
// /api/v1/allocation/calculate.
func (h *handlers) allocationCalculate(w http.ResponseWriter, r *http.Request) {
	var body allocationRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	report := h.cfg.Allocation.Calculate(body.Holdings)
	actions := h.cfg.Allocation.RebalancingActions(report)

	threshold := body.RebalancingThreshold
	if threshold == 0 {
		threshold = 5.0
	}

	writeJSON(w, map[string]interface{}{
		"portfolio_value":       report.PortfolioValue,
		"timestamp":             time.Now(),
		"asset_classes":         report.Classes,
		"total_drift":           report.TotalDrift,
		"needs_rebalancing":     report.NeedsRebalancing,
		"rebalancing_threshold": threshold,
		"rebalancing_actions":   actions,
	})
}

// defaultPortfolioValueAllocations is the sample portfolio used by
// portfolioValue when no allocations query parameter is supplied,
// mirroring routes.py's get_portfolio_value default sample.
var defaultPortfolioValueAllocations = map[string]float64{"BTC": 0.5, "ETH": 0.2, "SPY": 0.15}

// portfolioValue mirrors routes.py's GET /api/portfolio/value: allocations
// is an optional JSON object of symbol -> quantity, defaulting to a sample
// portfolio.
func (h *handlers) portfolioValue(w http.ResponseWriter, r *http.Request) {
	allocations := defaultPortfolioValueAllocations
	if raw := r.URL.Query().Get("allocations"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &allocations); err != nil {
			writeError(w, apperr.Validation("invalid allocations JSON: %v", err))
			return
		}
	}

	holdings := make([]marketdata.Holding, 0, len(allocations))
	for symbol, qty := range allocations {
		holdings = append(holdings, marketdata.Holding{Symbol: symbol, Quantity: qty})
	}

	perHolding, total, err := h.cfg.BTC.ConvertPortfolio(r.Context(), holdings)
	if err != nil {
		writeError(w, err)
		return
	}
	btcAllocation, err := h.cfg.BTC.BTCAllocation(r.Context(), holdings)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"holdings_btc":   perHolding,
		"total_btc":      total,
		"btc_allocation": btcAllocation,
		"timestamp":      time.Now(),
	})
}

// --- helpers ---

func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func parseSymbols(r *http.Request) []string {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// lookbackRange returns [now - lookback_days, now], reading lookback_days
// from the query string (falling back to defaultDays), replacing the
// old start/end date-range parameters these handlers used before.
func lookbackRange(r *http.Request, defaultDays int) (time.Time, time.Time) {
	days := defaultDays
	if v := r.URL.Query().Get("lookback_days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}
	end := time.Now()
	return end.AddDate(0, 0, -days), end
}

// denseFromRows builds a square gonum matrix from a JSON-decoded [][]float64,
// validating that every row has the same length as the matrix is wide.
func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	n := len(rows)
	if n == 0 {
		return nil, apperr.Validation("covariance matrix must not be empty")
	}
	flat := make([]float64, 0, n*n)
	for _, row := range rows {
		if len(row) != n {
			return nil, apperr.Validation("covariance matrix must be square")
		}
		flat = append(flat, row...)
	}
	return mat.NewDense(n, n, flat), nil
}

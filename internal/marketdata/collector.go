package marketdata

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Collector periodically refreshes historical prices for every enabled
// asset in the background. It runs its own loop in a goroutine (rather
// than on a fixed cron schedule) so it can sleep in 1-second increments and
// notice a Stop() request promptly, mirroring data/collector.py's
// threading.Thread + inner sleep-loop shutdown pattern.
type Collector struct {
	router  *Router
	assets  *AssetConfigManager
	log     zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	lastStatus map[string]CollectionStatus
}

// CollectionStatus reports the outcome of the most recent collection
// attempt for one symbol, surfaced via the health/status API.
type CollectionStatus struct {
	Symbol      string    `json:"symbol"`
	LastAttempt time.Time `json:"last_attempt"`
	Success     bool      `json:"success"`
	BarsWritten int       `json:"bars_written"`
	Err         string    `json:"error,omitempty"`
}

// NewCollector builds a Collector over router, reading the enabled-asset
// universe from assets.
func NewCollector(router *Router, assets *AssetConfigManager, log zerolog.Logger) *Collector {
	return &Collector{
		router:     router,
		assets:     assets,
		log:        log.With().Str("component", "collector").Logger(),
		lastStatus: make(map[string]CollectionStatus),
	}
}

// Start launches the background collection loop, refreshing every asset
// every intervalSeconds. Start is a no-op if the collector is already
// running.
func (c *Collector) Start(intervalSeconds int) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	c.mu.Unlock()

	go c.loop(time.Duration(intervalSeconds) * time.Second)
}

// Stop signals the collection loop to exit and blocks until it has,
// deferring to the loop's own 1-second-granularity poll so shutdown is
// bounded rather than waiting out a full collection interval.
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	close(c.stopCh)
	doneCh := c.doneCh
	c.running = false
	c.mu.Unlock()

	<-doneCh
}

func (c *Collector) loop(interval time.Duration) {
	defer close(c.doneCh)

	c.collectAll()

	elapsed := time.Duration(0)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			elapsed += time.Second
			if elapsed >= interval {
				elapsed = 0
				c.collectAll()
			}
		}
	}
}

// CollectNow triggers an immediate collection pass for symbols, or every
// enabled asset when symbols is empty. It runs synchronously so callers
// (e.g. the HTTP API) can report the outcome.
func (c *Collector) CollectNow(symbols []string) []CollectionStatus {
	var targets []*AssetConfig
	if len(symbols) == 0 {
		targets = c.assets.EnabledAssets(0)
	} else {
		wanted := make(map[string]bool, len(symbols))
		for _, s := range symbols {
			wanted[s] = true
		}
		for _, a := range c.assets.EnabledAssets(0) {
			if wanted[a.Symbol] {
				targets = append(targets, a)
			}
		}
	}

	var statuses []CollectionStatus
	for _, a := range targets {
		statuses = append(statuses, c.collectAsset(a))
	}
	return statuses
}

func (c *Collector) collectAll() {
	for _, a := range c.assets.EnabledAssets(0) {
		status := c.collectAsset(a)
		c.mu.Lock()
		c.lastStatus[a.Symbol] = status
		c.mu.Unlock()
	}
}

// collectAsset fetches the window since the asset's last successful
// collection (or the last year, on a cold start) and writes it to the
// store via the Router.
func (c *Collector) collectAsset(a *AssetConfig) CollectionStatus {
	now := time.Now()
	start := now.AddDate(-1, 0, 0)
	if a.LastCollected != nil {
		start = *a.LastCollected
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	points, err := c.router.HistoricalPricesWithPreference(ctx, a.Symbol, start, now, a.Adapters)
	status := CollectionStatus{Symbol: a.Symbol, LastAttempt: now}
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", a.Symbol).Msg("collection failed")
		status.Err = err.Error()
		return status
	}

	status.Success = true
	status.BarsWritten = len(points)
	if err := c.assets.UpdateLastCollected(a.Symbol, now); err != nil {
		c.log.Warn().Err(err).Str("symbol", a.Symbol).Msg("failed to record last_collected")
	}
	return status
}

// Status returns the most recent per-symbol collection outcomes.
func (c *Collector) Status() map[string]CollectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]CollectionStatus, len(c.lastStatus))
	for k, v := range c.lastStatus {
		out[k] = v
	}
	return out
}

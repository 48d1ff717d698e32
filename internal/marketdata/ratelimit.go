package marketdata

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// adapterLimiters keeps one token bucket per adapter name so each provider's
// documented request budget is enforced independently.
type adapterLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newAdapterLimiters() *adapterLimiters {
	return &adapterLimiters{limiters: make(map[string]*rate.Limiter)}
}

// register configures the token bucket for adapter, replacing any existing
// one. ratePerSecond may be fractional (e.g. 0.2 for one request per 5s).
func (a *adapterLimiters) register(adapter string, ratePerSecond float64, burst int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.limiters[adapter] = rate.NewLimiter(rate.Limit(ratePerSecond), burst)
}

// wait blocks until adapter's bucket has a token to spend, or ctx is done.
// Unregistered adapters are unthrottled.
func (a *adapterLimiters) wait(ctx context.Context, adapter string) error {
	a.mu.Lock()
	limiter, ok := a.limiters[adapter]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	return limiter.Wait(ctx)
}

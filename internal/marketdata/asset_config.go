package marketdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// AssetConfig describes how one symbol participates in collection:
// whether it's enabled, which adapters to prefer (in order), how often to
// refresh it, and its priority tier. Mirrors data/asset_config.py's
// AssetConfig dataclass.
type AssetConfig struct {
	Symbol             string     `json:"symbol"`
	Enabled            bool       `json:"enabled"`
	Adapters           []string   `json:"adapters"`
	CollectionInterval int        `json:"collection_interval"` // seconds
	LastCollected      *time.Time `json:"last_collected,omitempty"`
	Priority           int        `json:"priority"` // 1 = highest
}

// AssetConfigManager persists the enabled-asset universe as a JSON file,
// the way the original implementation keeps data/config/assets.json as the
// single source of truth for what the Collector watches.
type AssetConfigManager struct {
	mu       sync.RWMutex
	path     string
	assets   map[string]*AssetConfig
}

// NewAssetConfigManager loads (or creates, with a sensible default
// universe) the asset config file at path.
func NewAssetConfigManager(path string) (*AssetConfigManager, error) {
	m := &AssetConfigManager{path: path, assets: make(map[string]*AssetConfig)}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		m.assets = defaultAssetUniverse()
		if err := m.save(); err != nil {
			return nil, fmt.Errorf("write default asset config: %w", err)
		}
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read asset config: %w", err)
	}
	var list []*AssetConfig
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse asset config: %w", err)
	}
	for _, a := range list {
		m.assets[a.Symbol] = a
	}
	return m, nil
}

// defaultAssetUniverse seeds three priority tiers across equities, ETFs,
// and crypto, matching the shape of the original implementation's
// _create_default_config example set.
func defaultAssetUniverse() map[string]*AssetConfig {
	seed := []*AssetConfig{
		{Symbol: "AAPL", Adapters: []string{"alphavantage", "polygon", "yahoofinance"}, Priority: 1},
		{Symbol: "MSFT", Adapters: []string{"alphavantage", "polygon", "yahoofinance"}, Priority: 1},
		{Symbol: "SPY", Adapters: []string{"polygon", "alphavantage", "yahoofinance"}, Priority: 1},
		{Symbol: "BTC", Adapters: []string{"binance", "coingecko", "coinmarketcap"}, Priority: 1},
		{Symbol: "ETH", Adapters: []string{"binance", "coingecko", "coinmarketcap"}, Priority: 1},
		{Symbol: "GLD", Adapters: []string{"polygon", "yahoofinance"}, Priority: 2},
		{Symbol: "VTI", Adapters: []string{"polygon", "yahoofinance"}, Priority: 2},
		{Symbol: "SOL", Adapters: []string{"binance", "coingecko"}, Priority: 2},
		{Symbol: "TLT", Adapters: []string{"polygon", "yahoofinance"}, Priority: 3},
	}
	out := make(map[string]*AssetConfig, len(seed))
	for _, a := range seed {
		a.Enabled = true
		a.CollectionInterval = 3600
		out[a.Symbol] = a
	}
	return out
}

func (m *AssetConfigManager) save() error {
	list := make([]*AssetConfig, 0, len(m.assets))
	for _, a := range m.assets {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Symbol < list[j].Symbol })

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(m.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(m.path, data, 0o644)
}

// EnabledAssets returns enabled asset configs, optionally filtered to a
// single priority tier (0 means all tiers), sorted by (priority, symbol).
func (m *AssetConfigManager) EnabledAssets(priority int) []*AssetConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*AssetConfig
	for _, a := range m.assets {
		if !a.Enabled {
			continue
		}
		if priority != 0 && a.Priority != priority {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

// SetEnabled enables or disables symbol's collection, persisting the change.
func (m *AssetConfigManager) SetEnabled(symbol string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.assets[symbol]
	if !ok {
		return fmt.Errorf("unknown asset %s", symbol)
	}
	a.Enabled = enabled
	return m.save()
}

// UpdateLastCollected records when symbol was last successfully collected.
func (m *AssetConfigManager) UpdateLastCollected(symbol string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.assets[symbol]
	if !ok {
		return fmt.Errorf("unknown asset %s", symbol)
	}
	a.LastCollected = &at
	return m.save()
}

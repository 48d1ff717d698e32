package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nuniesmith/fks-portfolio-go/internal/database"
)

const dateLayout = "2006-01-02"

// Store is the durable time-series store for OHLCV bars, backed by the
// shared sqlite database. Writes are upserts keyed on (symbol, date,
// adapter), matching data/storage.py's UNIQUE constraint and INSERT OR
// REPLACE semantics.
type Store struct {
	db *database.DB
}

// NewStore wraps db for time-series access. Callers are responsible for
// having already run db.Migrate().
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// UpsertPrices writes points to the prices table, replacing any existing
// row for the same (symbol, date, adapter). All rows are written in one
// transaction: if any row fails, its error is returned and the whole batch
// is rolled back.
func (s *Store) UpsertPrices(points []PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	return database.WithTransaction(s.db.Conn(), func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO prices (symbol, date, open, high, low, close, volume, adapter)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(symbol, date, adapter) DO UPDATE SET
				open=excluded.open, high=excluded.high, low=excluded.low,
				close=excluded.close, volume=excluded.volume
		`)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			_, err := stmt.Exec(p.Symbol, normalizeDate(p.Date).Format(dateLayout),
				p.Open, p.High, p.Low, p.Close, p.Volume, p.Adapter)
			if err != nil {
				return fmt.Errorf("upsert price %s/%s: %w", p.Symbol, p.Date, err)
			}
		}
		return nil
	})
}

// PriceRange returns all bars for symbol with date in [start, end],
// sorted ascending by date. When multiple adapters have written the same
// date, the most recently inserted row wins (rowid DESC, de-duplicated in
// Go) rather than an arbitrary adapter ordering.
func (s *Store) PriceRange(symbol string, start, end time.Time) ([]PricePoint, error) {
	rows, err := s.db.Query(`
		SELECT date, open, high, low, close, volume, adapter
		FROM prices
		WHERE symbol = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, id DESC
	`, symbol, normalizeDate(start).Format(dateLayout), normalizeDate(end).Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query price range: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	var out []PricePoint
	for rows.Next() {
		var dateStr, adapter string
		var o, h, l, c, v float64
		if err := rows.Scan(&dateStr, &o, &h, &l, &c, &v, &adapter); err != nil {
			return nil, fmt.Errorf("scan price row: %w", err)
		}
		if seen[dateStr] {
			continue
		}
		seen[dateStr] = true
		d, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			continue
		}
		out = append(out, PricePoint{Symbol: symbol, Date: d, Open: o, High: h, Low: l, Close: c, Volume: v, Adapter: adapter})
	}
	return out, rows.Err()
}

// CoverageRatio reports the fraction of calendar days in [start, end] that
// have a stored bar, used by the Router's 80%-coverage heuristic to decide
// whether the store can serve a historical request without refetching.
func (s *Store) CoverageRatio(symbol string, start, end time.Time) (float64, error) {
	totalDays := int(normalizeDate(end).Sub(normalizeDate(start)).Hours()/24) + 1
	if totalDays <= 0 {
		return 0, nil
	}

	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(DISTINCT date) FROM prices
		WHERE symbol = ? AND date >= ? AND date <= ?
	`, symbol, normalizeDate(start).Format(dateLayout), normalizeDate(end).Format(dateLayout)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("query coverage: %w", err)
	}

	return float64(count) / float64(totalDays), nil
}

// LatestPrice returns the most recent stored bar's close for symbol.
func (s *Store) LatestPrice(symbol string) (PricePoint, bool, error) {
	row := s.db.QueryRow(`
		SELECT date, open, high, low, close, volume, adapter
		FROM prices WHERE symbol = ? ORDER BY date DESC LIMIT 1
	`, symbol)

	var dateStr, adapter string
	var o, h, l, c, v float64
	err := row.Scan(&dateStr, &o, &h, &l, &c, &v, &adapter)
	if err == sql.ErrNoRows {
		return PricePoint{}, false, nil
	}
	if err != nil {
		return PricePoint{}, false, fmt.Errorf("query latest price: %w", err)
	}
	d, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return PricePoint{}, false, fmt.Errorf("parse stored date: %w", err)
	}
	return PricePoint{Symbol: symbol, Date: d, Open: o, High: h, Low: l, Close: c, Volume: v, Adapter: adapter}, true, nil
}

// Symbols returns every distinct symbol with at least one stored bar.
func (s *Store) Symbols() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT symbol FROM prices ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

package signals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

func bytesReader(data []byte) io.Reader {
	return bytes.NewReader(data)
}

// lotSizeFallbackPct is the per-unit risk, as a fraction of the entry
// price, assumed when a signal's stop-loss equals its entry price (zero
// per-unit risk, so the usual risk-budget division would divide by zero).
const lotSizeFallbackPct = 0.01

// PlannedEntry is a signal enriched with a concrete lot size and the
// trading day it should be entered on.
type PlannedEntry struct {
	Signal    TradingSignal
	Quantity  float64
	EntryDate time.Time
}

// LotSize computes how many units of signal.Symbol to buy given
// portfolioValue and the signal's position-size risk budget: the budget
// divided by the per-unit risk (|entry - stop_loss|). When entry and
// stop-loss coincide, the per-unit risk falls back to lotSizeFallbackPct of
// the entry price. A zero entry price yields zero.
func LotSize(signal TradingSignal, portfolioValue float64) float64 {
	perUnitRisk := math.Abs(signal.EntryPrice - signal.StopLoss)
	riskBudget := portfolioValue * signal.PositionSizePct

	if signal.EntryPrice == 0 {
		return 0
	}
	if perUnitRisk == 0 {
		perUnitRisk = signal.EntryPrice * lotSizeFallbackPct
	}

	return riskBudget / perUnitRisk
}

// NextTradingDay rolls from as-of forward to the next weekday, since
// equity and ETF signals can't be entered over a weekend. Crypto symbols
// trade continuously, so callers should pass as-of through unchanged for
// those rather than calling this helper.
func NextTradingDay(asOf time.Time) time.Time {
	next := asOf
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// PlanEntry combines LotSize and NextTradingDay into a single planned
// entry for non-crypto symbols; crypto symbols enter immediately.
func PlanEntry(signal TradingSignal, portfolioValue float64, isCrypto bool) PlannedEntry {
	entryDate := signal.Timestamp
	if !isCrypto {
		entryDate = NextTradingDay(signal.Timestamp)
	}
	return PlannedEntry{
		Signal:    signal,
		Quantity:  LotSize(signal, portfolioValue),
		EntryDate: entryDate,
	}
}

// Store persists generated signals as per-category, per-day JSON files
// under a directory (SIGNALS_DIR) - signals_{category}_{YYYYMMDD}.json,
// each holding the full list of that day's signals for that category -
// alongside sibling daily_signals_summary_{date}.json and
// performance/performance_{date}.json artifacts. This is the durable
// archive that the /api/signals/from-files endpoint reads back; the
// guidance endpoints generate fresh signals per request. Grounded on the file layout
// consumed by api/signal_routes.py's get_signals_from_files.
type Store struct {
	dir        string
	s3Uploader *manager.Uploader
	s3Bucket   string
	log        zerolog.Logger
}

// NewStore builds a Store writing to dir. s3Client and s3Bucket are
// optional: when both are non-empty/non-nil, every write is additionally
// uploaded to S3 as an off-box backup of the signal archive.
func NewStore(dir string, s3Client *s3.Client, s3Bucket string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create signals directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "performance"), 0o755); err != nil {
		return nil, fmt.Errorf("create performance directory: %w", err)
	}
	s := &Store{dir: dir, s3Bucket: s3Bucket, log: log.With().Str("component", "signal_store").Logger()}
	if s3Client != nil && s3Bucket != "" {
		s.s3Uploader = manager.NewUploader(s3Client)
	}
	return s, nil
}

func (s *Store) categoryFile(category Category, date string) string {
	return filepath.Join(s.dir, fmt.Sprintf("signals_%s_%s.json", category, date))
}

func (s *Store) summaryFile(date string) string {
	return filepath.Join(s.dir, fmt.Sprintf("daily_signals_summary_%s.json", date))
}

func (s *Store) performanceFile(date string) string {
	return filepath.Join(s.dir, "performance", fmt.Sprintf("performance_%s.json", date))
}

// writeJSON marshals v and writes it to path, best-effort mirroring it to
// S3 under key when a backup target is configured.
func (s *Store) writeJSON(ctx context.Context, path, s3Key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}

	if s.s3Uploader != nil {
		_, err := s.s3Uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: &s.s3Bucket,
			Key:    &s3Key,
			Body:   bytesReader(data),
		})
		if err != nil {
			s.log.Warn().Err(err).Str("key", s3Key).Msg("failed to back up signal artifact to S3")
		}
	}
	return nil
}

// Save appends signal to its category/day file (signals_{category}_{date}
// .json), reading any signals already written for that day first so
// repeated Save calls accumulate a full daily batch rather than
// overwriting each other.
func (s *Store) Save(ctx context.Context, signal TradingSignal) error {
	date := signal.Timestamp.Format("20060102")
	path := s.categoryFile(signal.Category, date)

	existing, _ := loadSignalFile(path)
	existing = append(existing, signal)

	return s.writeJSON(ctx, path, fmt.Sprintf("signals/%s", filepath.Base(path)), existing)
}

// SaveBatch writes every signal in sigs to its category/day file in one
// pass (used when a full daily generation run produces many signals at
// once, rather than calling Save per-signal).
func (s *Store) SaveBatch(ctx context.Context, sigs []TradingSignal) error {
	byFile := make(map[string][]TradingSignal)
	for _, sig := range sigs {
		date := sig.Timestamp.Format("20060102")
		path := s.categoryFile(sig.Category, date)
		byFile[path] = append(byFile[path], sig)
	}
	for path, batch := range byFile {
		existing, _ := loadSignalFile(path)
		combined := append(existing, batch...)
		if err := s.writeJSON(ctx, path, fmt.Sprintf("signals/%s", filepath.Base(path)), combined); err != nil {
			return err
		}
	}
	return nil
}

// SaveSummary persists a daily signal-generation summary for date
// (YYYYMMDD).
func (s *Store) SaveSummary(ctx context.Context, date string, summary interface{}) error {
	path := s.summaryFile(date)
	return s.writeJSON(ctx, path, fmt.Sprintf("signals/%s", filepath.Base(path)), summary)
}

// SavePerformance persists a daily performance snapshot for date
// (YYYYMMDD) under the performance/ subdirectory.
func (s *Store) SavePerformance(ctx context.Context, date string, performance interface{}) error {
	path := s.performanceFile(date)
	return s.writeJSON(ctx, path, fmt.Sprintf("signals/performance/%s", filepath.Base(path)), performance)
}

func loadSignalFile(path string) ([]TradingSignal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sigs []TradingSignal
	if err := json.Unmarshal(data, &sigs); err != nil {
		var single TradingSignal
		if err2 := json.Unmarshal(data, &single); err2 == nil {
			return []TradingSignal{single}, nil
		}
		return nil, err
	}
	return sigs, nil
}

func loadRawFile(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// FromFilesResult is the full payload the /api/signals/from-files
// endpoint serves, mirroring get_signals_from_files' response shape.
type FromFilesResult struct {
	Date        string                     `json:"date"`
	Signals     map[string][]TradingSignal `json:"signals"`
	Summary     json.RawMessage            `json:"summary,omitempty"`
	Performance json.RawMessage            `json:"performance,omitempty"`
}

// defaultCategories mirrors get_signals_from_files' categories_to_load
// default: scalp, swing, and long_term (intraday has no file of its own).
var defaultCategories = []Category{CategoryScalp, CategorySwing, CategoryLongTerm}

// LoadFromFiles reads the per-category signal files for date (YYYYMMDD,
// defaulting to today), optionally narrowed to a single category and/or
// symbol, plus the sibling summary and performance artifacts if present.
func (s *Store) LoadFromFiles(date string, category Category, symbol string) (FromFilesResult, error) {
	if date == "" {
		date = time.Now().Format("20060102")
	}

	categories := defaultCategories
	if category != "" {
		categories = []Category{category}
	}

	result := FromFilesResult{Date: date, Signals: make(map[string][]TradingSignal, len(categories))}
	for _, cat := range categories {
		sigs, err := loadSignalFile(s.categoryFile(cat, date))
		if err != nil {
			sigs = nil
		}
		if symbol != "" {
			filtered := sigs[:0:0]
			for _, sig := range sigs {
				if strings.EqualFold(sig.Symbol, symbol) {
					filtered = append(filtered, sig)
				}
			}
			sigs = filtered
		}
		result.Signals[string(cat)] = sigs
	}

	if raw, err := loadRawFile(s.summaryFile(date)); err == nil {
		result.Summary = raw
	}
	if raw, err := loadRawFile(s.performanceFile(date)); err == nil {
		result.Performance = raw
	}
	return result, nil
}

// LoadAll reads every signal persisted in the store across all category
// and date files, skipping entries that fail to parse rather than
// aborting the whole read.
func (s *Store) LoadAll() ([]TradingSignal, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read signals directory: %w", err)
	}

	var out []TradingSignal
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		sigs, err := loadSignalFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			s.log.Warn().Err(err).Str("file", e.Name()).Msg("skipping unparseable signal file")
			continue
		}
		out = append(out, sigs...)
	}
	return out, nil
}

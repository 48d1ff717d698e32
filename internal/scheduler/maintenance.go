// Package scheduler runs the platform's periodic upkeep jobs: WAL
// checkpointing for the sqlite store and pruning of the file-backed price
// cache. Both run on a cron schedule rather than the Collector's own
// interruptible-sleep loop, since neither needs sub-second shutdown latency.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/nuniesmith/fks-portfolio-go/internal/database"
	"github.com/nuniesmith/fks-portfolio-go/internal/marketdata"
)

// cacheFileTTL is how long a file-backed cache entry is kept before
// Maintenance prunes it, independent of the in-memory TTL a Router consults
// on reads.
const cacheFileTTL = 24 * time.Hour

// Maintenance wraps a cron.Cron running the platform's housekeeping jobs.
type Maintenance struct {
	cron *cron.Cron
	log  zerolog.Logger
}

// New builds a Maintenance scheduler. It does not start running until Start
// is called.
func New(db *database.DB, cache *marketdata.Cache, log zerolog.Logger) *Maintenance {
	log = log.With().Str("component", "maintenance").Logger()
	c := cron.New()

	m := &Maintenance{cron: c, log: log}

	if _, err := c.AddFunc("@every 15m", func() { m.checkpointWAL(db) }); err != nil {
		log.Error().Err(err).Msg("failed to register WAL checkpoint job")
	}
	if _, err := c.AddFunc("@every 1h", func() { m.pruneCache(cache) }); err != nil {
		log.Error().Err(err).Msg("failed to register cache prune job")
	}

	return m
}

// Start begins running registered jobs on their schedules. Start is
// non-blocking; cron.Cron runs its own goroutine.
func (m *Maintenance) Start() {
	m.cron.Start()
	m.log.Info().Msg("maintenance scheduler started")
}

// Stop waits for any in-flight job to finish, then stops scheduling new
// runs.
func (m *Maintenance) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info().Msg("maintenance scheduler stopped")
}

func (m *Maintenance) checkpointWAL(db *database.DB) {
	if err := db.WALCheckpoint("PASSIVE"); err != nil {
		m.log.Warn().Err(err).Msg("WAL checkpoint failed")
		return
	}
	m.log.Debug().Msg("WAL checkpoint completed")
}

func (m *Maintenance) pruneCache(cache *marketdata.Cache) {
	removed, err := cache.PruneExpired(cacheFileTTL)
	if err != nil {
		m.log.Warn().Err(err).Msg("cache prune failed")
		return
	}
	if removed > 0 {
		m.log.Info().Int("removed", removed).Msg("pruned expired cache files")
	}
}

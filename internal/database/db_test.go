package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(Config{Path: "file::memory:?cache=shared", Profile: ProfileStandard, Name: "portfolio"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestNew_AppliesRequestedProfile(t *testing.T) {
	db := newTestDB(t)
	assert.Equal(t, ProfileStandard, db.Profile())
	assert.Equal(t, "portfolio", db.Name())
}

func TestMigrate_CreatesPricesTable(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Exec(`INSERT INTO prices (symbol, date, open, high, low, close, volume, adapter) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"BTC", "2024-01-01", 1, 2, 0.5, 1.5, 100, "binance")
	assert.NoError(t, err)
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Migrate())
	assert.NoError(t, db.Migrate())
}

func TestQuickCheck_Succeeds(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.QuickCheck(context.Background()))
}

func TestHealthCheck_ReportsIntegrityOK(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())

	wantErr := errors.New("boom")
	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, execErr := tx.Exec(`INSERT INTO prices (symbol, date, open, high, low, close, volume, adapter) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			"AAPL", "2024-01-01", 1, 1, 1, 1, 1, "test")
		if execErr != nil {
			return execErr
		}
		return wantErr
	})
	assert.Error(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM prices WHERE symbol = 'AAPL'`).Scan(&count))
	assert.Equal(t, 0, count, "a rolled-back transaction must not leave its writes visible")
}

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	db := newTestDB(t)

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, execErr := tx.Exec(`INSERT INTO prices (symbol, date, open, high, low, close, volume, adapter) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			"MSFT", "2024-01-01", 1, 1, 1, 1, 1, "test")
		return execErr
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM prices WHERE symbol = 'MSFT'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTransaction_NilDBReturnsError(t *testing.T) {
	err := WithTransaction(nil, func(tx *sql.Tx) error { return nil })
	assert.Error(t, err)
}

func TestGetStats_ReturnsPositivePageSize(t *testing.T) {
	db := newTestDB(t)
	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageSize, int64(0))
}

func TestWALCheckpoint_DefaultsToTruncate(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.WALCheckpoint(""))
}

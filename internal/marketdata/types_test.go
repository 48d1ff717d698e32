package marketdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsCrypto_KnownAndUnknownSymbols(t *testing.T) {
	assert.True(t, IsCrypto("BTC"))
	assert.True(t, IsCrypto("ETH"))
	assert.False(t, IsCrypto("AAPL"))
	assert.False(t, IsCrypto(""))
}

func TestNormalizeDate_StripsTimeAndLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	in := time.Date(2024, 3, 15, 23, 45, 0, 0, loc)
	out := normalizeDate(in)

	assert.Equal(t, time.UTC, out.Location())
	assert.Equal(t, 0, out.Hour())
	assert.Equal(t, 0, out.Minute())
	// 23:45 in UTC-5 is 2024-03-16 04:45 UTC, so the normalized date rolls forward.
	assert.Equal(t, 16, out.Day())
}

func TestNormalizeDate_Idempotent(t *testing.T) {
	in := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, in, normalizeDate(normalizeDate(in)))
}

package server

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nuniesmith/fks-portfolio-go/internal/apperr"
)

func TestWriteJSON_Returns200WithBody(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, map[string]string{"ok": "true"})

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "true", body["ok"])
}

func TestWriteError_MapsEachKindToItsStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.Validation("bad input"), 400},
		{apperr.UpstreamUnavailable("fetch", errors.New("down")), 502},
		{apperr.DataInsufficient("need more history"), 422},
		{apperr.ConstraintViolation("infeasible bounds"), 422},
		{apperr.Internal("boom", nil), 500},
		{errors.New("untyped"), 500},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, tc.err)
		assert.Equal(t, tc.want, rec.Code, "for error %v", tc.err)

		var body errorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body.Error)
	}
}

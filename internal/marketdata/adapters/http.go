// Package adapters implements concrete marketdata.Adapter providers for the
// exchanges and data vendors the platform sources prices from.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nuniesmith/fks-portfolio-go/internal/apperr"
)

// defaultHTTPClient is shared across adapters; none of them need per-call
// tuning beyond a sane timeout, so one client with connection reuse is
// enough.
var defaultHTTPClient = &http.Client{Timeout: 10 * time.Second}

// getJSON issues a GET request and decodes the JSON response body into out.
// Any failure - network, non-2xx status, or malformed body - is wrapped as
// apperr.UpstreamUnavailable so adapters never panic or return a bare error
// the router can't classify.
func getJSON(ctx context.Context, url string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperr.UpstreamUnavailable("build request", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := defaultHTTPClient.Do(req)
	if err != nil {
		return apperr.UpstreamUnavailable("request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.UpstreamUnavailable("read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperr.UpstreamUnavailable(fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, url), nil)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperr.UpstreamUnavailable("decode response body", err)
	}
	return nil
}

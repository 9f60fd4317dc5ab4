// Package source wraps the three upstream capabilities (AI safety assessor,
// news search, scam/news aggregator) behind the safety.Source contract. Each
// adapter gates its upstream with its own rate limiter and response cache and
// degrades through an explicit fallback chain, so a failure never crosses the
// adapter boundary.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"wayguard/internal/domain/safety"
)

// Failure classes consumed by the fallback chains. None of these are ever
// visible to the aggregator's callers.
var (
	// ErrRateLimited means the local budget for the source is exhausted.
	ErrRateLimited = errors.New("source: rate budget exhausted")

	// ErrUnavailable means the upstream could not be reached or answered
	// with a non-2xx status.
	ErrUnavailable = errors.New("source: upstream unavailable")

	// ErrMalformed means the upstream answered with data that fails
	// structural validation.
	ErrMalformed = errors.New("source: malformed upstream response")

	// ErrCacheMiss signals the cache strategy found nothing fresh.
	ErrCacheMiss = errors.New("source: cache miss")
)

// hasAlerts is the accept predicate for the news-style adapters' cache and
// live strategies: a search that legitimately matched nothing carries no
// information, so the chain moves on to substitute content instead of
// reporting an empty sourced result.
func hasAlerts(r safety.Report) bool { return len(r.Alerts) > 0 }

// decodeJSON reads and decodes an HTTP response body, classifying transport
// and parse failures into the adapter error taxonomy.
func decodeJSON(resp *http.Response, into any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

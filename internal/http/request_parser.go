// Package http serves the metrics engine over a small JSON API.
//
// This file extracts and validates the query parameters of metrics
// requests.
package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HeaderDriverID is set by an authenticating proxy in front of the API.
const HeaderDriverID = "X-Driver-ID"

// ErrInvalidAt is returned for an at parameter that is not YYYY-MM-DD.
var ErrInvalidAt = errors.New("invalid at parameter")

// MetricsQuery is the parsed form of a GET /api/metrics request.
type MetricsQuery struct {
	DriverID string
	Period   string
	// At pins the reference day. Zero means now.
	At time.Time
}

// HasAt reports whether the caller pinned a reference day.
func (q MetricsQuery) HasAt() bool { return !q.At.IsZero() }

// ParseMetricsQuery reads driverId (or driver_id, or the X-Driver-ID
// header), period and at. The driver id is not validated here; the engine
// does that. at is the start of that day in loc.
func ParseMetricsQuery(r *http.Request, loc *time.Location) (MetricsQuery, error) {
	query := r.URL.Query()

	q := MetricsQuery{
		DriverID: firstNonEmpty(query.Get("driverId"), query.Get("driver_id"), r.Header.Get(HeaderDriverID)),
		Period:   strings.TrimSpace(query.Get("period")),
	}

	if v := strings.TrimSpace(query.Get("at")); v != "" {
		day, err := time.ParseInLocation(time.DateOnly, v, loc)
		if err != nil {
			return MetricsQuery{}, fmt.Errorf("%w: %q, expected YYYY-MM-DD", ErrInvalidAt, v)
		}
		q.At = day
	}

	return q, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

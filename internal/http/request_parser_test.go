package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseMetricsQuery(t *testing.T) {
	rome, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name       string
		url        string
		header     string
		wantDriver string
		wantPeriod string
		wantAt     time.Time
		wantErr    error
	}{
		{name: "camel case", url: "/api/metrics?driverId=d1&period=month", wantDriver: "d1", wantPeriod: "month"},
		{name: "snake case", url: "/api/metrics?driver_id=%20d2%20", wantDriver: "d2"},
		{name: "query wins over header", url: "/api/metrics?driverId=d1", header: "d9", wantDriver: "d1"},
		{name: "header fallback", url: "/api/metrics", header: "d9", wantDriver: "d9"},
		{name: "missing driver is not a parse error", url: "/api/metrics"},
		{name: "at", url: "/api/metrics?driverId=d1&at=2024-03-12", wantDriver: "d1",
			wantAt: time.Date(2024, 3, 12, 0, 0, 0, 0, rome)},
		{name: "bad at", url: "/api/metrics?driverId=d1&at=yesterday", wantErr: ErrInvalidAt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				r.Header.Set(HeaderDriverID, tt.header)
			}
			q, err := ParseMetricsQuery(r, rome)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.DriverID != tt.wantDriver {
				t.Errorf("DriverID = %q, want %q", q.DriverID, tt.wantDriver)
			}
			if q.Period != tt.wantPeriod {
				t.Errorf("Period = %q, want %q", q.Period, tt.wantPeriod)
			}
			if !q.At.Equal(tt.wantAt) {
				t.Errorf("At = %v, want %v", q.At, tt.wantAt)
			}
			if q.HasAt() != !tt.wantAt.IsZero() {
				t.Errorf("HasAt = %v", q.HasAt())
			}
		})
	}
}

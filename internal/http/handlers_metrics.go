package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"taxilog/internal/core"
	applog "taxilog/internal/log"
	"taxilog/internal/metrics"
)

// HeaderDegraded lists the collections substituted with an empty set.
const HeaderDegraded = "X-Metrics-Degraded"

// handleMetrics serves GET /api/metrics. The body is the bare metrics
// object; degradation is reported through HeaderDegraded only.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	q, err := ParseMetricsQuery(r, s.engine.Location())
	if err != nil {
		BadRequestError("invalid request", err.Error()).Write(w)
		return
	}

	var rep metrics.Report
	if q.HasAt() {
		rep, err = s.engine.ComputeAt(ctx, q.DriverID, q.Period, q.At)
	} else {
		rep, err = s.engine.Compute(ctx, q.DriverID, q.Period)
	}
	if err != nil {
		s.writeComputeError(ctx, w, q, err)
		return
	}

	b := NewJSONResponse().Body(rep.Metrics)
	if rep.Degraded() {
		b.Header(HeaderDegraded, strings.Join(rep.Missing, ","))
		logger.WarnContext(ctx, "Served degraded metrics",
			applog.NewFields().WithMetricsRequest(q.DriverID, string(rep.Period)).ToSlice()...)
	}
	b.Write(w)
}

func (s *Server) writeComputeError(ctx context.Context, w http.ResponseWriter, q MetricsQuery, err error) {
	switch {
	case metrics.IsInputError(err):
		BadRequestError("invalid request", err.Error()).Write(w)
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the body.
		w.WriteHeader(499)
	default:
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Metrics computation failed", err, applog.OpCompute,
			applog.NewFields().WithMetricsRequest(q.DriverID, q.Period))
		InternalServerError("failed to compute metrics", err.Error()).Write(w)
	}
}

type periodsResponse struct {
	Default core.Period   `json:"default"`
	Periods []core.Period `json:"periods"`
}

// handlePeriods lists the accepted period keywords.
func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(periodsResponse{
		Default: s.engine.DefaultPeriod(),
		Periods: core.SupportedPeriods(),
	}).Write(w)
}

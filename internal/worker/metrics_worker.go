package worker

import (
	"context"
	"fmt"
	"time"

	"taxilog/internal/amqp"
	applog "taxilog/internal/log"
	"taxilog/internal/metrics"
)

// Computer is the part of the metrics engine the worker needs.
type Computer interface {
	Compute(ctx context.Context, driverID, period string) (metrics.Report, error)
	ComputeAt(ctx context.Context, driverID, period string, at time.Time) (metrics.Report, error)
	Location() *time.Location
}

// MetricsWorker answers metrics requests arriving over AMQP.
type MetricsWorker struct {
	engine Computer
	logger *applog.Logger
}

func NewMetricsWorker(engine Computer, logger *applog.Logger) *MetricsWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &MetricsWorker{engine: engine, logger: logger.WithComponent(applog.ComponentWorker)}
}

// HandleMetricsRequest computes one request. Caller mistakes become an
// error reply; an unavailable store is returned as an error so the
// delivery is retried.
func (w *MetricsWorker) HandleMetricsRequest(ctx context.Context, msg *amqp.MetricsRequestMessage) (*amqp.MetricsResultMessage, error) {
	res := &amqp.MetricsResultMessage{
		RequestID: msg.RequestID,
		DriverID:  msg.DriverID,
		Period:    msg.Period,
		Timestamp: time.Now(),
	}
	logger := w.logger.With(applog.FieldCorrelation, msg.RequestID, applog.FieldDriverID, msg.DriverID)

	var (
		rep metrics.Report
		err error
	)
	if msg.At != "" {
		at, perr := time.ParseInLocation(time.DateOnly, msg.At, w.engine.Location())
		if perr != nil {
			res.Error = fmt.Sprintf("invalid at %q: expected YYYY-MM-DD", msg.At)
			res.ErrorKind = amqp.ErrorKindInvalidInput
			logger.WarnContext(ctx, "Rejected metrics request", applog.FieldError, res.Error)
			return res, nil
		}
		rep, err = w.engine.ComputeAt(ctx, msg.DriverID, msg.Period, at)
	} else {
		rep, err = w.engine.Compute(ctx, msg.DriverID, msg.Period)
	}

	switch {
	case err == nil:
	case metrics.IsInputError(err):
		res.Error = err.Error()
		res.ErrorKind = amqp.ErrorKindInvalidInput
		logger.WarnContext(ctx, "Rejected metrics request", applog.FieldError, err)
		return res, nil
	default:
		return nil, fmt.Errorf("compute metrics: %w", err)
	}

	m := rep.Metrics
	res.Metrics = &m
	res.Period = string(rep.Period)
	res.Missing = rep.Missing
	logger.InfoContext(ctx, "Metrics request served",
		applog.FieldPeriod, res.Period,
		applog.FieldRecords, m.Rides,
		"degraded", rep.Degraded())
	return res, nil
}

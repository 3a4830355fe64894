// Package metrics aggregates a driver's records into period metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"taxilog/internal/core"
	applog "taxilog/internal/log"
	"taxilog/internal/records"
	"taxilog/internal/telemetry"
)

// ErrStoreUnavailable means no record could be read at all. A partial
// failure never produces it.
var ErrStoreUnavailable = errors.New("record store unavailable")

// Config controls an Engine.
type Config struct {
	// Location anchors period boundaries and ride day buckets.
	Location *time.Location
	// DefaultPeriod is used when a request names no period.
	DefaultPeriod core.Period
	// FetchTimeout bounds the whole fetch stage. Zero disables it.
	FetchTimeout time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Location:      time.Local,
		DefaultPeriod: core.DefaultPeriod,
		FetchTimeout:  10 * time.Second,
		Now:           time.Now,
	}
}

// Report is one computed result plus the collections that had to be
// substituted with an empty set.
type Report struct {
	Metrics core.Metrics
	Period  core.Period
	Missing []string
}

// Degraded reports whether any collection was missing.
func (r Report) Degraded() bool { return len(r.Missing) > 0 }

// Engine recomputes metrics from the store on every call.
type Engine struct {
	store     records.Store
	cfg       Config
	logger    *applog.Logger
	telemetry *telemetry.Recorder
}

// NewEngine wires an engine. logger and rec may be nil.
func NewEngine(store records.Store, cfg Config, logger *applog.Logger, rec *telemetry.Recorder) *Engine {
	def := DefaultConfig()
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.DefaultPeriod == "" {
		cfg.DefaultPeriod = def.DefaultPeriod
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Engine{
		store:     store,
		cfg:       cfg,
		logger:    logger.WithComponent(applog.ComponentMetrics),
		telemetry: rec,
	}
}

// Location returns the engine's time zone.
func (e *Engine) Location() *time.Location { return e.cfg.Location }

// DefaultPeriod is the period used when a request names none.
func (e *Engine) DefaultPeriod() core.Period { return e.cfg.DefaultPeriod }

// Now returns the current instant in the engine's time zone.
func (e *Engine) Now() time.Time { return e.cfg.Now().In(e.cfg.Location) }

// Compute resolves period against the engine clock and computes metrics
// for driverID.
func (e *Engine) Compute(ctx context.Context, driverID, period string) (Report, error) {
	return e.ComputeAt(ctx, driverID, period, e.Now())
}

// ComputeAt is Compute with an explicit reference instant.
func (e *Engine) ComputeAt(ctx context.Context, driverID, period string, at time.Time) (Report, error) {
	started := time.Now()

	if err := core.ValidateDriverID(driverID); err != nil {
		e.telemetry.ObserveComputation(telemetry.OutcomeInvalid, time.Since(started))
		return Report{}, err
	}

	p := core.NormalizePeriod(period)
	if p == "" {
		p = e.cfg.DefaultPeriod
	}
	if !p.IsKnown() {
		p = core.PeriodAllTime
	}
	dr := core.ResolvePeriod(string(p), at.In(e.cfg.Location))

	logger := e.logger.With(applog.FieldDriverID, driverID, applog.FieldPeriod, string(p))

	fetchCtx := ctx
	if e.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, e.cfg.FetchTimeout)
		defer cancel()
	}

	if err := e.Ping(fetchCtx); err != nil {
		e.telemetry.ObserveComputation(telemetry.OutcomeUnavailable, time.Since(started))
		logger.ErrorContext(ctx, "Record store unreachable", applog.FieldError, err)
		return Report{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	cols := e.fetch(fetchCtx, driverID, dr)

	failures := cols.Failures()
	if cols.AllFailed() {
		errs := make([]error, 0, len(failures))
		for _, name := range records.Collections() {
			errs = append(errs, failures[name])
		}
		e.telemetry.ObserveComputation(telemetry.OutcomeUnavailable, time.Since(started))
		logger.ErrorContext(ctx, "Every record collection failed", applog.FieldError, errors.Join(errs...))
		return Report{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, errors.Join(errs...))
	}

	var missing []string
	for _, name := range records.Collections() {
		err, failed := failures[name]
		if !failed {
			continue
		}
		missing = append(missing, name)
		e.telemetry.FetchFailed(name)
		logger.WarnContext(ctx, "Record fetch failed, using empty set",
			applog.FieldCollection, name, applog.FieldError, err)
	}

	m := Derive(Aggregate(cols, e.cfg.Location), dr)

	outcome := telemetry.OutcomeOK
	if len(missing) > 0 {
		outcome = telemetry.OutcomeDegraded
	}
	e.telemetry.ObserveComputation(outcome, time.Since(started))
	logger.DebugContext(ctx, "Metrics computed",
		applog.FieldRecords, m.Rides,
		applog.FieldRangeStart, dr.StartDate,
		applog.FieldRangeEnd, dr.EndDate,
	)

	return Report{Metrics: m, Period: p, Missing: missing}, nil
}

// Ping checks the store when it supports it.
func (e *Engine) Ping(ctx context.Context) error {
	p, ok := e.store.(records.Pinger)
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

// fetch reads the five collections concurrently. A failing collection
// never cancels the others.
func (e *Engine) fetch(ctx context.Context, driverID string, dr core.DateRange) Collections {
	var (
		g    errgroup.Group
		cols Collections
	)
	collect(&g, &cols.Rides, records.CollectionRides, func() ([]core.Ride, error) {
		return e.store.ListRides(ctx, driverID, dr)
	})
	collect(&g, &cols.Shifts, records.CollectionShifts, func() ([]core.Shift, error) {
		return e.store.ListShifts(ctx, driverID, dr)
	})
	collect(&g, &cols.Fuel, records.CollectionFuel, func() ([]core.FuelExpense, error) {
		return e.store.ListFuelExpenses(ctx, driverID, dr)
	})
	collect(&g, &cols.Maintenance, records.CollectionMaintenance, func() ([]core.MaintenanceExpense, error) {
		return e.store.ListMaintenanceExpenses(ctx, driverID, dr)
	})
	collect(&g, &cols.Insurance, records.CollectionInsurance, func() ([]core.InsuranceExpense, error) {
		return e.store.ListInsuranceExpenses(ctx, driverID, dr)
	})
	_ = g.Wait()
	return cols
}

func collect[T any](g *errgroup.Group, dst *Result[T], name string, list func() ([]T, error)) {
	g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				dst.Items, dst.Err = nil, fmt.Errorf("list %s: panic: %v", name, r)
			}
		}()
		items, err := list()
		if err != nil {
			*dst = Result[T]{Err: fmt.Errorf("list %s: %w", name, err)}
			return nil
		}
		*dst = Result[T]{Items: items}
		return nil
	})
}

// IsInputError reports whether err was caused by the caller.
func IsInputError(err error) bool {
	return errors.Is(err, core.ErrMissingDriverID) || errors.Is(err, core.ErrInvalidDriverID)
}

package worker

import (
	"context"
	"fmt"

	"taxilog/internal/core"
	applog "taxilog/internal/log"
	"taxilog/internal/records"
	"taxilog/internal/records/memory"
)

// ImportStats summarizes one import run.
type ImportStats struct {
	Drivers int
	Written int
	Failed  int
}

// ImportWorker copies records into a writable backend, either from seed
// files or from another store such as the Sheets logbook.
type ImportWorker struct {
	writer records.Writer
	logger *applog.Logger
}

func NewImportWorker(writer records.Writer, logger *applog.Logger) *ImportWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ImportWorker{writer: writer, logger: logger.WithComponent(applog.ComponentImport)}
}

// ImportSeed writes every record in sd. Drivers are created first; a
// record that fails to insert is logged and counted, and the run goes on.
func (w *ImportWorker) ImportSeed(ctx context.Context, sd memory.Seed) (ImportStats, error) {
	var stats ImportStats

	for _, id := range sd.DriverIDs() {
		if err := w.writer.EnsureDriver(ctx, id, ""); err != nil {
			return stats, fmt.Errorf("ensure driver %s: %w", id, err)
		}
		stats.Drivers++
	}

	steps := []func() error{
		func() error { return writeAll(ctx, w, &stats, records.CollectionRides, sd.Rides, w.writer.AddRide) },
		func() error { return writeAll(ctx, w, &stats, records.CollectionShifts, sd.Shifts, w.writer.AddShift) },
		func() error { return writeAll(ctx, w, &stats, records.CollectionFuel, sd.Fuel, w.writer.AddFuelExpense) },
		func() error {
			return writeAll(ctx, w, &stats, records.CollectionMaintenance, sd.Maintenance, w.writer.AddMaintenanceExpense)
		},
		func() error {
			return writeAll(ctx, w, &stats, records.CollectionInsurance, sd.Insurance, w.writer.AddInsuranceExpense)
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return stats, err
		}
	}

	w.logger.InfoContext(ctx, "Import completed",
		"drivers", stats.Drivers,
		"written", stats.Written,
		"errors", stats.Failed)
	return stats, nil
}

// ImportFromStore reads the given drivers' records in r from src and
// writes them. Unlike the metrics engine it does not tolerate a failing
// collection: a partial copy would look complete.
func (w *ImportWorker) ImportFromStore(ctx context.Context, src records.Store, driverIDs []string, r core.DateRange) (ImportStats, error) {
	var sd memory.Seed
	for _, id := range driverIDs {
		rides, err := src.ListRides(ctx, id, r)
		if err != nil {
			return ImportStats{}, fmt.Errorf("read rides for %s: %w", id, err)
		}
		shifts, err := src.ListShifts(ctx, id, r)
		if err != nil {
			return ImportStats{}, fmt.Errorf("read shifts for %s: %w", id, err)
		}
		fuel, err := src.ListFuelExpenses(ctx, id, r)
		if err != nil {
			return ImportStats{}, fmt.Errorf("read fuel expenses for %s: %w", id, err)
		}
		maintenance, err := src.ListMaintenanceExpenses(ctx, id, r)
		if err != nil {
			return ImportStats{}, fmt.Errorf("read maintenance expenses for %s: %w", id, err)
		}
		insurance, err := src.ListInsuranceExpenses(ctx, id, r)
		if err != nil {
			return ImportStats{}, fmt.Errorf("read insurance expenses for %s: %w", id, err)
		}

		w.logger.InfoContext(ctx, "Read driver records",
			applog.FieldDriverID, id,
			applog.FieldRecords, len(rides)+len(shifts)+len(fuel)+len(maintenance)+len(insurance))

		sd.Rides = append(sd.Rides, rides...)
		sd.Shifts = append(sd.Shifts, shifts...)
		sd.Fuel = append(sd.Fuel, fuel...)
		sd.Maintenance = append(sd.Maintenance, maintenance...)
		sd.Insurance = append(sd.Insurance, insurance...)
	}
	return w.ImportSeed(ctx, sd)
}

func writeAll[T any](ctx context.Context, w *ImportWorker, stats *ImportStats, collection string, items []T, add func(context.Context, T) (string, error)) error {
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("import %s: %w", collection, err)
		}
		if _, err := add(ctx, item); err != nil {
			w.logger.ErrorContext(ctx, "Failed to import record",
				applog.FieldCollection, collection,
				"index", i,
				applog.FieldError, err)
			stats.Failed++
			continue
		}
		stats.Written++
	}
	return nil
}

package metrics

import (
	"taxilog/internal/core"
	"taxilog/internal/records"
)

// Result is the outcome of fetching one record collection. A failed fetch
// keeps its error so the degrade-to-empty policy stays explicit.
type Result[T any] struct {
	Items []T
	Err   error
}

// OrEmpty returns the items, or nil when the fetch failed.
func (r Result[T]) OrEmpty() []T {
	if r.Err != nil {
		return nil
	}
	return r.Items
}

// Collections holds one Result per record collection for a single request.
type Collections struct {
	Rides       Result[core.Ride]
	Shifts      Result[core.Shift]
	Fuel        Result[core.FuelExpense]
	Maintenance Result[core.MaintenanceExpense]
	Insurance   Result[core.InsuranceExpense]
}

// Failures maps each failed collection to its error.
func (c Collections) Failures() map[string]error {
	out := map[string]error{}
	for name, err := range c.errs() {
		if err != nil {
			out[name] = err
		}
	}
	return out
}

// AllFailed reports whether no collection could be read.
func (c Collections) AllFailed() bool {
	return len(c.Failures()) == len(records.Collections())
}

func (c Collections) errs() map[string]error {
	return map[string]error{
		records.CollectionRides:       c.Rides.Err,
		records.CollectionShifts:      c.Shifts.Err,
		records.CollectionFuel:        c.Fuel.Err,
		records.CollectionMaintenance: c.Maintenance.Err,
		records.CollectionInsurance:   c.Insurance.Err,
	}
}

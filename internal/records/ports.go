package records

import (
	"context"

	"taxilog/internal/core"
)

// Ports for the record stores the metrics engine reads from. Every list
// call is scoped to one driver and an inclusive date range.
type (
	RideReader interface {
		// ListRides filters on the ride date.
		ListRides(ctx context.Context, driverID string, r core.DateRange) ([]core.Ride, error)
	}

	ShiftReader interface {
		// ListShifts filters on the shift date, open shifts included.
		ListShifts(ctx context.Context, driverID string, r core.DateRange) ([]core.Shift, error)
	}

	FuelExpenseReader interface {
		ListFuelExpenses(ctx context.Context, driverID string, r core.DateRange) ([]core.FuelExpense, error)
	}

	MaintenanceExpenseReader interface {
		ListMaintenanceExpenses(ctx context.Context, driverID string, r core.DateRange) ([]core.MaintenanceExpense, error)
	}

	InsuranceExpenseReader interface {
		// ListInsuranceExpenses filters on the policy start date.
		ListInsuranceExpenses(ctx context.Context, driverID string, r core.DateRange) ([]core.InsuranceExpense, error)
	}

	// Store is everything the metrics engine needs.
	Store interface {
		RideReader
		ShiftReader
		FuelExpenseReader
		MaintenanceExpenseReader
		InsuranceExpenseReader
	}

	// Pinger is implemented by stores that can report whether they are
	// reachable at all.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Collection names, used in logs and telemetry labels.
const (
	CollectionRides       = "rides"
	CollectionShifts      = "shifts"
	CollectionFuel        = "fuel"
	CollectionMaintenance = "maintenance"
	CollectionInsurance   = "insurance"
)

// Collections returns every collection name in fetch order.
func Collections() []string {
	return []string{CollectionRides, CollectionShifts, CollectionFuel, CollectionMaintenance, CollectionInsurance}
}

// Writer is implemented by the SQL backends and used by the import command.
type Writer interface {
	AddRide(ctx context.Context, x core.Ride) (string, error)
	AddShift(ctx context.Context, x core.Shift) (string, error)
	AddFuelExpense(ctx context.Context, x core.FuelExpense) (string, error)
	AddMaintenanceExpense(ctx context.Context, x core.MaintenanceExpense) (string, error)
	AddInsuranceExpense(ctx context.Context, x core.InsuranceExpense) (string, error)
	EnsureDriver(ctx context.Context, id, name string) error
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taxilog/internal/core"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Numeric columns are read as text so core.Numeric sees the exact value.
const (
	listRidesQuery = `
		SELECT id, driver_id, date, fare::text, tips::text, distance::text
		FROM rides
		WHERE driver_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`

	listShiftsQuery = `
		SELECT id, driver_id, date, start_time, end_time
		FROM shifts
		WHERE driver_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`

	listFuelQuery = `
		SELECT id, driver_id, vehicle_id, date, amount::text, quantity::text
		FROM fuel_expenses
		WHERE driver_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`

	listMaintenanceQuery = `
		SELECT id, driver_id, vehicle_id, date, amount::text, description
		FROM maintenance_expenses
		WHERE driver_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`

	listInsuranceQuery = `
		SELECT id, driver_id, vehicle_id, start_date, end_date, amount::text, provider
		FROM insurance_expenses
		WHERE driver_id = $1 AND start_date BETWEEN $2 AND $3
		ORDER BY start_date`
)

func (r *Repository) ListRides(ctx context.Context, driverID string, dr core.DateRange) ([]core.Ride, error) {
	return queryAll(ctx, r.db, "rides", listRidesQuery, driverID, dr, func(row pgx.Rows) (core.Ride, error) {
		var x core.Ride
		err := row.Scan(&x.ID, &x.DriverID, &x.Date, &x.Fare, &x.Tips, &x.Distance)
		return x, err
	})
}

func (r *Repository) ListShifts(ctx context.Context, driverID string, dr core.DateRange) ([]core.Shift, error) {
	return queryAll(ctx, r.db, "shifts", listShiftsQuery, driverID, dr, func(row pgx.Rows) (core.Shift, error) {
		var x core.Shift
		err := row.Scan(&x.ID, &x.DriverID, &x.Date, &x.StartTime, &x.EndTime)
		return x, err
	})
}

func (r *Repository) ListFuelExpenses(ctx context.Context, driverID string, dr core.DateRange) ([]core.FuelExpense, error) {
	return queryAll(ctx, r.db, "fuel expenses", listFuelQuery, driverID, dr, func(row pgx.Rows) (core.FuelExpense, error) {
		var x core.FuelExpense
		err := row.Scan(&x.ID, &x.DriverID, &x.VehicleID, &x.Date, &x.Amount, &x.Quantity)
		return x, err
	})
}

func (r *Repository) ListMaintenanceExpenses(ctx context.Context, driverID string, dr core.DateRange) ([]core.MaintenanceExpense, error) {
	return queryAll(ctx, r.db, "maintenance expenses", listMaintenanceQuery, driverID, dr, func(row pgx.Rows) (core.MaintenanceExpense, error) {
		var x core.MaintenanceExpense
		err := row.Scan(&x.ID, &x.DriverID, &x.VehicleID, &x.Date, &x.Amount, &x.Description)
		return x, err
	})
}

func (r *Repository) ListInsuranceExpenses(ctx context.Context, driverID string, dr core.DateRange) ([]core.InsuranceExpense, error) {
	return queryAll(ctx, r.db, "insurance expenses", listInsuranceQuery, driverID, dr, func(row pgx.Rows) (core.InsuranceExpense, error) {
		var x core.InsuranceExpense
		err := row.Scan(&x.ID, &x.DriverID, &x.VehicleID, &x.StartDate, &x.EndDate, &x.Amount, &x.Provider)
		return x, err
	})
}

func (r *Repository) EnsureDriver(ctx context.Context, id, name string) error {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO drivers (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, id, name); err != nil {
		return fmt.Errorf("ensure driver: %w", err)
	}
	return nil
}

func (r *Repository) AddRide(ctx context.Context, x core.Ride) (string, error) {
	x.ID = idOrNew(x.ID)
	if _, err := r.db.Exec(ctx, `
		INSERT INTO rides (id, driver_id, date, fare, tips, distance)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		x.ID, x.DriverID, x.Date, numericArg(x.Fare), numericArg(x.Tips), numericArg(x.Distance),
	); err != nil {
		return "", fmt.Errorf("insert ride: %w", err)
	}
	return x.ID, nil
}

func (r *Repository) AddShift(ctx context.Context, x core.Shift) (string, error) {
	x.ID = idOrNew(x.ID)
	if _, err := r.db.Exec(ctx, `
		INSERT INTO shifts (id, driver_id, date, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)`,
		x.ID, x.DriverID, x.Date, x.StartTime, x.EndTime,
	); err != nil {
		return "", fmt.Errorf("insert shift: %w", err)
	}
	return x.ID, nil
}

func (r *Repository) AddFuelExpense(ctx context.Context, x core.FuelExpense) (string, error) {
	x.ID = idOrNew(x.ID)
	if _, err := r.db.Exec(ctx, `
		INSERT INTO fuel_expenses (id, driver_id, vehicle_id, date, amount, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		x.ID, x.DriverID, x.VehicleID, x.Date, numericArg(x.Amount), numericArg(x.Quantity),
	); err != nil {
		return "", fmt.Errorf("insert fuel expense: %w", err)
	}
	return x.ID, nil
}

func (r *Repository) AddMaintenanceExpense(ctx context.Context, x core.MaintenanceExpense) (string, error) {
	x.ID = idOrNew(x.ID)
	if _, err := r.db.Exec(ctx, `
		INSERT INTO maintenance_expenses (id, driver_id, vehicle_id, date, amount, description)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		x.ID, x.DriverID, x.VehicleID, x.Date, numericArg(x.Amount), x.Description,
	); err != nil {
		return "", fmt.Errorf("insert maintenance expense: %w", err)
	}
	return x.ID, nil
}

func (r *Repository) AddInsuranceExpense(ctx context.Context, x core.InsuranceExpense) (string, error) {
	x.ID = idOrNew(x.ID)
	if _, err := r.db.Exec(ctx, `
		INSERT INTO insurance_expenses (id, driver_id, vehicle_id, start_date, end_date, amount, provider)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		x.ID, x.DriverID, x.VehicleID, x.StartDate, x.EndDate, numericArg(x.Amount), x.Provider,
	); err != nil {
		return "", fmt.Errorf("insert insurance expense: %w", err)
	}
	return x.ID, nil
}

func queryAll[T any](ctx context.Context, db DB, what, query, driverID string, dr core.DateRange, scan func(pgx.Rows) (T, error)) ([]T, error) {
	rows, err := db.Query(ctx, query, driverID, dr.StartDate, dr.EndDate)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		x, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		out = append(out, x)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return out, nil
}

func idOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

// numericArg maps unparsable values to NULL, which NUMERIC columns require.
func numericArg(n core.Numeric) *float64 {
	if !n.Valid() {
		return nil
	}
	f := n.Float()
	return &f
}

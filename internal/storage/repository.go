package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"taxilog/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository reads and writes driver records in a local SQLite file.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newRepository(db), nil
}

func newRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Range filters compare julianday values, so rows written in any layout
// ParseTime accepts are matched by instant rather than by string order.
const listRidesQuery = `SELECT id, driver_id, date, fare, tips, distance
FROM rides WHERE driver_id = ? AND julianday(date) BETWEEN julianday(?) AND julianday(?) ORDER BY julianday(date)`

func (r *SQLiteRepository) ListRides(ctx context.Context, driverID string, dr core.DateRange) ([]core.Ride, error) {
	return queryAll(ctx, r.db, "rides", listRidesQuery, rangeArgs(driverID, dr), func(s scanner) (core.Ride, error) {
		var (
			x    core.Ride
			date string
		)
		if err := s.Scan(&x.ID, &x.DriverID, &date, &x.Fare, &x.Tips, &x.Distance); err != nil {
			return x, err
		}
		var err error
		x.Date, err = ParseTime(date)
		return x, err
	})
}

const listShiftsQuery = `SELECT id, driver_id, date, start_time, end_time
FROM shifts WHERE driver_id = ? AND julianday(date) BETWEEN julianday(?) AND julianday(?) ORDER BY julianday(date)`

func (r *SQLiteRepository) ListShifts(ctx context.Context, driverID string, dr core.DateRange) ([]core.Shift, error) {
	return queryAll(ctx, r.db, "shifts", listShiftsQuery, rangeArgs(driverID, dr), func(s scanner) (core.Shift, error) {
		var (
			x          core.Shift
			date       string
			start, end sql.NullString
		)
		if err := s.Scan(&x.ID, &x.DriverID, &date, &start, &end); err != nil {
			return x, err
		}
		var err error
		if x.Date, err = ParseTime(date); err != nil {
			return x, err
		}
		x.StartTime = optionalTime(start)
		x.EndTime = optionalTime(end)
		return x, nil
	})
}

const listFuelQuery = `SELECT id, driver_id, vehicle_id, date, amount, quantity
FROM fuel_expenses WHERE driver_id = ? AND julianday(date) BETWEEN julianday(?) AND julianday(?) ORDER BY julianday(date)`

func (r *SQLiteRepository) ListFuelExpenses(ctx context.Context, driverID string, dr core.DateRange) ([]core.FuelExpense, error) {
	return queryAll(ctx, r.db, "fuel expenses", listFuelQuery, rangeArgs(driverID, dr), func(s scanner) (core.FuelExpense, error) {
		var (
			x    core.FuelExpense
			date string
		)
		if err := s.Scan(&x.ID, &x.DriverID, &x.VehicleID, &date, &x.Amount, &x.Quantity); err != nil {
			return x, err
		}
		var err error
		x.Date, err = ParseTime(date)
		return x, err
	})
}

const listMaintenanceQuery = `SELECT id, driver_id, vehicle_id, date, amount, description
FROM maintenance_expenses WHERE driver_id = ? AND julianday(date) BETWEEN julianday(?) AND julianday(?) ORDER BY julianday(date)`

func (r *SQLiteRepository) ListMaintenanceExpenses(ctx context.Context, driverID string, dr core.DateRange) ([]core.MaintenanceExpense, error) {
	return queryAll(ctx, r.db, "maintenance expenses", listMaintenanceQuery, rangeArgs(driverID, dr), func(s scanner) (core.MaintenanceExpense, error) {
		var (
			x    core.MaintenanceExpense
			date string
		)
		if err := s.Scan(&x.ID, &x.DriverID, &x.VehicleID, &date, &x.Amount, &x.Description); err != nil {
			return x, err
		}
		var err error
		x.Date, err = ParseTime(date)
		return x, err
	})
}

// Insurance is ranged on start_date.
const listInsuranceQuery = `SELECT id, driver_id, vehicle_id, start_date, end_date, amount, provider
FROM insurance_expenses WHERE driver_id = ? AND julianday(start_date) BETWEEN julianday(?) AND julianday(?) ORDER BY julianday(start_date)`

func (r *SQLiteRepository) ListInsuranceExpenses(ctx context.Context, driverID string, dr core.DateRange) ([]core.InsuranceExpense, error) {
	return queryAll(ctx, r.db, "insurance expenses", listInsuranceQuery, rangeArgs(driverID, dr), func(s scanner) (core.InsuranceExpense, error) {
		var (
			x     core.InsuranceExpense
			start string
			end   sql.NullString
		)
		if err := s.Scan(&x.ID, &x.DriverID, &x.VehicleID, &start, &end, &x.Amount, &x.Provider); err != nil {
			return x, err
		}
		var err error
		if x.StartDate, err = ParseTime(start); err != nil {
			return x, err
		}
		x.EndDate = optionalTime(end)
		return x, nil
	})
}

// EnsureDriver inserts the driver row when it does not exist yet.
func (r *SQLiteRepository) EnsureDriver(ctx context.Context, id, name string) error {
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO drivers (id, name) VALUES (?, ?) ON CONFLICT(id) DO NOTHING`, id, name); err != nil {
		return fmt.Errorf("ensure driver: %w", err)
	}
	return nil
}

// AddRide stores x and returns its id, generating one when x has none.
func (r *SQLiteRepository) AddRide(ctx context.Context, x core.Ride) (string, error) {
	x.ID = idOrNew(x.ID)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rides (id, driver_id, date, fare, tips, distance) VALUES (?, ?, ?, ?, ?, ?)`,
		x.ID, x.DriverID, FormatTime(x.Date), numericArg(x.Fare), numericArg(x.Tips), numericArg(x.Distance))
	if err != nil {
		return "", fmt.Errorf("insert ride: %w", err)
	}
	slog.DebugContext(ctx, "Ride saved to SQLite", "id", x.ID, "driver_id", x.DriverID)
	return x.ID, nil
}

func (r *SQLiteRepository) AddShift(ctx context.Context, x core.Shift) (string, error) {
	x.ID = idOrNew(x.ID)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shifts (id, driver_id, date, start_time, end_time) VALUES (?, ?, ?, ?, ?)`,
		x.ID, x.DriverID, FormatTime(x.Date), timeArg(x.StartTime), timeArg(x.EndTime))
	if err != nil {
		return "", fmt.Errorf("insert shift: %w", err)
	}
	return x.ID, nil
}

func (r *SQLiteRepository) AddFuelExpense(ctx context.Context, x core.FuelExpense) (string, error) {
	x.ID = idOrNew(x.ID)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fuel_expenses (id, driver_id, vehicle_id, date, amount, quantity) VALUES (?, ?, ?, ?, ?, ?)`,
		x.ID, x.DriverID, x.VehicleID, FormatTime(x.Date), numericArg(x.Amount), numericArg(x.Quantity))
	if err != nil {
		return "", fmt.Errorf("insert fuel expense: %w", err)
	}
	return x.ID, nil
}

func (r *SQLiteRepository) AddMaintenanceExpense(ctx context.Context, x core.MaintenanceExpense) (string, error) {
	x.ID = idOrNew(x.ID)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO maintenance_expenses (id, driver_id, vehicle_id, date, amount, description) VALUES (?, ?, ?, ?, ?, ?)`,
		x.ID, x.DriverID, x.VehicleID, FormatTime(x.Date), numericArg(x.Amount), x.Description)
	if err != nil {
		return "", fmt.Errorf("insert maintenance expense: %w", err)
	}
	return x.ID, nil
}

func (r *SQLiteRepository) AddInsuranceExpense(ctx context.Context, x core.InsuranceExpense) (string, error) {
	x.ID = idOrNew(x.ID)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO insurance_expenses (id, driver_id, vehicle_id, start_date, end_date, amount, provider) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		x.ID, x.DriverID, x.VehicleID, FormatTime(x.StartDate), timeArg(x.EndDate), numericArg(x.Amount), x.Provider)
	if err != nil {
		return "", fmt.Errorf("insert insurance expense: %w", err)
	}
	return x.ID, nil
}

type scanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryAll[T any](ctx context.Context, db queryer, what, query string, args []any, scan func(scanner) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
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

func rangeArgs(driverID string, dr core.DateRange) []any {
	return []any{driverID, FormatTime(dr.StartDate), FormatTime(dr.EndDate)}
}

func idOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// numericArg stores numbers as REAL and anything else as the raw text, so
// unparsable legacy values survive a round trip.
func numericArg(n core.Numeric) any {
	raw, ok := n.Raw()
	switch {
	case !ok:
		return nil
	case n.Valid():
		return n.Float()
	default:
		return raw
	}
}

func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return FormatTime(*t)
}

func optionalTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := ParseTime(s.String)
	if err != nil {
		return nil
	}
	return &t
}

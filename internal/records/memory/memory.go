package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"taxilog/internal/core"
	"taxilog/internal/records"
)

// Seed file names looked up by NewFromFiles.
const (
	RidesFile       = "rides.json"
	ShiftsFile      = "shifts.json"
	FuelFile        = "fuel.json"
	MaintenanceFile = "maintenance.json"
	InsuranceFile   = "insurance.json"
)

var _ records.Store = (*Store)(nil)

type Store struct {
	mu          sync.Mutex
	rides       []core.Ride
	shifts      []core.Shift
	fuel        []core.FuelExpense
	maintenance []core.MaintenanceExpense
	insurance   []core.InsuranceExpense
}

func New() *Store {
	return &Store{}
}

// Seed is the decoded content of a seed directory.
type Seed struct {
	Rides       []core.Ride
	Shifts      []core.Shift
	Fuel        []core.FuelExpense
	Maintenance []core.MaintenanceExpense
	Insurance   []core.InsuranceExpense
}

// DriverIDs returns the distinct driver ids referenced by the seed, in
// first-seen order.
func (sd Seed) DriverIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, x := range sd.Rides {
		add(x.DriverID)
	}
	for _, x := range sd.Shifts {
		add(x.DriverID)
	}
	for _, x := range sd.Fuel {
		add(x.DriverID)
	}
	for _, x := range sd.Maintenance {
		add(x.DriverID)
	}
	for _, x := range sd.Insurance {
		add(x.DriverID)
	}
	return ids
}

// ReadSeed decodes the seed files in base. A missing file reads as empty;
// a malformed one is an error.
func ReadSeed(base string) (Seed, error) {
	var sd Seed
	err := errors.Join(
		readFile(filepath.Join(base, RidesFile), &sd.Rides),
		readFile(filepath.Join(base, ShiftsFile), &sd.Shifts),
		readFile(filepath.Join(base, FuelFile), &sd.Fuel),
		readFile(filepath.Join(base, MaintenanceFile), &sd.Maintenance),
		readFile(filepath.Join(base, InsuranceFile), &sd.Insurance),
	)
	return sd, err
}

// NewFromFiles seeds a store from the JSON files found in base. Missing
// files are skipped, malformed ones are logged and skipped.
func NewFromFiles(base string) *Store {
	s := New()
	load(filepath.Join(base, RidesFile), &s.rides)
	load(filepath.Join(base, ShiftsFile), &s.shifts)
	load(filepath.Join(base, FuelFile), &s.fuel)
	load(filepath.Join(base, MaintenanceFile), &s.maintenance)
	load(filepath.Join(base, InsuranceFile), &s.insurance)
	return s
}

func load[T any](path string, into *[]T) {
	if err := readFile(path, into); err != nil {
		slog.Warn("Skipping malformed seed file", "path", path, "error", err)
	}
}

func readFile[T any](path string, into *[]T) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read seed file %s: %w", path, err)
	}
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		return fmt.Errorf("decode seed file %s: %w", path, err)
	}
	*into = items
	return nil
}

func (s *Store) AddRide(r core.Ride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rides = append(s.rides, r)
}

func (s *Store) AddShift(sh core.Shift) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shifts = append(s.shifts, sh)
}

func (s *Store) AddFuelExpense(e core.FuelExpense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fuel = append(s.fuel, e)
}

func (s *Store) AddMaintenanceExpense(e core.MaintenanceExpense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maintenance = append(s.maintenance, e)
}

func (s *Store) AddInsuranceExpense(e core.InsuranceExpense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insurance = append(s.insurance, e)
}

func (s *Store) ListRides(ctx context.Context, driverID string, r core.DateRange) ([]core.Ride, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list rides: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.rides, func(x core.Ride) bool { return x.DriverID == driverID && r.Contains(x.Date) }), nil
}

func (s *Store) ListShifts(ctx context.Context, driverID string, r core.DateRange) ([]core.Shift, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.shifts, func(x core.Shift) bool { return x.DriverID == driverID && r.Contains(x.Date) }), nil
}

func (s *Store) ListFuelExpenses(ctx context.Context, driverID string, r core.DateRange) ([]core.FuelExpense, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list fuel expenses: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.fuel, func(x core.FuelExpense) bool { return x.DriverID == driverID && r.Contains(x.Date) }), nil
}

func (s *Store) ListMaintenanceExpenses(ctx context.Context, driverID string, r core.DateRange) ([]core.MaintenanceExpense, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list maintenance expenses: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.maintenance, func(x core.MaintenanceExpense) bool { return x.DriverID == driverID && r.Contains(x.Date) }), nil
}

func (s *Store) ListInsuranceExpenses(ctx context.Context, driverID string, r core.DateRange) ([]core.InsuranceExpense, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list insurance expenses: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return filter(s.insurance, func(x core.InsuranceExpense) bool { return x.DriverID == driverID && r.Contains(x.StartDate) }), nil
}

// filter returns a copy so callers never alias the store's slices.
func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

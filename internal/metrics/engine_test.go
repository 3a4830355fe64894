package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxilog/internal/core"
	"taxilog/internal/records"
	"taxilog/internal/records/memory"
	"taxilog/internal/telemetry"
)

// Wednesday; the week runs Sunday 10 through Saturday 16 March 2024.
var wednesday = time.Date(2024, 3, 13, 15, 0, 0, 0, time.UTC)

func testEngine(store records.Store, rec *telemetry.Recorder) *Engine {
	return NewEngine(store, Config{
		Location: time.UTC,
		Now:      func() time.Time { return wednesday },
	}, nil, rec)
}

func scenarioStore() *memory.Store {
	s := memory.New()
	day := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	s.AddRide(core.Ride{ID: "a", DriverID: "d1", Date: day.Add(10 * time.Hour),
		Fare: core.NumericOf(50), Tips: core.NumericOf(5), Distance: core.NumericOf(20)})
	s.AddRide(core.Ride{ID: "b", DriverID: "d1", Date: day.Add(11 * time.Hour),
		Fare: core.NumericOf(30), Tips: core.NumericOf(0), Distance: core.NumericOf(10)})
	s.AddShift(core.Shift{ID: "s1", DriverID: "d1", Date: day, StartTime: at(9, 0), EndTime: at(13, 0)})
	s.AddFuelExpense(core.FuelExpense{ID: "f1", DriverID: "d1", Date: day, Amount: core.NumericOf(40)})

	// other driver and out-of-range records must not leak in
	s.AddRide(core.Ride{ID: "x", DriverID: "d2", Date: day, Fare: core.NumericOf(1000)})
	s.AddRide(core.Ride{ID: "y", DriverID: "d1", Date: day.AddDate(0, 0, -10), Fare: core.NumericOf(1000)})
	return s
}

func TestComputeWeekScenario(t *testing.T) {
	rep, err := testEngine(scenarioStore(), nil).Compute(context.Background(), "d1", "week")
	require.NoError(t, err)
	assert.False(t, rep.Degraded())
	assert.Equal(t, core.PeriodWeek, rep.Period)

	m := rep.Metrics
	assert.Equal(t, 85.0, m.Earnings)
	assert.Equal(t, 2, m.Rides)
	assert.Equal(t, 4.0, m.Hours)
	assert.Equal(t, 21.25, m.AvgPerHour)
	assert.Equal(t, 40.0, m.FuelExpenses)
	assert.Equal(t, 40.0, m.Expenses)
	assert.Equal(t, 45.0, m.Profit)
	assert.Equal(t, 6.25, m.TipsPercentage)
	assert.Equal(t, 30.0, m.DistanceTraveled)
	assert.Equal(t, 2.83, m.EarningsPerKm)
	assert.Equal(t, 1.33, m.CostPerKm)
	assert.Equal(t, 1.5, m.ProfitPerKm)
	assert.Equal(t, 2.0, m.RidesPerShift)
	assert.Zero(t, m.FuelEfficiency)

	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), m.DateRange.StartDate)
	assert.Equal(t, time.Date(2024, 3, 16, 23, 59, 59, int(999*time.Millisecond), time.UTC), m.DateRange.EndDate)
}

func TestComputeEmptyRange(t *testing.T) {
	rep, err := testEngine(memory.New(), nil).Compute(context.Background(), "d1", "day")
	require.NoError(t, err)

	m := rep.Metrics
	assert.Equal(t, core.Metrics{DateRange: m.DateRange}, m)
	assert.True(t, m.DateRange.EndDate.After(m.DateRange.StartDate))
}

func TestComputeOpenShift(t *testing.T) {
	s := memory.New()
	day := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	s.AddShift(core.Shift{ID: "open", DriverID: "d1", Date: day, StartTime: at(9, 0)})
	s.AddRide(core.Ride{ID: "r", DriverID: "d1", Date: day.Add(10 * time.Hour), Fare: core.NumericOf(12)})

	rep, err := testEngine(s, nil).Compute(context.Background(), "d1", "week")
	require.NoError(t, err)
	assert.Zero(t, rep.Metrics.Hours)
	assert.Zero(t, rep.Metrics.AvgPerHour)
	assert.Equal(t, 1, rep.Metrics.Rides)
	assert.Equal(t, 1.0, rep.Metrics.RidesPerShift)
}

func TestComputeDefaultsAndFallbackPeriods(t *testing.T) {
	e := testEngine(memory.New(), nil)

	rep, err := e.Compute(context.Background(), "d1", "")
	require.NoError(t, err)
	assert.Equal(t, core.PeriodWeek, rep.Period)

	rep, err = e.Compute(context.Background(), "d1", "fortnight")
	require.NoError(t, err)
	assert.Equal(t, core.PeriodAllTime, rep.Period)
	assert.Equal(t, core.AllTime(time.UTC), rep.Metrics.DateRange)
}

func TestComputeRejectsMissingDriver(t *testing.T) {
	rec := telemetry.New()
	_, err := testEngine(memory.New(), rec).Compute(context.Background(), "  ", "week")
	require.ErrorIs(t, err, core.ErrMissingDriverID)
	assert.True(t, IsInputError(err))
}

type flakyStore struct {
	*memory.Store
	fail    map[string]error
	pingErr error
}

func (f flakyStore) ListRides(ctx context.Context, id string, r core.DateRange) ([]core.Ride, error) {
	if err := f.fail[records.CollectionRides]; err != nil {
		return nil, err
	}
	return f.Store.ListRides(ctx, id, r)
}

func (f flakyStore) ListShifts(ctx context.Context, id string, r core.DateRange) ([]core.Shift, error) {
	if err := f.fail[records.CollectionShifts]; err != nil {
		return nil, err
	}
	return f.Store.ListShifts(ctx, id, r)
}

func (f flakyStore) ListFuelExpenses(ctx context.Context, id string, r core.DateRange) ([]core.FuelExpense, error) {
	if err := f.fail[records.CollectionFuel]; err != nil {
		return nil, err
	}
	return f.Store.ListFuelExpenses(ctx, id, r)
}

func (f flakyStore) ListMaintenanceExpenses(ctx context.Context, id string, r core.DateRange) ([]core.MaintenanceExpense, error) {
	if err := f.fail[records.CollectionMaintenance]; err != nil {
		return nil, err
	}
	return f.Store.ListMaintenanceExpenses(ctx, id, r)
}

func (f flakyStore) ListInsuranceExpenses(ctx context.Context, id string, r core.DateRange) ([]core.InsuranceExpense, error) {
	if err := f.fail[records.CollectionInsurance]; err != nil {
		return nil, err
	}
	return f.Store.ListInsuranceExpenses(ctx, id, r)
}

func (f flakyStore) Ping(context.Context) error { return f.pingErr }

func TestComputePartialFailureDegradesToEmpty(t *testing.T) {
	boom := errors.New("boom")
	store := flakyStore{Store: scenarioStore(), fail: map[string]error{records.CollectionFuel: boom}}

	rep, err := testEngine(store, nil).Compute(context.Background(), "d1", "week")
	require.NoError(t, err)
	assert.Equal(t, []string{records.CollectionFuel}, rep.Missing)
	assert.Equal(t, 85.0, rep.Metrics.Earnings)
	assert.Zero(t, rep.Metrics.FuelExpenses)
	assert.Equal(t, 85.0, rep.Metrics.Profit)
}

func TestComputeAllCollectionsFail(t *testing.T) {
	boom := errors.New("boom")
	fail := map[string]error{}
	for _, c := range records.Collections() {
		fail[c] = boom
	}
	store := flakyStore{Store: memory.New(), fail: fail}

	_, err := testEngine(store, nil).Compute(context.Background(), "d1", "week")
	require.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsInputError(err))
}

func TestComputePingFailure(t *testing.T) {
	down := errors.New("connection refused")
	store := flakyStore{Store: scenarioStore(), pingErr: down}

	_, err := testEngine(store, nil).Compute(context.Background(), "d1", "week")
	require.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, down)
}

func TestComputeAtUsesGivenInstant(t *testing.T) {
	e := testEngine(scenarioStore(), nil)
	rep, err := e.ComputeAt(context.Background(), "d1", "day", time.Date(2024, 3, 12, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Metrics.Rides)
	assert.Equal(t, 1, rep.Metrics.DateRange.Days())
}

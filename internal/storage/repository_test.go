package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxilog/internal/core"
)

var week = core.DateRange{
	StartDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	EndDate:   time.Date(2024, 3, 16, 23, 59, 59, int(999*time.Millisecond), time.UTC),
}

func openTemp(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "taxilog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)
	require.NoError(t, repo.EnsureDriver(ctx, "d1", "Mario"))
	require.NoError(t, repo.EnsureDriver(ctx, "d1", "Mario"))

	day := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	start, end := day.Add(9*time.Hour), day.Add(13*time.Hour)

	id, err := repo.AddRide(ctx, core.Ride{DriverID: "d1", Date: day.Add(10 * time.Hour),
		Fare: core.NumericOf(50), Tips: core.NumericOf(5), Distance: core.NumericOf(20)})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = repo.AddRide(ctx, core.Ride{ID: "late", DriverID: "d1", Date: day.AddDate(0, 0, 7)})
	require.NoError(t, err)
	_, err = repo.AddShift(ctx, core.Shift{DriverID: "d1", Date: day, StartTime: &start, EndTime: &end})
	require.NoError(t, err)
	_, err = repo.AddShift(ctx, core.Shift{DriverID: "d1", Date: day, StartTime: &start})
	require.NoError(t, err)
	_, err = repo.AddFuelExpense(ctx, core.FuelExpense{DriverID: "d1", Date: day, Amount: core.NumericOf(40), Quantity: core.NumericFrom("22,5")})
	require.NoError(t, err)
	_, err = repo.AddMaintenanceExpense(ctx, core.MaintenanceExpense{DriverID: "d1", Date: day, Amount: core.NumericFrom("abc")})
	require.NoError(t, err)
	_, err = repo.AddInsuranceExpense(ctx, core.InsuranceExpense{DriverID: "d1", StartDate: day, Amount: core.NumericOf(300)})
	require.NoError(t, err)
	_, err = repo.AddInsuranceExpense(ctx, core.InsuranceExpense{DriverID: "d1", StartDate: day.AddDate(0, -2, 0), Amount: core.NumericOf(999)})
	require.NoError(t, err)

	rides, err := repo.ListRides(ctx, "d1", week)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, id, rides[0].ID)
	assert.Equal(t, 50.0, rides[0].Fare.Float())
	assert.True(t, rides[0].Date.Equal(day.Add(10*time.Hour)))

	shifts, err := repo.ListShifts(ctx, "d1", week)
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	open := 0
	for _, s := range shifts {
		if s.IsOpen() {
			open++
		}
	}
	assert.Equal(t, 1, open)

	fuel, err := repo.ListFuelExpenses(ctx, "d1", week)
	require.NoError(t, err)
	require.Len(t, fuel, 1)
	assert.Equal(t, 22.5, fuel[0].Quantity.Float())

	maint, err := repo.ListMaintenanceExpenses(ctx, "d1", week)
	require.NoError(t, err)
	require.Len(t, maint, 1)
	raw, _ := maint[0].Amount.Raw()
	assert.Equal(t, "abc", raw)
	assert.Zero(t, maint[0].Amount.Float())

	ins, err := repo.ListInsuranceExpenses(ctx, "d1", week)
	require.NoError(t, err)
	require.Len(t, ins, 1)
	assert.Equal(t, 300.0, ins[0].Amount.Float())

	other, err := repo.ListRides(ctx, "d2", week)
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, repo.Ping(ctx))
}

func TestRangeMatchesLegacyDateLayouts(t *testing.T) {
	ctx := context.Background()
	repo := openTemp(t)

	for i, date := range []string{
		"2024-03-10",
		"2024-03-10 12:00:00",
		"2024-03-12T10:00:00.000Z",
		"2024-03-16 23:00:00",
		"2024-03-09 23:59:59",
		"2024-03-17",
	} {
		_, err := repo.db.ExecContext(ctx,
			`INSERT INTO rides (id, driver_id, date, fare) VALUES (?, 'd1', ?, 10)`, fmt.Sprintf("r%d", i), date)
		require.NoError(t, err)
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO insurance_expenses (id, driver_id, start_date, amount) VALUES ('i1', 'd1', '2024-03-10', 300)`)
	require.NoError(t, err)

	rides, err := repo.ListRides(ctx, "d1", week)
	require.NoError(t, err)
	require.Len(t, rides, 4)
	ids := make([]string, 0, len(rides))
	for _, r := range rides {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"r0", "r1", "r2", "r3"}, ids)

	ins, err := repo.ListInsuranceExpenses(ctx, "d1", week)
	require.NoError(t, err)
	require.Len(t, ins, 1)
	assert.Equal(t, 300.0, ins[0].Amount.Float())
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxilog.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}

func TestListRidesWithMock(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(listRidesQuery)).
		WithArgs("d1", FormatTime(week.StartDate), FormatTime(week.EndDate)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "driver_id", "date", "fare", "tips", "distance"}).
			AddRow("r1", "d1", "2024-03-12T10:00:00.000Z", 50.0, "5", nil).
			AddRow("r2", "d1", "2024-03-12", "12,5", nil, int64(7)))

	rides, err := newRepository(db).ListRides(context.Background(), "d1", week)
	require.NoError(t, err)
	require.Len(t, rides, 2)
	assert.Equal(t, 50.0, rides[0].Fare.Float())
	assert.Equal(t, 5.0, rides[0].Tips.Float())
	assert.False(t, rides[0].Distance.Valid())
	assert.Equal(t, 12.5, rides[1].Fare.Float())
	assert.Equal(t, 7.0, rides[1].Distance.Float())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFailuresAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ioErr := errors.New("disk I/O error")
	mock.ExpectQuery(regexp.QuoteMeta(listInsuranceQuery)).WillReturnError(ioErr)

	_, err = newRepository(db).ListInsuranceExpenses(context.Background(), "d1", week)
	require.ErrorIs(t, err, ioErr)
	assert.Contains(t, err.Error(), "query insurance expenses")
}

func TestParseTimeLegacyLayouts(t *testing.T) {
	for _, in := range []string{"2024-03-12T10:00:00.000Z", "2024-03-12T10:00:00+01:00", "2024-03-12 10:00:00", "2024-03-12"} {
		_, err := ParseTime(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseTime("12/03/2024")
	assert.Error(t, err)
}

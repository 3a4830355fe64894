// Package google reads a driver logbook kept in a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"taxilog/internal/core"
	"taxilog/internal/records"
)

// Tabs names the sheet holding each collection.
type Tabs struct {
	Rides       string
	Shifts      string
	Fuel        string
	Maintenance string
	Insurance   string
}

func DefaultTabs() Tabs {
	return Tabs{
		Rides:       "Rides",
		Shifts:      "Shifts",
		Fuel:        "Fuel",
		Maintenance: "Maintenance",
		Insurance:   "Insurance",
	}
}

// Config selects the spreadsheet and credentials. ServiceAccountJSON wins
// over ServiceAccountFile; with neither, GOOGLE_APPLICATION_CREDENTIALS is
// consulted.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
	Tabs               Tabs
	Location           *time.Location
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	tabs          Tabs
	loc           *time.Location
}

var (
	_ records.Store  = (*Client)(nil)
	_ records.Pinger = (*Client)(nil)
)

// New creates a read-only Sheets client using service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg), nil
}

// NewWithService wraps an existing service.
func NewWithService(svc *gsheet.Service, cfg Config) *Client {
	tabs := cfg.Tabs
	def := DefaultTabs()
	if tabs.Rides == "" {
		tabs.Rides = def.Rides
	}
	if tabs.Shifts == "" {
		tabs.Shifts = def.Shifts
	}
	if tabs.Fuel == "" {
		tabs.Fuel = def.Fuel
	}
	if tabs.Maintenance == "" {
		tabs.Maintenance = def.Maintenance
	}
	if tabs.Insurance == "" {
		tabs.Insurance = def.Insurance
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, tabs: tabs, loc: loc}
}

func credentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// Ping fetches only the spreadsheet id.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do(); err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	return nil
}

// readTab reads raw cell values. Numbers arrive unformatted so locale
// grouping never reaches the parser; dates keep their displayed form.
func (c *Client) readTab(ctx context.Context, tab string) (table, error) {
	rng := fmt.Sprintf("%s!A:Z", tab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return table{}, fmt.Errorf("read %s: %w", rng, err)
	}
	return newTable(resp.Values), nil
}

func (c *Client) ListRides(ctx context.Context, driverID string, r core.DateRange) ([]core.Ride, error) {
	t, err := c.readTab(ctx, c.tabs.Rides)
	if err != nil {
		return nil, err
	}
	all, skipped := parseRides(t, c.loc)
	c.logSkipped(ctx, records.CollectionRides, skipped)
	return keep(all, func(x core.Ride) bool { return x.DriverID == driverID && r.Contains(x.Date) }), nil
}

func (c *Client) ListShifts(ctx context.Context, driverID string, r core.DateRange) ([]core.Shift, error) {
	t, err := c.readTab(ctx, c.tabs.Shifts)
	if err != nil {
		return nil, err
	}
	all, skipped := parseShifts(t, c.loc)
	c.logSkipped(ctx, records.CollectionShifts, skipped)
	return keep(all, func(x core.Shift) bool { return x.DriverID == driverID && r.Contains(x.Date) }), nil
}

func (c *Client) ListFuelExpenses(ctx context.Context, driverID string, r core.DateRange) ([]core.FuelExpense, error) {
	t, err := c.readTab(ctx, c.tabs.Fuel)
	if err != nil {
		return nil, err
	}
	all, skipped := parseFuel(t, c.loc)
	c.logSkipped(ctx, records.CollectionFuel, skipped)
	return keep(all, func(x core.FuelExpense) bool { return x.DriverID == driverID && r.Contains(x.Date) }), nil
}

func (c *Client) ListMaintenanceExpenses(ctx context.Context, driverID string, r core.DateRange) ([]core.MaintenanceExpense, error) {
	t, err := c.readTab(ctx, c.tabs.Maintenance)
	if err != nil {
		return nil, err
	}
	all, skipped := parseMaintenance(t, c.loc)
	c.logSkipped(ctx, records.CollectionMaintenance, skipped)
	return keep(all, func(x core.MaintenanceExpense) bool { return x.DriverID == driverID && r.Contains(x.Date) }), nil
}

func (c *Client) ListInsuranceExpenses(ctx context.Context, driverID string, r core.DateRange) ([]core.InsuranceExpense, error) {
	t, err := c.readTab(ctx, c.tabs.Insurance)
	if err != nil {
		return nil, err
	}
	all, skipped := parseInsurance(t, c.loc)
	c.logSkipped(ctx, records.CollectionInsurance, skipped)
	return keep(all, func(x core.InsuranceExpense) bool { return x.DriverID == driverID && r.Contains(x.StartDate) }), nil
}

func (c *Client) logSkipped(ctx context.Context, collection string, n int) {
	if n == 0 {
		return
	}
	slog.WarnContext(ctx, "Skipped logbook rows with unreadable dates",
		"component", "sheets", "collection", collection, "rows", n)
}

func keep[T any](in []T, ok func(T) bool) []T {
	var out []T
	for _, x := range in {
		if ok(x) {
			out = append(out, x)
		}
	}
	return out
}

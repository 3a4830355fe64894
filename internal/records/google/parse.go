package google

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"taxilog/internal/core"
)

// table is one logbook tab: a header row followed by records. Columns are
// found by header name, so tabs may be reordered or carry extra columns.
type table struct {
	cols map[string]int
	rows [][]string
}

func newTable(values [][]interface{}) table {
	t := table{cols: map[string]int{}}
	if len(values) == 0 {
		return t
	}
	for i, h := range toStrings(values[0]) {
		key := headerKey(h)
		if _, dup := t.cols[key]; !dup && key != "" {
			t.cols[key] = i
		}
	}
	for _, v := range values[1:] {
		row := toStrings(v)
		if blank(row) {
			continue
		}
		t.rows = append(t.rows, row)
	}
	return t
}

// get returns the first non-empty cell among the header aliases.
func (t table) get(row []string, aliases ...string) string {
	for _, a := range aliases {
		if idx, ok := t.cols[headerKey(a)]; ok {
			if v := strings.TrimSpace(safeGet(row, idx)); v != "" {
				return v
			}
		}
	}
	return ""
}

func (t table) has(aliases ...string) bool {
	for _, a := range aliases {
		if _, ok := t.cols[headerKey(a)]; ok {
			return true
		}
	}
	return false
}

// headerKey folds case, spaces, '_' and '-' so "Start Date", "start_date"
// and "StartDate" match.
func headerKey(h string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(h)))
}

var (
	hDriver      = []string{"Driver", "Driver ID"}
	hID          = []string{"ID"}
	hDate        = []string{"Date"}
	hFare        = []string{"Fare"}
	hTips        = []string{"Tips", "Tip"}
	hDistance    = []string{"Distance", "Km"}
	hStart       = []string{"Start", "Start Time"}
	hEnd         = []string{"End", "End Time"}
	hAmount      = []string{"Amount"}
	hQuantity    = []string{"Quantity", "Litres", "Liters"}
	hVehicle     = []string{"Vehicle", "Vehicle ID"}
	hStartDate   = []string{"Start Date"}
	hEndDate     = []string{"End Date"}
	hDescription = []string{"Description"}
	hProvider    = []string{"Provider"}
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
	"02/01/2006 15:04",
	"02/01/2006",
}

var clockLayouts = []string{"15:04:05", "15:04"}

// parseDate reads a cell in loc. Cells without a zone are local.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseInstant accepts a full date-time, or a bare clock time that is
// placed on day.
func parseInstant(s string, day time.Time, loc *time.Location) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	if t, err := parseDate(s, loc); err == nil {
		return &t, nil
	}
	for _, layout := range clockLayouts {
		if c, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			y, m, d := day.In(loc).Date()
			t := time.Date(y, m, d, c.Hour(), c.Minute(), c.Second(), 0, loc)
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized time %q", s)
}

func numeric(t table, row []string, aliases ...string) core.Numeric {
	if !t.has(aliases...) {
		return core.Numeric{}
	}
	v := t.get(row, aliases...)
	if v == "" {
		return core.Numeric{}
	}
	return core.NumericFrom(stripCurrency(v))
}

// stripCurrency drops a leading or trailing euro sign and spaces that
// formatted cells carry.
func stripCurrency(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "€")
	s = strings.TrimSuffix(s, "€")
	return strings.TrimSpace(s)
}

func parseRides(t table, loc *time.Location) ([]core.Ride, int) {
	var (
		out     []core.Ride
		skipped int
	)
	for _, row := range t.rows {
		date, err := parseDate(t.get(row, hDate...), loc)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, core.Ride{
			ID:       t.get(row, hID...),
			DriverID: t.get(row, hDriver...),
			Date:     date,
			Fare:     numeric(t, row, hFare...),
			Tips:     numeric(t, row, hTips...),
			Distance: numeric(t, row, hDistance...),
		})
	}
	return out, skipped
}

func parseShifts(t table, loc *time.Location) ([]core.Shift, int) {
	var (
		out     []core.Shift
		skipped int
	)
	for _, row := range t.rows {
		date, err := parseDate(t.get(row, hDate...), loc)
		if err != nil {
			skipped++
			continue
		}
		start, err := parseInstant(t.get(row, hStart...), date, loc)
		if err != nil {
			skipped++
			continue
		}
		// an unreadable end is treated like a shift still open
		end, _ := parseInstant(t.get(row, hEnd...), date, loc)
		out = append(out, core.Shift{
			ID:        t.get(row, hID...),
			DriverID:  t.get(row, hDriver...),
			Date:      date,
			StartTime: start,
			EndTime:   end,
		})
	}
	return out, skipped
}

func parseFuel(t table, loc *time.Location) ([]core.FuelExpense, int) {
	var (
		out     []core.FuelExpense
		skipped int
	)
	for _, row := range t.rows {
		date, err := parseDate(t.get(row, hDate...), loc)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, core.FuelExpense{
			ID:        t.get(row, hID...),
			DriverID:  t.get(row, hDriver...),
			VehicleID: t.get(row, hVehicle...),
			Date:      date,
			Amount:    numeric(t, row, hAmount...),
			Quantity:  numeric(t, row, hQuantity...),
		})
	}
	return out, skipped
}

func parseMaintenance(t table, loc *time.Location) ([]core.MaintenanceExpense, int) {
	var (
		out     []core.MaintenanceExpense
		skipped int
	)
	for _, row := range t.rows {
		date, err := parseDate(t.get(row, hDate...), loc)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, core.MaintenanceExpense{
			ID:          t.get(row, hID...),
			DriverID:    t.get(row, hDriver...),
			VehicleID:   t.get(row, hVehicle...),
			Date:        date,
			Amount:      numeric(t, row, hAmount...),
			Description: t.get(row, hDescription...),
		})
	}
	return out, skipped
}

func parseInsurance(t table, loc *time.Location) ([]core.InsuranceExpense, int) {
	var (
		out     []core.InsuranceExpense
		skipped int
	)
	for _, row := range t.rows {
		start, err := parseDate(t.get(row, hStartDate...), loc)
		if err != nil {
			skipped++
			continue
		}
		var end *time.Time
		if v := t.get(row, hEndDate...); v != "" {
			if e, err := parseDate(v, loc); err == nil {
				end = &e
			}
		}
		out = append(out, core.InsuranceExpense{
			ID:        t.get(row, hID...),
			DriverID:  t.get(row, hDriver...),
			VehicleID: t.get(row, hVehicle...),
			StartDate: start,
			EndDate:   end,
			Amount:    numeric(t, row, hAmount...),
			Provider:  t.get(row, hProvider...),
		})
	}
	return out, skipped
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case nil:
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

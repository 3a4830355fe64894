package metrics

import (
	"math"
	"time"

	"taxilog/internal/core"
)

// Totals are the raw category sums for one request, before any ratio is
// derived. Failed collections contribute nothing.
type Totals struct {
	Rides               int
	Shifts              int
	Earnings            float64 // fares + tips
	Fares               float64
	Tips                float64
	Distance            float64
	Hours               float64
	FuelExpenses        float64
	MaintenanceExpenses float64
	InsuranceExpenses   float64
	FuelVolume          float64
	// ShiftsWithRides counts distinct local calendar days holding at least
	// one ride.
	ShiftsWithRides int
}

// Expenses is always the sum of the three categories.
func (t Totals) Expenses() float64 {
	return t.FuelExpenses + t.MaintenanceExpenses + t.InsuranceExpenses
}

// Aggregate reduces the fetched collections to sums. Day buckets for rides
// use loc; a nil loc means UTC.
func Aggregate(c Collections, loc *time.Location) Totals {
	if loc == nil {
		loc = time.UTC
	}
	var t Totals

	rides := c.Rides.OrEmpty()
	days := make(map[string]struct{}, len(rides))
	for _, r := range rides {
		fare := r.Fare.Float()
		tips := r.Tips.Float()
		t.Fares += fare
		t.Tips += tips
		t.Earnings += fare + tips
		t.Distance += r.Distance.Float()
		days[r.Date.In(loc).Format(time.DateOnly)] = struct{}{}
	}
	t.Rides = len(rides)
	t.ShiftsWithRides = len(days)

	shifts := c.Shifts.OrEmpty()
	t.Shifts = len(shifts)
	for _, s := range shifts {
		t.Hours += shiftHours(s)
	}

	fuel := c.Fuel.OrEmpty()
	for _, e := range fuel {
		t.FuelExpenses += e.Amount.Float()
		t.FuelVolume += e.Quantity.Float()
	}
	for _, e := range c.Maintenance.OrEmpty() {
		t.MaintenanceExpenses += e.Amount.Float()
	}
	for _, e := range c.Insurance.OrEmpty() {
		t.InsuranceExpenses += e.Amount.Float()
	}

	return t
}

// shiftHours is zero for open shifts and inverted bounds.
func shiftHours(s core.Shift) float64 {
	d, ok := s.Duration()
	if !ok {
		return 0
	}
	h := d.Hours()
	if math.IsNaN(h) || h < 0 {
		return 0
	}
	return h
}

package metrics

import (
	"math"

	"taxilog/internal/core"
)

// Derive turns the sums into the reported metrics. Every ratio with a zero
// denominator is 0. Currency totals are left unrounded.
func Derive(t Totals, r core.DateRange) core.Metrics {
	expenses := t.Expenses()
	net := t.Earnings - expenses

	m := core.Metrics{
		Earnings:            t.Earnings,
		Rides:               t.Rides,
		Hours:               core.Round2(t.Hours),
		Expenses:            expenses,
		FuelExpenses:        t.FuelExpenses,
		MaintenanceExpenses: t.MaintenanceExpenses,
		InsuranceExpenses:   t.InsuranceExpenses,
		Profit:              core.Round2(net),
		DistanceTraveled:    t.Distance,
		DateRange:           r,
	}

	if t.Hours > 0 {
		// floored at one hour so sub-hour periods do not inflate the rate
		m.AvgPerHour = core.Round2(t.Earnings / math.Max(t.Hours, 1))
	}
	if t.Fares > 0 {
		m.TipsPercentage = core.Round2(t.Tips / t.Fares * 100)
	}
	if t.ShiftsWithRides > 0 {
		m.RidesPerShift = core.Round2(float64(t.Rides) / float64(t.ShiftsWithRides))
	}
	if t.Distance > 0 && t.FuelExpenses > 0 && t.FuelVolume > 0 {
		m.FuelEfficiency = core.Round2(t.Distance / t.FuelVolume)
	}
	if t.Distance > 0 {
		m.EarningsPerKm = core.Round2(t.Earnings / t.Distance)
		m.CostPerKm = core.Round2(expenses / t.Distance)
		m.ProfitPerKm = core.Round2(net / t.Distance)
	}

	return m
}

package core

// Metrics is the computed, never persisted, performance summary for one
// driver and one period.
type Metrics struct {
	Earnings            float64   `json:"earnings"`
	Rides               int       `json:"rides"`
	Hours               float64   `json:"hours"`
	AvgPerHour          float64   `json:"avgPerHour"`
	Expenses            float64   `json:"expenses"`
	FuelExpenses        float64   `json:"fuelExpenses"`
	MaintenanceExpenses float64   `json:"maintenanceExpenses"`
	InsuranceExpenses   float64   `json:"insuranceExpenses"`
	Profit              float64   `json:"profit"`
	TipsPercentage      float64   `json:"tipsPercentage"`
	RidesPerShift       float64   `json:"ridesPerShift"`
	DistanceTraveled    float64   `json:"distanceTraveled"`
	FuelEfficiency      float64   `json:"fuelEfficiency"`
	EarningsPerKm       float64   `json:"earningsPerKm"`
	CostPerKm           float64   `json:"costPerKm"`
	ProfitPerKm         float64   `json:"profitPerKm"`
	DateRange           DateRange `json:"dateRange"`
}

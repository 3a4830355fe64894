package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Ride is a single completed fare event.
	Ride struct {
		ID       string    `json:"id"`
		DriverID string    `json:"driverId"`
		Date     time.Time `json:"date"`
		Fare     Numeric   `json:"fare"`
		Tips     Numeric   `json:"tips"`
		Distance Numeric   `json:"distance"`
	}

	// Shift is a work session. EndTime stays nil while the shift is open.
	Shift struct {
		ID        string     `json:"id"`
		DriverID  string     `json:"driverId"`
		Date      time.Time  `json:"date"`
		StartTime *time.Time `json:"startTime,omitempty"`
		EndTime   *time.Time `json:"endTime,omitempty"`
	}

	FuelExpense struct {
		ID        string    `json:"id"`
		DriverID  string    `json:"driverId"`
		VehicleID string    `json:"vehicleId,omitempty"`
		Date      time.Time `json:"date"`
		Amount    Numeric   `json:"amount"`
		Quantity  Numeric   `json:"quantity"` // litres
	}

	MaintenanceExpense struct {
		ID          string    `json:"id"`
		DriverID    string    `json:"driverId"`
		VehicleID   string    `json:"vehicleId,omitempty"`
		Date        time.Time `json:"date"`
		Amount      Numeric   `json:"amount"`
		Description string    `json:"description,omitempty"`
	}

	// InsuranceExpense is a policy payment. It is filtered by StartDate,
	// not by a point-in-time date.
	InsuranceExpense struct {
		ID        string     `json:"id"`
		DriverID  string     `json:"driverId"`
		VehicleID string     `json:"vehicleId,omitempty"`
		StartDate time.Time  `json:"startDate"`
		EndDate   *time.Time `json:"endDate,omitempty"`
		Amount    Numeric    `json:"amount"`
		Provider  string     `json:"provider,omitempty"`
	}
)

var (
	ErrMissingDriverID = errors.New("missing driver id")
	ErrInvalidDriverID = errors.New("invalid driver id")
)

// ValidateDriverID rejects blank ids and ids carrying control characters.
func ValidateDriverID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingDriverID
	}
	if len(id) > 128 {
		return ErrInvalidDriverID
	}
	for _, r := range id {
		if r < 32 || r == 127 {
			return ErrInvalidDriverID
		}
	}
	return nil
}

// Duration returns the worked time of the shift. ok is false when either
// bound is missing or the end precedes the start.
func (s Shift) Duration() (d time.Duration, ok bool) {
	if s.StartTime == nil || s.EndTime == nil {
		return 0, false
	}
	d = s.EndTime.Sub(*s.StartTime)
	if d < 0 {
		return 0, false
	}
	return d, true
}

// IsOpen reports whether the shift is still running.
func (s Shift) IsOpen() bool {
	return s.StartTime != nil && s.EndTime == nil
}

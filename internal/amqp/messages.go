package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"taxilog/internal/core"
)

// MetricsRequestMessage asks the worker to compute metrics for one driver.
// At optionally pins the reference day (YYYY-MM-DD) instead of "now".
type MetricsRequestMessage struct {
	RequestID string    `json:"requestId"`
	DriverID  string    `json:"driverId"`
	Period    string    `json:"period,omitempty"`
	At        string    `json:"at,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMetricsRequestMessage(driverID, period string) *MetricsRequestMessage {
	return &MetricsRequestMessage{
		RequestID: uuid.NewString(),
		DriverID:  driverID,
		Period:    period,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MetricsRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MetricsRequestMessageFromJSON decodes a request. Unknown fields are
// ignored.
func MetricsRequestMessageFromJSON(data []byte) (*MetricsRequestMessage, error) {
	var msg MetricsRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Error kinds carried by a failed result.
const (
	ErrorKindInvalidInput = "invalid_input"
	ErrorKindUnavailable  = "unavailable"
)

// MetricsResultMessage is the reply to a request. Exactly one of Metrics
// and Error is set.
type MetricsResultMessage struct {
	RequestID string        `json:"requestId"`
	DriverID  string        `json:"driverId"`
	Period    string        `json:"period,omitempty"`
	Metrics   *core.Metrics `json:"metrics,omitempty"`
	Missing   []string      `json:"missing,omitempty"`
	Error     string        `json:"error,omitempty"`
	ErrorKind string        `json:"errorKind,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func (m *MetricsResultMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MetricsResultMessageFromJSON(data []byte) (*MetricsResultMessage, error) {
	var msg MetricsResultMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Metrics == nil && msg.Error == "" {
		return nil, errors.New("result carries neither metrics nor error")
	}
	return &msg, nil
}

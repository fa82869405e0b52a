// internal/app/ingest/message.go
package ingest

import (
	"fmt"
	"strconv"
	"strings"
)

// Message is one inbound telemetry payload. One TCP read carries one
// JSON-encoded Message; device_id and data are mandatory, timestamp and
// per-element unit are optional.
type Message struct {
	DeviceID  string    `json:"device_id"`
	Timestamp string    `json:"timestamp,omitempty"` // ISO-8601 with timezone offset
	Data      []Element `json:"data"`
}

// Element is one reading within a message. Value is declared as any so
// that a single malformed element fails that element, not the whole
// batch: numbers and numeric strings coerce, anything else becomes a
// per-element error.
type Element struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// Acknowledgment statuses.
const (
	StatusSuccess = "success"         // at least one reading stored, no errors
	StatusPartial = "partial_success" // at least one reading stored, some per-element errors
	StatusError   = "error"           // nothing stored
)

// Response is the structured acknowledgment returned to the sender on
// the same connection, for every message and every failure mode.
type Response struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	StoredCount int      `json:"stored_count"`
	DeviceName  string   `json:"device_name,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// coerceValue converts an element value to float64. JSON numbers arrive
// as float64; numeric strings (a common firmware quirk) are parsed.
// Everything else is an error for that element.
func coerceValue(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}

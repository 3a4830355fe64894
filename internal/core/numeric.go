package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Numeric is a numeric record field as it was stored, before coercion.
// Records written by older clients carry amounts as strings, nulls or
// garbage; Numeric keeps whatever came in and only Float interprets it.
type Numeric struct {
	raw string
	set bool
}

// NumericOf wraps an already numeric value.
func NumericOf(f float64) Numeric {
	return Numeric{raw: strconv.FormatFloat(f, 'f', -1, 64), set: true}
}

// NumericFrom wraps a raw textual value.
func NumericFrom(s string) Numeric {
	return Numeric{raw: s, set: true}
}

// Float returns the value, or 0 when it is missing or unparsable.
func (n Numeric) Float() float64 {
	if !n.set {
		return 0
	}
	return ParseFloatOrZero(n.raw)
}

// Valid reports whether the field holds a usable number.
func (n Numeric) Valid() bool {
	if !n.set {
		return false
	}
	_, ok := parseFloat(n.raw)
	return ok
}

// Raw returns the stored text and whether anything was stored at all.
func (n Numeric) Raw() (string, bool) {
	return n.raw, n.set
}

func (n Numeric) String() string {
	if !n.set {
		return "<nil>"
	}
	return n.raw
}

// ParseFloatOrZero is the single coercion point for record numbers:
// blank, non-numeric, NaN and infinite inputs all become 0.
// A single comma followed by one or two digits is a decimal comma
// ("12,50" == 12.5). Any other comma, such as the grouping in "1,234",
// makes the input non-numeric.
func ParseFloatOrZero(s string) float64 {
	f, _ := parseFloat(s)
	return f
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		if !decimalComma(s, i) {
			return 0, false
		}
		s = s[:i] + "." + s[i+1:]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func decimalComma(s string, i int) bool {
	if strings.Contains(s, ".") || strings.Count(s, ",") != 1 {
		return false
	}
	frac := s[i+1:]
	if len(frac) < 1 || len(frac) > 2 {
		return false
	}
	for _, c := range frac {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// MarshalJSON emits a number when the value parses and null otherwise.
func (n Numeric) MarshalJSON() ([]byte, error) {
	f, ok := parseFloat(n.raw)
	if !n.set || !ok {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts numbers, strings and null. It never fails on
// content, only on malformed JSON.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*n = Numeric{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = NumericFrom(s)
		return nil
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*n = NumericFrom(string(data))
		return nil
	default:
		var num json.Number
		if err := json.Unmarshal(data, &num); err != nil {
			// objects and arrays are kept as raw text and count as zero
			*n = NumericFrom(string(data))
			return nil
		}
		*n = NumericFrom(num.String())
		return nil
	}
}

// Scan implements sql.Scanner for untyped SQLite/Postgres columns.
func (n *Numeric) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n = Numeric{}
	case float64:
		*n = NumericOf(v)
	case float32:
		*n = NumericOf(float64(v))
	case int64:
		*n = NumericFrom(strconv.FormatInt(v, 10))
	case int32:
		*n = NumericFrom(strconv.FormatInt(int64(v), 10))
	case []byte:
		*n = NumericFrom(string(v))
	case string:
		*n = NumericFrom(v)
	default:
		*n = NumericFrom(fmt.Sprint(v))
	}
	return nil
}

// Round2 rounds half away from zero to two decimals.
func Round2(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return math.Round(f*100) / 100
}

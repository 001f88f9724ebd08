package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Comes interprets the "comes" field of a submission. Only the boolean true
// and the string "true" mean the guest attends.
func Comes(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	}
	return false
}

// Truthy reports whether v is a truthy JSON value: true, a non-empty string
// or a non-zero number.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0 && !math.IsNaN(f)
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	}
	return true
}

// maxGuestCount bounds a head count so the conversion to int cannot overflow
const maxGuestCount = math.MaxInt32

// GuestCount converts the "guests" field to a head count. ok is false when
// the value is not a finite, non-negative number; the count is 0 then.
func GuestCount(v any) (n int, ok bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case int:
		f = float64(t)
	case float64:
		f = t
	case json.Number:
		var err error
		if f, err = t.Float64(); err != nil {
			return 0, false
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		var err error
		if f, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, false
		}
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > maxGuestCount {
		return 0, false
	}
	return int(f), true
}

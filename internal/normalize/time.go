// Package normalize converts the raw scalars found in data download packages into comparable values.
package normalize

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
)

// ISOLayout is the layout of every timestamp produced by this package.
const ISOLayout = "2006-01-02T15:04:05-07:00"

// Epoch bounds accepted by EpochToISO: years 1 to 9999.
const (
	minEpoch = -62135596800
	maxEpoch = 253402300799
)

// EpochToISO converts a Unix epoch in seconds to an ISO 8601 UTC timestamp.
//
// v can be an integer, a float, a json.Number or a numeric string. Fractions of seconds are truncated.
// On any failure, the string form of v is returned unchanged.
func EpochToISO(log *slog.Logger, v any) string {
	t, err := epochTime(v)
	if err != nil {
		log.Debug("Could not convert epoch timestamp", "value", v, "error", err)
		return toString(v)
	}
	return t.Format(ISOLayout)
}

// EpochToDate behaves like EpochToISO but only keeps the calendar date.
func EpochToDate(log *slog.Logger, v any) string {
	t, err := epochTime(v)
	if err != nil {
		log.Debug("Could not convert epoch timestamp to date", "value", v, "error", err)
		return toString(v)
	}
	return t.Format(time.DateOnly)
}

func epochTime(v any) (time.Time, error) {
	var f float64
	switch t := v.(type) {
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case float64:
		f = t
	case json.Number:
		n, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return time.Time{}, err
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return time.Time{}, err
		}
		f = n
	case fmt.Stringer:
		n, err := strconv.ParseFloat(strings.TrimSpace(t.String()), 64)
		if err != nil {
			return time.Time{}, err
		}
		f = n
	default:
		return time.Time{}, fmt.Errorf("unsupported epoch type %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("epoch %v is not finite", f)
	}
	sec := math.Trunc(f)
	if sec < minEpoch || sec > maxEpoch {
		return time.Time{}, fmt.Errorf("epoch %v is out of range", f)
	}
	return time.Unix(int64(sec), 0).UTC(), nil
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseISO parses the ISO 8601 shapes found in exports.
// Timestamps without an offset are read as UTC.
func ParseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortKeyISO returns a key sorting valid timestamps from most to least recent.
// Empty and unparseable values map to +Inf so they sort last.
func SortKeyISO(s string) float64 {
	t, ok := ParseISO(s)
	if !ok {
		return math.Inf(1)
	}
	return -float64(t.UnixNano()) / float64(time.Second)
}

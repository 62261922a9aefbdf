// Package units converts the duration strings found in query logs
// ("1.5s", "250ms", "80.5µs", bare numbers) into a single target unit.
package units

import (
	"log/slog"
	"strconv"
	"strings"
)

// suffixes in check order. Detection is substring-based and the first
// suffix found anywhere in the string wins, so "ms" must be checked
// before "s" and "s" before "m". Do not reorder.
var secondsFactors = []struct {
	suffix string
	factor float64
}{
	{"us", 1.0 / 1_000_000},
	{"µs", 1.0 / 1_000_000},
	{"ms", 1.0 / 1_000},
	{"s", 1},
	{"m", 60},
	{"h", 3600},
}

var microsecondsFactors = []struct {
	suffix string
	factor float64
}{
	{"us", 1},
	{"µs", 1},
	{"ms", 1_000},
	{"s", 1_000_000},
	{"m", 60_000_000},
	{"h", 3_600_000_000},
}

// ToSeconds converts a duration value to seconds. Accepts strings with a
// unit suffix, bare numeric strings, and plain numbers. Anything
// unparsable converts to zero.
func ToSeconds(v any) float64 {
	return convert(v, secondsFactors)
}

// ToMicroseconds converts a duration value to microseconds.
func ToMicroseconds(v any) float64 {
	return convert(v, microsecondsFactors)
}

func convert(v any, factors []struct {
	suffix string
	factor float64
}) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		for _, f := range factors {
			if strings.Contains(s, f.suffix) {
				n, err := strconv.ParseFloat(strings.ReplaceAll(s, f.suffix, ""), 64)
				if err != nil {
					slog.Warn("unparsable duration", "value", t)
					return 0
				}
				return n * f.factor
			}
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			slog.Warn("unparsable duration", "value", t)
			return 0
		}
		return n
	default:
		slog.Warn("unsupported duration type", "value", v)
		return 0
	}
}

package matrix

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	reNumber = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)
	// currency and unit markers seen in price sheets; matched case-insensitively
	reMarkers = regexp.MustCompile(`(?i)(kč|kc|czk|eur|usd|€|\$|mm)`)
	// "1 200,-" style whole-currency suffix
	reDashSuffix = regexp.MustCompile(`[,.]-+$`)
)

// whitespace variants stripped before parsing (ASCII plus the non-breaking family)
var spaceReplacer = strings.NewReplacer(
	" ", "",
	"\t", "",
	"\n", "",
	"\r", "",
	"\u00a0", "",
	"\u2007", "",
	"\u2009", "",
	"\u202f", "",
	"'", "",
)

// Normalize converts one cell value to a canonical integer.
// It returns false when the value carries no number; it never panics on malformed input.
// Halves round up (1234.5 -> 1235) to match currency rounding elsewhere.
func Normalize(v any) (int, bool) {
	f, ok := normalizeFloat(v)
	if !ok {
		return 0, false
	}
	r := RoundHalfUp(f)
	if r > math.MaxInt64/2 || r < math.MinInt64/2 {
		return 0, false
	}
	return int(r), true
}

// RoundHalfUp rounds x to the nearest integer, halves toward +Inf.
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func normalizeFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return finite(float64(t))
	case float64:
		return finite(t)
	case json.Number:
		return parseText(t.String())
	case string:
		return parseText(t)
	case []byte:
		return parseText(string(t))
	default:
		return 0, false
	}
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseText(s string) (float64, bool) {
	s = spaceReplacer.Replace(s)
	if s == "" {
		return 0, false
	}
	s = reMarkers.ReplaceAllString(s, "")
	s = reDashSuffix.ReplaceAllString(s, "")
	s = normalizeSeparators(s)

	m := reNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

// normalizeSeparators rewrites locale separators so that '.' is the only decimal point.
// When both ',' and '.' occur the later one is decimal. A lone ',' is decimal.
// Repeated '.' are thousands. A single '.' followed by exactly three trailing digits is thousands.
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			return strings.ReplaceAll(s, ".", "")
		}
		if isThousandsDot(s, lastDot) {
			return s[:lastDot] + s[lastDot+1:]
		}
	}
	return s
}

// isThousandsDot requires a non-zero integer part, so "0.125" stays a decimal.
func isThousandsDot(s string, dot int) bool {
	if dot == 0 || !isDigit(s[dot-1]) {
		return false
	}
	nonZero := false
	for i := dot - 1; i >= 0 && isDigit(s[i]); i-- {
		if s[i] != '0' {
			nonZero = true
		}
	}
	if !nonZero {
		return false
	}
	digits := 0
	for i := dot + 1; i < len(s); i++ {
		if !isDigit(s[i]) {
			break
		}
		digits++
	}
	return digits == 3 && dot+1+digits == len(s)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

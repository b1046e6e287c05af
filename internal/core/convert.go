package core

// convert.go coerces raw cell text into typed values.
//
// Every parser is strict: it either returns a value and ok=true, or ok=false
// and the caller treats the cell as invalid. Null detection happens before
// parsing, so parsers never see a null token.

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ISODateLayout is the only accepted date format.
const ISODateLayout = "2006-01-02"

// nullTokens are the literals treated as a missing value (compared lowercased).
var nullTokens = map[string]struct{}{
	"":     {},
	"na":   {},
	"null": {},
	"none": {},
}

// IsNull reports whether a cleaned cell is one of the recognized null tokens.
func IsNull(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// ParseBool accepts true/false, 1/0 and yes/no, case-insensitively.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	default:
		return false, false
	}
}

// ParseISODate parses a YYYY-MM-DD calendar date in UTC.
func ParseISODate(s string) (time.Time, bool) {
	t, err := time.Parse(ISODateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseAge parses a non-negative whole number of years. Integral decimals
// such as "45.0" are accepted since spreadsheet exports often produce them.
func ParseAge(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, an Excel formula prefix (="...") and surrounding
// quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// MakeHeaderIndex creates a HeaderIndex from a header row. Keys are cleaned
// and lowercased; the first occurrence of a repeated name wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

package complaint

import (
	"math"
	"strconv"
	"strings"
)

// ParseCoordinate parses a WGS84 coordinate cell permissively. Quotes and
// surrounding whitespace are removed and a lone decimal comma is accepted.
// Empty, unparseable or non-finite input yields nil; it never fails.
func ParseCoordinate(s string) *float64 {
	clean := strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
	if clean == "" {
		return nil
	}
	if strings.Count(clean, ",") == 1 && !strings.Contains(clean, ".") {
		clean = strings.Replace(clean, ",", ".", 1)
	}

	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
